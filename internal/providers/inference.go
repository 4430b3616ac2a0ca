package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const inferenceProvider = "inference"

// InferenceClient talks to the model-serving sidecar over JSON/HTTP. One
// client implements every scorer interface in this package.
type InferenceClient struct {
	baseURL string
	client  *http.Client
}

func NewInferenceClient(baseURL string, timeout time.Duration) *InferenceClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &InferenceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type imageRequest struct {
	Image  string `json:"image"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

func (c *InferenceClient) ScoreImage(ctx context.Context, image []byte, width, height int) (VisualResult, error) {
	normalized, err := NormalizeImage(image, width, height)
	if err != nil {
		return VisualResult{}, wrap(inferenceProvider, "visual", err)
	}
	var out VisualResult
	err = c.post(ctx, "visual", "/v1/visual", imageRequest{
		Image:  base64.StdEncoding.EncodeToString(normalized),
		Width:  width,
		Height: height,
	}, &out)
	return out, err
}

func (c *InferenceClient) ScoreText(ctx context.Context, text string) (TextResult, error) {
	var out TextResult
	err := c.post(ctx, "text", "/v1/text", map[string]string{"text": text}, &out)
	return out, err
}

func (c *InferenceClient) ExtractFeatures(ctx context.Context, image []byte) ([]float64, error) {
	var out struct {
		Features []float64 `json:"features"`
	}
	err := c.post(ctx, "features", "/v1/features", imageRequest{
		Image: base64.StdEncoding.EncodeToString(image),
	}, &out)
	return out.Features, err
}

func (c *InferenceClient) ScoreSentiment(ctx context.Context, text string) (int, error) {
	var out struct {
		Stars int `json:"stars"`
	}
	err := c.post(ctx, "sentiment", "/v1/sentiment", map[string]string{"text": text}, &out)
	return out.Stars, err
}

func (c *InferenceClient) CompareImages(ctx context.Context, productImageURL, reviewImageURL string) (float64, error) {
	var out struct {
		Similarity float64 `json:"similarity"`
	}
	err := c.post(ctx, "image_similarity", "/v1/image-similarity", map[string]string{
		"product_image_url": productImageURL,
		"review_image_url":  reviewImageURL,
	}, &out)
	return out.Similarity, err
}

func (c *InferenceClient) Irrelevance(ctx context.Context, reviewText, productContext string) (float64, error) {
	var out struct {
		Irrelevance float64 `json:"irrelevance"`
	}
	err := c.post(ctx, "relevance", "/v1/relevance", map[string]string{
		"review":  reviewText,
		"product": productContext,
	}, &out)
	return out.Irrelevance, err
}

func (c *InferenceClient) Inspect(ctx context.Context, image []byte, orderID string) (Inspection, error) {
	var out Inspection
	err := c.post(ctx, "inspect", "/v1/inspect", map[string]string{
		"image":    base64.StdEncoding.EncodeToString(image),
		"order_id": orderID,
	}, &out)
	return out, err
}

func (c *InferenceClient) post(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return wrap(inferenceProvider, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return wrap(inferenceProvider, op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return wrap(inferenceProvider, op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrap(inferenceProvider, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return wrap(inferenceProvider, op, fmt.Errorf("status %d", resp.StatusCode))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return wrap(inferenceProvider, op, fmt.Errorf("invalid response: %w", err))
	}
	return nil
}

// Package providers defines the scoring capabilities the risk engine consumes
// as black boxes, plus an HTTP client for an inference sidecar that serves them.
package providers

import (
	"context"
	"fmt"
)

type VisualResult struct {
	AuthenticityScore float64 `json:"authenticity_score"`
	Label             string  `json:"label"`
}

// VisualScorer rates how authentic a product image looks. The image has
// already been normalised to width x height.
type VisualScorer interface {
	ScoreImage(ctx context.Context, image []byte, width, height int) (VisualResult, error)
}

type TextResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type TextScorer interface {
	ScoreText(ctx context.Context, text string) (TextResult, error)
}

// FeatureExtractor turns an image into an embedding for brand similarity checks.
type FeatureExtractor interface {
	ExtractFeatures(ctx context.Context, image []byte) ([]float64, error)
}

type SimilarityScorer interface {
	Similarity(a, b []float64) (float64, error)
}

// SentimentScorer returns a 1-5 star estimate for a review text.
type SentimentScorer interface {
	ScoreSentiment(ctx context.Context, text string) (int, error)
}

// ImageComparer returns the similarity in [-1,1] of two images addressed by URL.
type ImageComparer interface {
	CompareImages(ctx context.Context, productImageURL, reviewImageURL string) (float64, error)
}

// RelevanceScorer returns the probability in [0,1] that a review is unrelated
// to the product it was posted on.
type RelevanceScorer interface {
	Irrelevance(ctx context.Context, reviewText, productContext string) (float64, error)
}

// Inspection is the raw output of an order-photo inspection.
type Inspection struct {
	Barcode          string   `json:"barcode,omitempty"`
	VisualSimilarity float64  `json:"visual_similarity"`
	ColorMatch       float64  `json:"color_match"`
	TextureScore     float64  `json:"texture_score"`
	LogoDetected     bool     `json:"logo_detected"`
	MaterialQuality  string   `json:"material_quality"`
	SecurityFeatures []string `json:"security_features"`
}

type Inspector interface {
	Inspect(ctx context.Context, image []byte, orderID string) (Inspection, error)
}

// ProviderError records which provider operation failed.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func wrap(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

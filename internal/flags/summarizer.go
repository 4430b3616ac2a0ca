package flags

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Summarizer turns a flag into a human-readable report for reviewers.
type Summarizer interface {
	Summarize(ctx context.Context, f Flag) (string, error)
}

var errNoSummary = errors.New("empty summary")

const reportSystemPrompt = `You are a marketplace trust and safety assistant. Given a flag object, write a detailed markdown report for human reviewers.
Always include these sections:
- # Executive Summary
- ## Why This Was Flagged
- ## Evidence (list and explain each evidence item)
- ## User Upload (summarize any submitted data)
- ## Recommendations
- ## Next Steps
- ## Risk Assessment (severity, risk, business impact)
- ## Additional Context
Be concise and professional. Use bullet points and tables where helpful.`

func userPrompt(f Flag) (string, error) {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", err
	}
	return "Flag Data (JSON):\n" + string(data), nil
}

// =============================================================================
// OpenAI-compatible chat completions
// =============================================================================

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("AI API error: status %d", e.code) }

// ChatSummarizer walks every key and, per key, every model in order. A 401
// skips the remaining models for that key; any other failure moves on to the
// next model. Each attempt has its own timeout.
type ChatSummarizer struct {
	apiURL  string
	keys    []string
	models  []string
	timeout time.Duration
	client  *http.Client
}

func NewChatSummarizer(apiURL string, keys, models []string, timeout time.Duration) *ChatSummarizer {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ChatSummarizer{
		apiURL:  apiURL,
		keys:    keys,
		models:  models,
		timeout: timeout,
		client:  &http.Client{},
	}
}

func (s *ChatSummarizer) Summarize(ctx context.Context, f Flag) (string, error) {
	prompt, err := userPrompt(f)
	if err != nil {
		return "", err
	}

	lastErr := errors.New("no API key configured")
	for _, key := range s.keys {
		if key == "" {
			continue
		}
		for _, model := range s.models {
			content, err := s.attempt(ctx, key, model, prompt)
			if err == nil {
				return content, nil
			}
			lastErr = err
			slog.Warn("summary attempt failed", "model", model, "error", err)

			var se *statusError
			if errors.As(err, &se) && se.code == http.StatusUnauthorized {
				break
			}
		}
	}
	return "", lastErr
}

func (s *ChatSummarizer) attempt(ctx context.Context, key, model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: reportSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   1200,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode}
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no response from AI")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", errNoSummary
	}
	return content, nil
}

// =============================================================================
// Gemini
// =============================================================================

type GeminiSummarizer struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiSummarizer(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiSummarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GeminiSummarizer{client: client, model: model, timeout: timeout}, nil
}

func (s *GeminiSummarizer) Summarize(ctx context.Context, f Flag) (string, error) {
	prompt, err := userPrompt(f)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(reportSystemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", errNoSummary
	}
	return text, nil
}

// =============================================================================
// Enricher
// =============================================================================

// Enricher tries each summarizer in order and falls back to a template, so
// Explain always returns a non-empty report.
type Enricher struct {
	summarizers []Summarizer
}

func NewEnricher(summarizers ...Summarizer) *Enricher {
	return &Enricher{summarizers: summarizers}
}

func (e *Enricher) Explain(ctx context.Context, f Flag) string {
	for _, s := range e.summarizers {
		if s == nil {
			continue
		}
		text, err := s.Summarize(ctx, f)
		if err == nil && text != "" {
			return text
		}
		slog.Warn("summarizer failed, trying next", "flag_id", f.ID.String(), "error", err)
	}
	slog.Info("all summarizers failed, using template", "flag_id", f.ID.String())
	return TemplateReport(f)
}

package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/flags"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/heuristics"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/providers"
	"golang.org/x/sync/errgroup"
)

var (
	errVisualNotConfigured = errors.New("visual scorer not configured")
	errScoreOutOfRange     = errors.New("score outside [0,1]")
)

// FlagCreator is the part of the flag store the engine needs.
type FlagCreator interface {
	Create(ctx context.Context, nf flags.NewFlag) (flags.Flag, error)
}

type EngineConfig struct {
	Visual              providers.VisualScorer
	Text                providers.TextScorer
	Features            providers.FeatureExtractor
	Similarity          providers.SimilarityScorer
	Brands              *providers.BrandReferences
	Flags               FlagCreator
	Timeout             time.Duration
	ImageWidth          int
	ImageHeight         int
	SimilarityThreshold float64
}

type Engine struct {
	cfg EngineConfig
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.ImageWidth <= 0 {
		cfg.ImageWidth = 224
	}
	if cfg.ImageHeight <= 0 {
		cfg.ImageHeight = 224
	}
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = 0.85
	}
	if cfg.Similarity == nil {
		cfg.Similarity = providers.Cosine{}
	}
	return &Engine{cfg: cfg}
}

type Evaluation struct {
	Assessment
	Flag *flags.Flag `json:"flag,omitempty"`
}

// Evaluate scores a listing. Provider calls run concurrently, each under its
// own timeout, and any failure is replaced by a neutral outcome. At most one
// flag is created, and only for medium risk or above.
func (e *Engine) Evaluate(ctx context.Context, sub Submission, image []byte, origin map[string]any) Evaluation {
	var (
		visual VisualOutcome
		text   TextOutcome
		g      errgroup.Group
	)
	g.Go(func() error {
		visual = e.scoreVisual(ctx, sub.Brand, image)
		return nil
	})
	g.Go(func() error {
		text = e.scoreText(ctx, sub.Text())
		return nil
	})
	_ = g.Wait()

	a := Assess(sub, visual, text)

	if known := e.cfg.Brands.Names(); len(known) > 0 {
		if match, ok := heuristics.Lookalike(sub.Brand, known); ok {
			a.Recommendations = append(a.Recommendations, fmt.Sprintf("Brand name closely resembles '%s' - confirm brand authorization", match))
			a.ProviderOutputs["brand_lookalike"] = match
		}
	}

	ev := Evaluation{Assessment: a}
	if !a.RiskLevel.Flagged() || e.cfg.Flags == nil {
		return ev
	}

	evidence := make([]flags.EvidenceItem, 0, len(a.Findings))
	for _, f := range a.Findings {
		evidence = append(evidence, flags.EvidenceItem{Type: string(f.Type), Detail: f.Message, Severity: string(f.Severity)})
	}
	flag, err := e.cfg.Flags.Create(ctx, flags.NewFlag{
		Title:         "High Risk Product Listing - " + sub.Brand,
		Severity:      a.RiskLevel.FlagSeverity(),
		RiskCategory:  "Counterfeit",
		Category:      "Product Listing",
		Evidence:      evidence,
		AISummary:     fmt.Sprintf("AI detected %d suspicious indicators. ML Score: %.4f. Risk score: %.4f", len(a.Findings), visual.Score, a.RiskScore),
		OriginPayload: origin,
	})
	if err != nil {
		slog.Error("failed to create listing flag", "error", err, "risk_level", string(a.RiskLevel))
		return ev
	}
	ev.Flag = &flag
	return ev
}

func (e *Engine) scoreVisual(ctx context.Context, brand string, image []byte) VisualOutcome {
	if len(image) == 0 {
		return MissingVisual()
	}
	if e.cfg.Visual == nil {
		return NeutralVisual(errVisualNotConfigured)
	}

	cctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	res, err := e.cfg.Visual.ScoreImage(cctx, image, e.cfg.ImageWidth, e.cfg.ImageHeight)
	cancel()
	if err == nil && !validScore(res.AuthenticityScore) {
		err = &providers.ProviderError{Provider: "visual", Op: "score", Err: errScoreOutOfRange}
	}
	if err != nil {
		slog.Warn("visual scoring failed, using neutral score", "error", err)
		return NeutralVisual(err)
	}

	out := ScoredVisual(res)
	out.SimilarityCheck = e.checkBrandSimilarity(ctx, brand, image, &out)
	return out
}

// checkBrandSimilarity compares the image with the brand's reference features.
// A match below the threshold overrides the visual verdict to Fake.
func (e *Engine) checkBrandSimilarity(ctx context.Context, brand string, image []byte, out *VisualOutcome) string {
	ref, ok := e.cfg.Brands.Lookup(brand)
	if !ok || e.cfg.Features == nil {
		return ""
	}

	cctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	features, err := e.cfg.Features.ExtractFeatures(cctx, image)
	cancel()
	if err != nil {
		slog.Warn("feature extraction failed", "brand", brand, "error", err)
		return "unavailable (" + err.Error() + ")"
	}

	sim, err := e.cfg.Similarity.Similarity(features, ref)
	if err != nil {
		return "unavailable (" + err.Error() + ")"
	}
	if sim < e.cfg.SimilarityThreshold {
		out.Label = "Fake"
		out.Score = 0.05
		return fmt.Sprintf("similarity %.4f below %.2f for brand '%s'", sim, e.cfg.SimilarityThreshold, brand)
	}
	return fmt.Sprintf("similarity %.4f matches brand '%s'", sim, brand)
}

func (e *Engine) scoreText(ctx context.Context, text string) TextOutcome {
	if e.cfg.Text == nil {
		return UnavailableText()
	}

	cctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	res, err := e.cfg.Text.ScoreText(cctx, text)
	if err == nil && !validScore(res.Confidence) {
		err = &providers.ProviderError{Provider: "text", Op: "score", Err: errScoreOutOfRange}
	}
	if err != nil {
		slog.Warn("text scoring failed, using neutral score", "error", err)
		return NeutralText(err)
	}
	return ScoredText(res)
}

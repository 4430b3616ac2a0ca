package review

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/flags"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/providers"
	"golang.org/x/sync/errgroup"
)

// neutralStars stands in for a failed sentiment call.
const neutralStars = 3

type FlagCreator interface {
	Create(ctx context.Context, nf flags.NewFlag) (flags.Flag, error)
}

type Submission struct {
	Text               string
	ProductImageURL    string
	ReviewImageURL     string
	Verified           bool
	Rating             int
	ProductTitle       string
	ProductDescription string
	ProductCategory    string
}

func (s Submission) payload() map[string]any {
	return map[string]any{
		"review_text":         s.Text,
		"product_image_url":   s.ProductImageURL,
		"review_image_url":    s.ReviewImageURL,
		"verified":            s.Verified,
		"rating":              s.Rating,
		"product_title":       s.ProductTitle,
		"product_description": s.ProductDescription,
		"product_category":    s.ProductCategory,
	}
}

type Result struct {
	TrustScore      float64     `json:"trust_score"`
	TextScore       float64     `json:"text_score"`
	ImageScore      *float64    `json:"image_score"`
	Badge           Badge       `json:"badge"`
	ImageComparison string      `json:"image_comparison"`
	RelevanceScore  *float64    `json:"relevance_score"`
	RelevanceCheck  string      `json:"relevance_check"`
	Unavailable     []string    `json:"unavailable_signals,omitempty"`
	Flag            *flags.Flag `json:"flag,omitempty"`
}

type Config struct {
	Sentiment providers.SentimentScorer
	Images    providers.ImageComparer
	Relevance providers.RelevanceScorer
	Flags     FlagCreator
	Timeout   time.Duration
}

type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) *Scorer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Scorer{cfg: cfg}
}

// Score rates a review. Provider failures degrade to a neutral sentiment, a
// skipped image comparison or an unknown relevance, and are listed in
// Result.Unavailable.
func (s *Scorer) Score(ctx context.Context, sub Submission) Result {
	var (
		stars       = neutralStars
		similarity  *float64
		irrelevance *float64
		missing     [3]string
		g           errgroup.Group
	)

	g.Go(func() error {
		if s.cfg.Sentiment == nil {
			missing[0] = "sentiment"
			return nil
		}
		cctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
		n, err := s.cfg.Sentiment.ScoreSentiment(cctx, sub.Text)
		if err == nil && (n < 1 || n > 5) {
			err = fmt.Errorf("sentiment %d outside 1-5", n)
		}
		if err != nil {
			slog.Warn("review sentiment failed, using neutral rating", "error", err)
			missing[0] = "sentiment"
			return nil
		}
		stars = n
		return nil
	})
	g.Go(func() error {
		if sub.ProductImageURL == "" || sub.ReviewImageURL == "" || s.cfg.Images == nil {
			return nil
		}
		cctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
		sim, err := s.cfg.Images.CompareImages(cctx, sub.ProductImageURL, sub.ReviewImageURL)
		if err == nil && (math.IsNaN(sim) || sim < -1 || sim > 1) {
			err = fmt.Errorf("similarity %v outside [-1,1]", sim)
		}
		if err != nil {
			slog.Warn("review image comparison failed", "error", err)
			missing[1] = "image"
			return nil
		}
		similarity = &sim
		return nil
	})
	g.Go(func() error {
		if s.cfg.Relevance == nil {
			missing[2] = "relevance"
			return nil
		}
		cctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
		productContext := fmt.Sprintf("%s. %s. %s", sub.ProductTitle, sub.ProductDescription, sub.ProductCategory)
		p, err := s.cfg.Relevance.Irrelevance(cctx, sub.Text, productContext)
		if err != nil {
			slog.Warn("review relevance check failed", "error", err)
			missing[2] = "relevance"
			return nil
		}
		p = round2(p)
		irrelevance = &p
		return nil
	})
	_ = g.Wait()

	sig := Signals{
		TextScore: TextScore(stars, sub.Text),
		Verified:  sub.Verified,
		Rating:    sub.Rating,
	}
	res := Result{TextScore: round2(sig.TextScore), ImageComparison: "skipped", RelevanceCheck: "unknown"}
	if similarity != nil {
		img := ImageScore(*similarity)
		sig.ImageScore = &img
		res.ImageScore = &img
		res.ImageComparison = "done"
	}
	if irrelevance != nil {
		res.RelevanceScore = irrelevance
		res.RelevanceCheck = RelevanceCheck(*irrelevance)
	}
	for _, m := range missing {
		if m != "" {
			res.Unavailable = append(res.Unavailable, m)
		}
	}

	res.TrustScore = Combine(sig)
	res.Badge = BadgeFor(res.TrustScore)
	slog.Info("review analyzed", "trust_score", res.TrustScore, "badge", string(res.Badge))

	if NeedsFlag(res.TrustScore, res.Badge) && s.cfg.Flags != nil {
		res.Flag = s.flag(ctx, sub, res)
	}
	return res
}

func (s *Scorer) flag(ctx context.Context, sub Submission, res Result) *flags.Flag {
	severity := flags.SeverityMedium
	if res.TrustScore < highSeverityBelow {
		severity = flags.SeverityHigh
	}
	origin := sub.payload()
	origin["trust_score"] = res.TrustScore

	f, err := s.cfg.Flags.Create(ctx, flags.NewFlag{
		Title:        "Review Trust Issue",
		Severity:     severity,
		RiskCategory: "Review Fraud",
		Category:     "Review",
		Evidence: []flags.EvidenceItem{
			{Type: "Text", Detail: fmt.Sprintf("Trust score: %v, badge: %s", res.TrustScore, res.Badge)},
			{Type: "AI", Detail: fmt.Sprintf("AI flagged review as %s", res.Badge)},
		},
		AISummary:     fmt.Sprintf("AI flagged this review as %s.", res.Badge),
		OriginPayload: origin,
	})
	if err != nil {
		slog.Error("failed to create review flag", "error", err)
		return nil
	}
	return &f
}

package listings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/risk"
	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Shorter keywords only match by substring; as subsequences they hit
// nearly every title.
const minFuzzyKeywordLen = 3

// Evaluator is the risk engine as seen by the registry.
type Evaluator interface {
	Evaluate(ctx context.Context, sub risk.Submission, image []byte, origin map[string]any) risk.Evaluation
}

type Service struct {
	repo   Repository
	engine Evaluator
	now    func() time.Time
}

func NewService(repo Repository, engine Evaluator) *Service {
	if repo == nil {
		repo = NewMemoryRepository()
	}
	return &Service{repo: repo, engine: engine, now: time.Now}
}

// Submit assesses a listing and records it. The assessment is returned even
// when storing the product fails.
func (s *Service) Submit(ctx context.Context, sellerID string, l Listing, image []byte) (ListedProduct, risk.Evaluation, error) {
	l.Description = NormalizeDescription(l.Description)
	l.HasMainImage = len(image) > 0
	if sellerID == "" {
		sellerID = "unknown"
	}

	id := uuid.NewString()
	ev := s.engine.Evaluate(ctx, l.Submission(), image, map[string]any{
		"product_id": id,
		"seller_id":  sellerID,
		"brand_name": l.Brand,
		"title":      l.Title,
		"category":   l.Category,
		"price":      l.Price.String(),
	})

	p := ListedProduct{
		ID:         id,
		SellerID:   sellerID,
		Listing:    l,
		Assessment: ev.Assessment,
		Status:     StatusFor(ev.RiskLevel),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return p, ev, fmt.Errorf("store listing: %w", err)
	}

	slog.Info("listing submitted",
		"product_id", p.ID,
		"seller_id", sellerID,
		"brand", l.Brand,
		"risk_level", string(ev.RiskLevel),
		"risk_score", ev.RiskScore,
		"status", string(p.Status),
	)
	return p, ev, nil
}

func (s *Service) Get(ctx context.Context, id string) (ListedProduct, error) {
	return s.repo.FindByID(ctx, id)
}

// Search matches keyword case-insensitively against title, brand and
// description, and fuzzily against the title. An empty keyword lists all.
func (s *Service) Search(ctx context.Context, keyword string) ([]ListedProduct, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return all, nil
	}

	kw := strings.ToLower(keyword)
	fuzzyTitle := utf8.RuneCountInString(kw) >= minFuzzyKeywordLen
	out := make([]ListedProduct, 0)
	for _, p := range all {
		l := p.Listing
		if strings.Contains(strings.ToLower(l.Title), kw) ||
			strings.Contains(strings.ToLower(l.Brand), kw) ||
			strings.Contains(strings.ToLower(l.Description), kw) ||
			(fuzzyTitle && fuzzy.MatchFold(kw, l.Title)) {
			out = append(out, p)
		}
	}
	return out, nil
}

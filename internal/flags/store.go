package flags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	repo      Repository
	enricher  *Enricher
	publisher Publisher
	now       func() time.Time
}

func NewStore(repo Repository, enricher *Enricher, publisher Publisher) *Store {
	if enricher == nil {
		enricher = NewEnricher()
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Store{repo: repo, enricher: enricher, publisher: publisher, now: time.Now}
}

// Create assigns a fresh id and stores the flag with status Open.
func (s *Store) Create(ctx context.Context, nf NewFlag) (Flag, error) {
	f := Flag{
		ID:            uuid.New(),
		Title:         nf.Title,
		Severity:      nf.Severity,
		Status:        StatusOpen,
		CreatedAt:     s.now().UTC(),
		RiskCategory:  nf.RiskCategory,
		Category:      nf.Category,
		Evidence:      nf.Evidence,
		AISummary:     nf.AISummary,
		OriginPayload: nf.OriginPayload,
	}
	if f.Evidence == nil {
		f.Evidence = []EvidenceItem{}
	}

	if err := s.repo.Insert(ctx, f); err != nil {
		return Flag{}, fmt.Errorf("create flag: %w", err)
	}
	slog.Info("flag created", "flag_id", f.ID.String(), "severity", string(f.Severity), "category", f.Category)

	if err := s.publisher.Publish(ctx, eventFor(f)); err != nil {
		slog.Warn("flag event publish failed", "flag_id", f.ID.String(), "error", err)
	}
	return f, nil
}

// Get returns ErrFlagNotFound for unknown or malformed ids.
func (s *Store) Get(ctx context.Context, id string) (Flag, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Flag{}, ErrFlagNotFound
	}
	return s.repo.FindByID(ctx, uid)
}

// List returns all flags in creation order. The slice may be shared and must
// be treated as read-only.
func (s *Store) List(ctx context.Context) ([]Flag, error) {
	return s.repo.List(ctx)
}

// Enrich attaches a reviewer report to the flag. The only error it returns is
// ErrFlagNotFound or a storage failure on lookup; summarizer failures fall back
// to a template.
func (s *Store) Enrich(ctx context.Context, id string) (Flag, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return Flag{}, err
	}

	f.AIAnalysis = s.enricher.Explain(ctx, f)

	if err := s.repo.SaveAnalysis(ctx, f.ID, f.AIAnalysis); err != nil && !errors.Is(err, ErrFlagNotFound) {
		slog.Error("failed to save flag analysis", "flag_id", f.ID.String(), "error", err)
	}
	return f, nil
}

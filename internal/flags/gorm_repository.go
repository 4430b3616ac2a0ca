package flags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormRepository persists flags in the flags table (postgres or sqlite).
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Insert(ctx context.Context, f Flag) error {
	rec, err := toRecord(f)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert flag: %w", err)
	}
	return nil
}

func (r *GormRepository) FindByID(ctx context.Context, id uuid.UUID) (Flag, error) {
	var rec models.FlagRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Flag{}, ErrFlagNotFound
		}
		return Flag{}, fmt.Errorf("find flag: %w", err)
	}
	return fromRecord(rec)
}

func (r *GormRepository) List(ctx context.Context) ([]Flag, error) {
	var recs []models.FlagRecord
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	out := make([]Flag, 0, len(recs))
	for _, rec := range recs {
		f, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (r *GormRepository) SaveAnalysis(ctx context.Context, id uuid.UUID, analysis string) error {
	result := r.db.WithContext(ctx).Model(&models.FlagRecord{}).
		Where("id = ?", id).
		Update("ai_analysis", analysis)
	if result.Error != nil {
		return fmt.Errorf("save analysis: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrFlagNotFound
	}
	return nil
}

func toRecord(f Flag) (models.FlagRecord, error) {
	evidence, err := json.Marshal(f.Evidence)
	if err != nil {
		return models.FlagRecord{}, fmt.Errorf("marshal evidence: %w", err)
	}
	payload, err := json.Marshal(f.OriginPayload)
	if err != nil {
		return models.FlagRecord{}, fmt.Errorf("marshal origin payload: %w", err)
	}
	return models.FlagRecord{
		ID:            f.ID,
		Title:         f.Title,
		Severity:      string(f.Severity),
		Status:        string(f.Status),
		RiskCategory:  f.RiskCategory,
		Category:      f.Category,
		Evidence:      datatypes.JSON(evidence),
		AISummary:     f.AISummary,
		AIAnalysis:    f.AIAnalysis,
		OriginPayload: datatypes.JSON(payload),
		CreatedAt:     f.CreatedAt,
	}, nil
}

func fromRecord(rec models.FlagRecord) (Flag, error) {
	f := Flag{
		ID:           rec.ID,
		Title:        rec.Title,
		Severity:     Severity(rec.Severity),
		Status:       Status(rec.Status),
		RiskCategory: rec.RiskCategory,
		Category:     rec.Category,
		AISummary:    rec.AISummary,
		AIAnalysis:   rec.AIAnalysis,
		CreatedAt:    rec.CreatedAt,
	}
	if len(rec.Evidence) > 0 {
		if err := json.Unmarshal(rec.Evidence, &f.Evidence); err != nil {
			return Flag{}, fmt.Errorf("unmarshal evidence: %w", err)
		}
	}
	if len(rec.OriginPayload) > 0 {
		if err := json.Unmarshal(rec.OriginPayload, &f.OriginPayload); err != nil {
			return Flag{}, fmt.Errorf("unmarshal origin payload: %w", err)
		}
	}
	return f, nil
}

package listings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Insert(ctx context.Context, p ListedProduct) error {
	listing, err := json.Marshal(p.Listing)
	if err != nil {
		return fmt.Errorf("marshal listing: %w", err)
	}
	assessment, err := json.Marshal(p.Assessment)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	rec := models.ListingRecord{
		ID:         p.ID,
		SellerID:   p.SellerID,
		Brand:      p.Listing.Brand,
		Title:      p.Listing.Title,
		Category:   p.Listing.Category,
		Price:      p.Listing.Price,
		Status:     string(p.Status),
		RiskLevel:  string(p.Assessment.RiskLevel),
		RiskScore:  p.Assessment.RiskScore,
		Listing:    datatypes.JSON(listing),
		Assessment: datatypes.JSON(assessment),
		CreatedAt:  p.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (r *GormRepository) FindByID(ctx context.Context, id string) (ListedProduct, error) {
	var rec models.ListingRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ListedProduct{}, ErrListingNotFound
		}
		return ListedProduct{}, fmt.Errorf("find listing: %w", err)
	}
	return fromRecord(rec)
}

func (r *GormRepository) List(ctx context.Context) ([]ListedProduct, error) {
	var recs []models.ListingRecord
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	out := make([]ListedProduct, 0, len(recs))
	for _, rec := range recs {
		p, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func fromRecord(rec models.ListingRecord) (ListedProduct, error) {
	p := ListedProduct{
		ID:        rec.ID,
		SellerID:  rec.SellerID,
		Status:    Status(rec.Status),
		CreatedAt: rec.CreatedAt,
	}
	if err := json.Unmarshal(rec.Listing, &p.Listing); err != nil {
		return ListedProduct{}, fmt.Errorf("unmarshal listing: %w", err)
	}
	if len(rec.Assessment) > 0 {
		if err := json.Unmarshal(rec.Assessment, &p.Assessment); err != nil {
			return ListedProduct{}, fmt.Errorf("unmarshal assessment: %w", err)
		}
	}
	return p, nil
}

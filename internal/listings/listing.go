// Package listings keeps the products sellers have listed together with the
// risk assessment made when they were submitted.
package listings

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/risk"
	"github.com/jaytaylor/html2text"
	"github.com/shopspring/decimal"
)

var ErrListingNotFound = errors.New("product not found")

type Status string

const (
	StatusActive  Status = "active"
	StatusFlagged Status = "flagged"
)

// StatusFor keeps low and medium risk listings live.
func StatusFor(level risk.Level) Status {
	if level.Rank() >= risk.LevelHigh.Rank() {
		return StatusFlagged
	}
	return StatusActive
}

type Listing struct {
	Brand           string          `json:"brand_name"`
	Title           string          `json:"product_title"`
	Description     string          `json:"product_description"`
	BulletPoints    []string        `json:"bullet_points"`
	Manufacturer    string          `json:"manufacturer,omitempty"`
	PartNumber      string          `json:"part_number,omitempty"`
	ModelNumber     string          `json:"model_number,omitempty"`
	CountryOfOrigin string          `json:"country_of_origin,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	Condition       string          `json:"condition,omitempty"`
	Category        string          `json:"category"`
	Subcategory     string          `json:"subcategory,omitempty"`
	HasMainImage    bool            `json:"has_main_image"`
}

func (l Listing) Submission() risk.Submission {
	return risk.Submission{
		Brand:        l.Brand,
		Title:        l.Title,
		Description:  l.Description,
		BulletPoints: l.BulletPoints,
		Price:        l.Price,
		Category:     l.Category,
	}
}

type ListedProduct struct {
	ID         string          `json:"id"`
	SellerID   string          `json:"seller_id"`
	Listing    Listing         `json:"listing_data"`
	Assessment risk.Assessment `json:"monitoring_result"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NormalizeDescription converts HTML descriptions to plain text so keyword
// and length checks see what a shopper reads.
func NormalizeDescription(desc string) string {
	if !strings.Contains(desc, "<") || !strings.Contains(desc, ">") {
		return strings.TrimSpace(desc)
	}
	text, err := html2text.FromString(desc, html2text.Options{OmitLinks: true})
	if err != nil {
		slog.Warn("html description conversion failed", "error", err)
		return strings.TrimSpace(desc)
	}
	return strings.TrimSpace(text)
}

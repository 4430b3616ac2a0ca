package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ListingRecord is a submitted product listing with its risk assessment.
type ListingRecord struct {
	ID         string          `gorm:"size:36;primaryKey" json:"id"`
	SellerID   string          `gorm:"size:100;index" json:"seller_id"`
	Brand      string          `gorm:"size:255;index" json:"brand_name"`
	Title      string          `gorm:"size:500" json:"product_title"`
	Category   string          `gorm:"size:255" json:"category"`
	Price      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	Status     string          `gorm:"size:20;not null;index" json:"status"`
	RiskLevel  string          `gorm:"size:20;index" json:"risk_level"`
	RiskScore  float64         `json:"risk_score"`
	Listing    datatypes.JSON  `json:"listing_data"`
	Assessment datatypes.JSON  `json:"monitoring_result"`
	CreatedAt  time.Time       `gorm:"not null;index" json:"created_at"`
}

func (ListingRecord) TableName() string { return "listed_products" }

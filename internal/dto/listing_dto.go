package dto

import (
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/flags"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/listings"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/providers"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/risk"
	"github.com/shopspring/decimal"
)

type ListingData struct {
	Brand           string          `json:"brand_name" validate:"required,max=100"`
	Title           string          `json:"product_title" validate:"required,max=300"`
	Description     string          `json:"product_description" validate:"max=20000"`
	BulletPoints    []string        `json:"bullet_points" validate:"max=10,dive,max=1000"`
	Manufacturer    string          `json:"manufacturer" validate:"max=100"`
	PartNumber      string          `json:"part_number" validate:"max=100"`
	ModelNumber     string          `json:"model_number" validate:"max=100"`
	CountryOfOrigin string          `json:"country_of_origin" validate:"max=100"`
	Price           decimal.Decimal `json:"price" validate:"gt=0"`
	Quantity        int             `json:"quantity" validate:"gte=0"`
	Condition       string          `json:"condition" validate:"max=50"`
	Category        string          `json:"category" validate:"required,max=100"`
	Subcategory     string          `json:"subcategory" validate:"max=100"`
	HasMainImage    bool            `json:"has_main_image"`
}

func (d ListingData) toListing() listings.Listing {
	return listings.Listing{
		Brand:           d.Brand,
		Title:           d.Title,
		Description:     d.Description,
		BulletPoints:    d.BulletPoints,
		Manufacturer:    d.Manufacturer,
		PartNumber:      d.PartNumber,
		ModelNumber:     d.ModelNumber,
		CountryOfOrigin: d.CountryOfOrigin,
		Price:           d.Price,
		Quantity:        d.Quantity,
		Condition:       d.Condition,
		Category:        d.Category,
		Subcategory:     d.Subcategory,
		HasMainImage:    d.HasMainImage,
	}
}

type SubmitListingRequest struct {
	SellerID string      `json:"seller_id" validate:"max=64"`
	Listing  ListingData `json:"listing_data"`
	// base64 or data URL of the main image
	Image string `json:"image_base64"`
}

// Parse validates the request and decodes the main image when one is sent.
func (r SubmitListingRequest) Parse() (listings.Listing, []byte, error) {
	if err := Validate(r); err != nil {
		return listings.Listing{}, nil, err
	}
	l := r.Listing.toListing()
	if r.Image == "" {
		return l, nil, nil
	}
	img, err := providers.DecodeImagePayload(r.Image)
	if err != nil {
		return listings.Listing{}, nil, fieldError("image_base64", "must be a base64 encoded image")
	}
	l.HasMainImage = true
	return l, img, nil
}

type SubmitListingResponse struct {
	ProductID  string          `json:"product_id"`
	Status     listings.Status `json:"status"`
	Assessment risk.Assessment `json:"monitoring_result"`
	Flag       *flags.Flag     `json:"flag,omitempty"`
}

type StepData struct {
	Brand        string           `json:"brand_name" validate:"max=100"`
	Title        string           `json:"product_title" validate:"max=300"`
	Description  string           `json:"product_description" validate:"max=20000"`
	BulletPoints []string         `json:"bullet_points" validate:"max=10,dive,max=1000"`
	Manufacturer string           `json:"manufacturer" validate:"max=100"`
	Price        *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Image        string           `json:"image_base64"`
}

type MonitorStepRequest struct {
	StepNumber int      `json:"step_number" validate:"required,min=1,max=6"`
	ProductID  string   `json:"product_id" validate:"required,max=64"`
	StepData   StepData `json:"step_data"`
}

func (r MonitorStepRequest) Parse() (risk.StepInput, error) {
	if err := Validate(r); err != nil {
		return risk.StepInput{}, err
	}
	in := risk.StepInput{
		StepNumber:   r.StepNumber,
		ProductID:    r.ProductID,
		Brand:        r.StepData.Brand,
		Title:        r.StepData.Title,
		Description:  listings.NormalizeDescription(r.StepData.Description),
		BulletPoints: r.StepData.BulletPoints,
		Manufacturer: r.StepData.Manufacturer,
		Price:        r.StepData.Price,
	}
	if r.StepData.Image != "" {
		img, err := providers.DecodeImagePayload(r.StepData.Image)
		if err != nil {
			return risk.StepInput{}, fieldError("step_data.image_base64", "must be a base64 encoded image")
		}
		in.Image = img
	}
	return in, nil
}

type ProductListResponse struct {
	Products []listings.ListedProduct `json:"products"`
	Count    int                      `json:"count"`
}

package dto

import "github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/review"

type AnalyzeReviewRequest struct {
	Text               string `json:"review_text" validate:"required,max=10000"`
	ProductImageURL    string `json:"product_image_url" validate:"omitempty,url"`
	ReviewImageURL     string `json:"review_image_url" validate:"omitempty,url"`
	Verified           bool   `json:"verified_purchase"`
	Rating             int    `json:"rating" validate:"required,min=1,max=5"`
	ProductTitle       string `json:"product_title" validate:"max=300"`
	ProductDescription string `json:"product_description" validate:"max=20000"`
	ProductCategory    string `json:"product_category" validate:"max=100"`
}

func (r AnalyzeReviewRequest) Parse() (review.Submission, error) {
	if err := Validate(r); err != nil {
		return review.Submission{}, err
	}
	return review.Submission{
		Text:               r.Text,
		ProductImageURL:    r.ProductImageURL,
		ReviewImageURL:     r.ReviewImageURL,
		Verified:           r.Verified,
		Rating:             r.Rating,
		ProductTitle:       r.ProductTitle,
		ProductDescription: r.ProductDescription,
		ProductCategory:    r.ProductCategory,
	}, nil
}

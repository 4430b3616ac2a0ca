package dto

import "github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/verification"

type VerifyRequest struct {
	OrderID string `form:"order_id" validate:"required,max=64"`
}

// VerifyResponse.Result is "authentic", "counterfeit" or "error".
type VerifyResponse struct {
	Result  string               `json:"result"`
	Message string               `json:"message,omitempty"`
	Details *verification.Result `json:"details,omitempty"`
}

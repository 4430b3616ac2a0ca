package dto

import "github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/flags"

type FlagListResponse struct {
	Flags []flags.Flag `json:"flags"`
	Count int          `json:"count"`
}

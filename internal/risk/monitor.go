package risk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/heuristics"
	"github.com/shopspring/decimal"
)

const (
	StepIdentity  = 1
	StepVitalInfo = 2
	StepOffer     = 3
	StepImages    = 6
)

var lowPriceLimit = decimal.NewFromInt(5)

// StepInput is the partial listing data seen while a seller fills in one step
// of the listing form. Only the fields of the current step are set.
type StepInput struct {
	StepNumber   int
	ProductID    string
	Brand        string
	Title        string
	Description  string
	BulletPoints []string
	Manufacturer string
	Price        *decimal.Decimal
	Image        []byte
}

type StepResult struct {
	Step            int       `json:"step"`
	ProductID       string    `json:"product_id"`
	Timestamp       time.Time `json:"timestamp"`
	Warnings        []string  `json:"warnings"`
	RiskScore       float64   `json:"risk_score"`
	Recommendations []string  `json:"recommendations"`
}

func (r *StepResult) warn(msg string, weight float64) {
	r.Warnings = append(r.Warnings, msg)
	r.RiskScore += weight
}

// MonitorStep gives early feedback on a single listing step. It never creates
// flags; the full evaluation on submit does that.
func (e *Engine) MonitorStep(ctx context.Context, in StepInput) StepResult {
	res := StepResult{
		Step:            in.StepNumber,
		ProductID:       in.ProductID,
		Timestamp:       time.Now().UTC(),
		Warnings:        []string{},
		Recommendations: []string{},
	}

	switch in.StepNumber {
	case StepIdentity:
		identity := strings.TrimSpace(in.Brand + " " + in.Title)
		if identity == "" {
			break
		}
		if kw := heuristics.ScanKeywords(identity); len(kw) > 0 {
			res.warn("CRITICAL: ML detected suspicious keywords: "+strings.Join(kw, ", "), 0.6)
		}
		text := e.scoreText(ctx, identity)
		if text.Status == TextScored && text.Label == suspiciousTextLabel && text.Confidence > 0.7 {
			res.warn(fmt.Sprintf("ML model flagged content as suspicious (score: %.4f)", text.Confidence), 0.4)
		}
	case StepVitalInfo:
		if in.Manufacturer == "" {
			break
		}
		if kw := heuristics.ScanKeywords(in.Manufacturer); len(kw) > 0 {
			res.warn("ML detected suspicious manufacturer information", 0.3)
		}
	case StepOffer:
		if in.Price != nil && in.Price.LessThan(lowPriceLimit) {
			res.warn("Suspiciously low price: $"+in.Price.String(), 0.4)
		}
	case StepImages:
		if len(in.Image) == 0 {
			break
		}
		visual := e.scoreVisual(ctx, "", in.Image)
		switch visual.Status {
		case VisualScored:
			if visual.Score < lowAuthenticityThreshold {
				res.warn(fmt.Sprintf("ML model detected potential counterfeit image (score: %.4f)", visual.Score), 0.5)
			}
		case VisualFailed:
			res.warn("Image analysis failed: "+visual.Error, 0.2)
		}
	}

	switch {
	case res.RiskScore > 0.7:
		res.Recommendations = append(res.Recommendations, "CRITICAL: High risk detected - manual review required")
	case res.RiskScore > 0.4:
		res.Recommendations = append(res.Recommendations, "Medium risk detected - review recommended")
	}
	return res
}

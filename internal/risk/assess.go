// Package risk combines heuristic checks and provider scores into a listing
// risk assessment.
package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/heuristics"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/providers"
	"github.com/shopspring/decimal"
)

// Penalty weights added to the running risk score.
const (
	WeightCounterfeitLabel   = 0.6
	WeightLowAuthenticity    = 0.4
	WeightVisualFailure      = 0.2
	WeightMissingImage       = 0.3
	WeightKeywords           = 0.4
	WeightTextIndicator      = 0.2
	WeightTextFailure        = 0.2
	WeightPriceAnomaly       = 0.4
	WeightCategoryMismatch   = 0.3
	WeightSuspiciousBrand    = 0.5
	WeightShortDescription   = 0.1
	lowAuthenticityThreshold = 0.7
	genuineThreshold         = 0.9
	suspiciousTextLabel      = "LABEL_1"
	suspiciousTextConfidence = 0.75
	criticalRecommendScore   = 0.6
)

const (
	neutralVisualScore = 0.5
	missingImageScore  = 0.3
	neutralTextScore   = 0.5
)

type Submission struct {
	Brand        string
	Title        string
	Description  string
	BulletPoints []string
	Price        decimal.Decimal
	Category     string
}

// Text is the combined listing text the keyword scan and text scorer see.
func (s Submission) Text() string {
	return strings.TrimSpace(s.Title + " " + s.Description + " " + strings.Join(s.BulletPoints, " "))
}

type VisualStatus string

const (
	VisualScored  VisualStatus = "scored"
	VisualFailed  VisualStatus = "failed"
	VisualMissing VisualStatus = "missing"
)

type VisualOutcome struct {
	Status          VisualStatus
	Score           float64
	Label           string
	Error           string
	SimilarityCheck string
}

// ScoredVisual wraps a provider result, deriving the label from the score when
// the provider did not supply one.
func ScoredVisual(r providers.VisualResult) VisualOutcome {
	label := r.Label
	if label == "" {
		label = "Fake"
		if r.AuthenticityScore >= genuineThreshold {
			label = "Genuine"
		}
	}
	return VisualOutcome{Status: VisualScored, Score: r.AuthenticityScore, Label: label}
}

// NeutralVisual is the substitute used when the visual scorer fails.
func NeutralVisual(err error) VisualOutcome {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return VisualOutcome{Status: VisualFailed, Score: neutralVisualScore, Label: "Unknown", Error: msg}
}

func MissingVisual() VisualOutcome {
	return VisualOutcome{Status: VisualMissing, Score: missingImageScore, Label: "No Image", Error: "No image provided for analysis"}
}

type TextStatus string

const (
	TextScored      TextStatus = "scored"
	TextFailed      TextStatus = "failed"
	TextUnavailable TextStatus = "unavailable"
)

type TextOutcome struct {
	Status     TextStatus
	Label      string
	Confidence float64
	Error      string
}

func ScoredText(r providers.TextResult) TextOutcome {
	return TextOutcome{Status: TextScored, Label: r.Label, Confidence: r.Confidence}
}

func NeutralText(err error) TextOutcome {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return TextOutcome{Status: TextFailed, Label: "Unknown", Confidence: neutralTextScore, Error: msg}
}

func UnavailableText() TextOutcome {
	return TextOutcome{Status: TextUnavailable, Confidence: neutralTextScore}
}

type Assessment struct {
	RiskScore       float64              `json:"risk_score"`
	RiskLevel       Level                `json:"risk_level"`
	Findings        []heuristics.Finding `json:"findings"`
	ProviderOutputs map[string]any       `json:"provider_outputs"`
	Recommendations []string             `json:"recommendations"`
}

type accumulator struct {
	score    float64
	findings []heuristics.Finding
}

func (a *accumulator) add(f heuristics.Finding, weight float64) {
	a.findings = append(a.findings, f)
	a.score += weight
}

// Assess is pure: identical inputs give an identical Assessment. The score is
// an unbounded sum of weights.
func Assess(sub Submission, visual VisualOutcome, text TextOutcome) Assessment {
	var acc accumulator

	switch visual.Status {
	case VisualScored:
		if l := strings.ToLower(visual.Label); l == "fake" || l == "counterfeit" {
			acc.add(heuristics.Finding{
				Type:     heuristics.TypeMLAnalysis,
				Severity: heuristics.SeverityCritical,
				Message:  fmt.Sprintf("ML model detected counterfeit: Score %.4f", visual.Score),
			}, WeightCounterfeitLabel)
		}
		if visual.Score < lowAuthenticityThreshold {
			acc.add(heuristics.Finding{
				Type:     heuristics.TypeMLAnalysis,
				Severity: heuristics.SeverityHigh,
				Message:  fmt.Sprintf("Low ML authenticity score: %.4f", visual.Score),
			}, WeightLowAuthenticity)
		}
	case VisualFailed:
		acc.add(heuristics.Finding{
			Type:     heuristics.TypeMLAnalysis,
			Severity: heuristics.SeverityMedium,
			Message:  fmt.Sprintf("Image authenticity analysis unavailable (%s); neutral score %.1f used", visual.Error, visual.Score),
		}, WeightVisualFailure)
	default:
		acc.add(heuristics.Finding{
			Type:     heuristics.TypeMLAnalysis,
			Severity: heuristics.SeverityMedium,
			Message:  "No product image provided for authenticity analysis",
		}, WeightMissingImage)
	}

	combined := sub.Text()
	keywordFinding, keywords := heuristics.CheckKeywords(combined)
	if keywordFinding != nil {
		acc.add(*keywordFinding, WeightKeywords)
	}

	indicators := heuristics.TextIndicators(sub.Brand, sub.Title, combined)
	if text.Status == TextScored && text.Label == suspiciousTextLabel && text.Confidence > suspiciousTextConfidence {
		indicators = append(indicators, fmt.Sprintf("ML model detected suspicious text content (score: %.4f)", text.Confidence))
	}
	for _, ind := range indicators {
		acc.add(heuristics.Finding{Type: heuristics.TypeText, Severity: heuristics.SeverityHigh, Message: ind}, WeightTextIndicator)
	}
	if text.Status == TextFailed {
		acc.add(heuristics.Finding{
			Type:     heuristics.TypeMLAnalysis,
			Severity: heuristics.SeverityMedium,
			Message:  fmt.Sprintf("Text authenticity analysis unavailable (%s)", text.Error),
		}, WeightTextFailure)
	}

	priceFinding := heuristics.CheckPrice(sub.Price, sub.Category)
	if priceFinding != nil {
		acc.add(*priceFinding, WeightPriceAnomaly)
	}
	categoryFinding := heuristics.CheckCategoryRelevance(sub.Category, sub.Title, sub.Description)
	if categoryFinding != nil {
		acc.add(*categoryFinding, WeightCategoryMismatch)
	}
	brandFinding := heuristics.CheckBrand(sub.Brand)
	if brandFinding != nil {
		acc.add(*brandFinding, WeightSuspiciousBrand)
	}
	descFinding := heuristics.CheckDescription(sub.Description)
	if descFinding != nil {
		acc.add(*descFinding, WeightShortDescription)
	}

	a := Assessment{
		RiskScore:       acc.score,
		RiskLevel:       LevelFor(acc.score),
		Findings:        acc.findings,
		ProviderOutputs: providerOutputs(sub, visual, text, keywords),
		Recommendations: []string{},
	}
	if a.Findings == nil {
		a.Findings = []heuristics.Finding{}
	}

	if a.RiskScore > criticalRecommendScore {
		a.Recommendations = append(a.Recommendations, "CRITICAL: Manual review required before listing activation")
	}
	if visual.Status == VisualScored {
		if visual.Score < lowAuthenticityThreshold {
			a.Recommendations = append(a.Recommendations, fmt.Sprintf("ML model detected potential counterfeit (score: %.4f)", visual.Score))
		}
		if visual.SimilarityCheck != "" {
			a.Recommendations = append(a.Recommendations, "Brand similarity check: "+visual.SimilarityCheck)
		}
	}
	if keywordFinding != nil {
		a.Recommendations = append(a.Recommendations, "Remove counterfeit keywords from description")
	}
	if priceFinding != nil {
		a.Recommendations = append(a.Recommendations, "Verify pricing accuracy - suspicious price")
	}
	if brandFinding != nil {
		a.Recommendations = append(a.Recommendations, "Brand name appears suspicious - verify authenticity")
	}
	if categoryFinding != nil {
		a.Recommendations = append(a.Recommendations, "Confirm the listing category matches the product")
	}
	if descFinding != nil {
		a.Recommendations = append(a.Recommendations, "Expand the product description with accurate details")
	}
	return a
}

func providerOutputs(sub Submission, visual VisualOutcome, text TextOutcome, keywords []string) map[string]any {
	v := map[string]any{
		"status":             string(visual.Status),
		"authenticity_score": visual.Score,
		"predicted_label":    visual.Label,
		"ml_model_used":      visual.Status == VisualScored,
	}
	if visual.Error != "" {
		v["error"] = visual.Error
	}
	if visual.SimilarityCheck != "" {
		v["similarity_check"] = visual.SimilarityCheck
	} else {
		v["similarity_check"] = "not_applicable"
	}

	t := map[string]any{
		"status":     string(text.Status),
		"confidence": text.Confidence,
	}
	if text.Label != "" {
		t["label"] = text.Label
	}
	if text.Error != "" {
		t["error"] = text.Error
	}

	if keywords == nil {
		keywords = []string{}
	}
	return map[string]any{
		"visual":                   v,
		"text":                     t,
		"suspicious_keywords":      keywords,
		"price_range":              heuristics.MatchPriceRange(sub.Category).Key,
		"brand_authenticity_score": visual.Score,
	}
}

func validScore(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

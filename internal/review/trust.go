// Package review scores how trustworthy a product review is.
package review

import (
	"math"
	"strings"
)

type Badge string

const (
	BadgeHigh   Badge = "High Trust Review"
	BadgeMedium Badge = "Medium Trust Review"
	BadgeLow    Badge = "Low Trust Review"
)

const (
	textWeight          = 0.7
	imageWeight         = 0.3
	unverifiedPenalty   = 10.0
	fakeFiveStarPenalty = 10.0
	fakeFiveStarText    = 90.0
	indicatorPenalty    = 15.0
	flagTrustBelow      = 50.0
	highSeverityBelow   = 30.0
	irrelevantFrom      = 0.5
)

// FakeIndicators lower the text score by a fixed amount per phrase found.
var FakeIndicators = []string{"fake", "counterfeit", "not authentic", "not as described", "scam"}

// TextScore turns a 1-5 star sentiment estimate into a 0-100 score, less a
// penalty for each fake indicator in the text.
func TextScore(stars int, text string) float64 {
	lower := strings.ToLower(text)
	hits := 0
	for _, ind := range FakeIndicators {
		if strings.Contains(lower, ind) {
			hits++
		}
	}
	return math.Max(0, float64(stars)*20-float64(hits)*indicatorPenalty)
}

// ImageScore scales a cosine similarity to 0-100 with two decimals.
func ImageScore(similarity float64) float64 {
	return round2(similarity * 100)
}

// Signals are the inputs of the trust blend. ImageScore is nil when no image
// comparison took place.
type Signals struct {
	TextScore  float64
	ImageScore *float64
	Verified   bool
	Rating     int
}

// Combine blends the signals into a trust score in [0,100] rounded to two
// decimals.
func Combine(s Signals) float64 {
	trust := s.TextScore
	if s.ImageScore != nil {
		trust = textWeight*s.TextScore + imageWeight*(*s.ImageScore)
	}
	if !s.Verified {
		trust -= unverifiedPenalty
		if s.Rating == 5 && s.TextScore >= fakeFiveStarText {
			trust -= fakeFiveStarPenalty
		}
	}
	return round2(math.Max(0, math.Min(100, trust)))
}

func BadgeFor(trust float64) Badge {
	switch {
	case trust >= 80:
		return BadgeHigh
	case trust >= 60:
		return BadgeMedium
	default:
		return BadgeLow
	}
}

// NeedsFlag reports whether a review with this outcome goes to human review.
func NeedsFlag(trust float64, badge Badge) bool {
	return trust < flagTrustBelow || badge == BadgeLow
}

func RelevanceCheck(irrelevance float64) string {
	if irrelevance < irrelevantFrom {
		return "relevant"
	}
	return "possibly irrelevant"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

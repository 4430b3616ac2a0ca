// Package heuristics holds the deterministic listing checks. Each check is a
// pure function that returns at most one Finding; weighting is left to the
// caller.
package heuristics

type FindingType string

const (
	TypeText        FindingType = "text"
	TypePricing     FindingType = "pricing"
	TypeCategory    FindingType = "category"
	TypeBrand       FindingType = "brand"
	TypeDescription FindingType = "description"
	TypeMLAnalysis  FindingType = "ml_analysis"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities by ascending risk weight. Unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Finding is a single observation produced during one assessment pass.
type Finding struct {
	Type     FindingType `json:"type"`
	Severity Severity    `json:"severity"`
	Message  string      `json:"message"`
}

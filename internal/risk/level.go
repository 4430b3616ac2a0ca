package risk

import "github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/flags"

type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// LevelFor maps a risk score onto a level. It is monotonic and total; scores
// above 1 stay critical.
func LevelFor(score float64) Level {
	switch {
	case score < 0.4:
		return LevelLow
	case score < 0.6:
		return LevelMedium
	case score < 0.8:
		return LevelHigh
	default:
		return LevelCritical
	}
}

func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	case LevelCritical:
		return 4
	}
	return 0
}

// Flagged reports whether an assessment at this level needs a review flag.
func (l Level) Flagged() bool {
	return l.Rank() >= LevelMedium.Rank()
}

func (l Level) FlagSeverity() flags.Severity {
	switch l {
	case LevelCritical:
		return flags.SeverityCritical
	case LevelHigh:
		return flags.SeverityHigh
	default:
		return flags.SeverityMedium
	}
}

// Package flags stores records that need human review and explains them on
// demand.
package flags

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrFlagNotFound = errors.New("flag not found")

type Severity string

const (
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

type Status string

const (
	StatusOpen     Status = "Open"
	StatusResolved Status = "Resolved"
)

type EvidenceItem struct {
	Type     string `json:"type"`
	Detail   string `json:"detail"`
	Severity string `json:"severity,omitempty"`
}

// Flag is immutable once stored, except for the AI analysis attached by Enrich.
type Flag struct {
	ID            uuid.UUID      `json:"id"`
	Title         string         `json:"title"`
	Severity      Severity       `json:"severity"`
	Status        Status         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	RiskCategory  string         `json:"risk"`
	Category      string         `json:"category"`
	Evidence      []EvidenceItem `json:"evidence"`
	AISummary     string         `json:"ai_summary"`
	AIAnalysis    string         `json:"ai_analysis,omitempty"`
	OriginPayload map[string]any `json:"origin_payload,omitempty"`
}

// NewFlag carries the caller-supplied part of a flag.
type NewFlag struct {
	Title         string
	Severity      Severity
	RiskCategory  string
	Category      string
	Evidence      []EvidenceItem
	AISummary     string
	OriginPayload map[string]any
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FlagRecord is the persisted form of a review flag. Seq preserves
// insertion order for flags created within the same clock tick.
type FlagRecord struct {
	Seq           uint64         `gorm:"primaryKey;autoIncrement" json:"-"`
	ID            uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	Title         string         `gorm:"size:255;not null" json:"title"`
	Severity      string         `gorm:"size:20;not null;index" json:"severity"`
	Status        string         `gorm:"size:20;not null;default:'Open'" json:"status"`
	RiskCategory  string         `gorm:"size:100" json:"risk"`
	Category      string         `gorm:"size:100;index" json:"category"`
	Evidence      datatypes.JSON `json:"evidence"`
	AISummary     string         `gorm:"type:text" json:"ai_summary"`
	AIAnalysis    string         `gorm:"type:text" json:"ai_analysis"`
	OriginPayload datatypes.JSON `json:"origin_payload"`
	CreatedAt     time.Time      `gorm:"not null;index" json:"created_at"`
}

func (FlagRecord) TableName() string { return "flags" }

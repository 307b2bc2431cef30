package database

import (
	"time"

	"github.com/akmatori/incident-analyst/internal/models"
)

// IncidentStatus represents the status of an incident
type IncidentStatus string

const (
	IncidentStatusOpen     IncidentStatus = "open"
	IncidentStatusResolved IncidentStatus = "resolved"
)

// IsValid reports whether s is a known status
func (s IncidentStatus) IsValid() bool {
	return s == IncidentStatusOpen || s == IncidentStatusResolved
}

// AttemptedFix is one entry of an incident's append-only fix history
type AttemptedFix struct {
	FixDescription string    `json:"fix_description"`
	AppliedAt      time.Time `json:"applied_at"`
	NewLogs        string    `json:"new_logs,omitempty"`
}

// Incident is a reported operational problem with its analysis and fix history.
// The whole record lives in one row so readers never observe a partial write.
type Incident struct {
	ID              uint            `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Logs            string          `gorm:"type:text;not null" json:"logs"`
	Metrics         string          `gorm:"type:text" json:"metrics"`
	Status          IncidentStatus  `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	Analysis        models.Analysis `gorm:"type:text;serializer:json" json:"analysis"`
	AnalysisSource  string          `gorm:"type:varchar(100)" json:"analysis_source"` // "classifier" or "adapter:<name>"
	AttemptedFixes  []AttemptedFix  `gorm:"type:text;serializer:json" json:"attempted_fixes"`
	ResolutionNotes string          `gorm:"type:text" json:"resolution_notes"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// IsResolved returns true once the incident reached its terminal state
func (i *Incident) IsResolved() bool {
	return i.Status == IncidentStatusResolved
}

// IncidentSequence hands out incident ids. Ids come from this row rather than
// the table's max id so they are never reused after a delete.
type IncidentSequence struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value uint   `gorm:"not null"`
}

func (Incident) TableName() string {
	return "incidents"
}

func (IncidentSequence) TableName() string {
	return "incident_sequences"
}

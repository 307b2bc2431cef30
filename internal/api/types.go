package api

import (
	"time"

	"github.com/akmatori/incident-analyst/internal/database"
	"github.com/akmatori/incident-analyst/internal/models"
)

// ========== Requests ==========

// SubmitIncidentRequest is the request body for POST /incident.
type SubmitIncidentRequest struct {
	Logs    string `json:"logs" validate:"notblank"`
	Metrics string `json:"metrics"`
}

// ActionRequest is the request body for POST /action.
type ActionRequest struct {
	IncidentID uint   `json:"incident_id" validate:"gt=0"`
	FixApplied string `json:"fix_applied" validate:"notblank"`
	NewLogs    string `json:"new_logs"`
}

// ResolveRequest is the request body for POST /resolve.
type ResolveRequest struct {
	IncidentID      uint   `json:"incident_id" validate:"gt=0"`
	ResolutionNotes string `json:"resolution_notes"`
}

// ========== Responses ==========

// IncidentResponse is returned by POST /incident.
type IncidentResponse struct {
	IncidentID          uint                     `json:"incident_id"`
	Status              database.IncidentStatus  `json:"status"`
	SuspectedRootCauses []string                 `json:"suspected_root_causes"`
	SuggestedFix        string                   `json:"suggested_fix"`
	Confidence          models.Confidence        `json:"confidence"`
	Explanation         string                   `json:"explanation"`
	SimilarIncidents    []models.SimilarIncident `json:"similar_incidents"`
	AttemptedFixes      []database.AttemptedFix  `json:"attempted_fixes"`
	PoweredBy           string                   `json:"powered_by"`
}

// IncidentDetailResponse is returned by GET /incidents/{id}.
type IncidentDetailResponse struct {
	IncidentResponse
	Logs            string     `json:"logs"`
	Metrics         string     `json:"metrics"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// ActionResponse is returned by POST /action.
type ActionResponse struct {
	IncidentID     uint                    `json:"incident_id"`
	Status         database.IncidentStatus `json:"status"`
	Evaluation     models.Evaluation       `json:"evaluation"`
	NextSuggestion *models.Analysis        `json:"next_suggestion,omitempty"`
	PoweredBy      string                  `json:"powered_by,omitempty"`
}

// ResolveResponse is returned by POST /resolve.
type ResolveResponse struct {
	IncidentID uint                    `json:"incident_id"`
	Status     database.IncidentStatus `json:"status"`
	ResolvedAt *time.Time              `json:"resolved_at,omitempty"`
	Message    string                  `json:"message"`
}

// IncidentListItem is the compact representation used by GET /incidents.
// Logs are cut to a preview and fix history is reduced to a count.
type IncidentListItem struct {
	ID                  uint                    `json:"id"`
	Status              database.IncidentStatus `json:"status"`
	LogsPreview         string                  `json:"logs_preview"`
	SuspectedRootCauses []string                `json:"suspected_root_causes"`
	Confidence          models.Confidence       `json:"confidence,omitempty"`
	AttemptedFixCount   int                     `json:"attempted_fix_count"`
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
	ResolvedAt          *time.Time              `json:"resolved_at,omitempty"`
}

// IncidentListResponse is returned by GET /incidents.
type IncidentListResponse struct {
	Incidents  []IncidentListItem `json:"incidents"`
	Pagination Pagination         `json:"pagination"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Reasoning string `json:"reasoning"`
}

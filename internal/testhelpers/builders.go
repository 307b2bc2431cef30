package testhelpers

import (
	"time"

	"github.com/akmatori/incident-analyst/internal/database"
	"github.com/akmatori/incident-analyst/internal/models"
)

// ========================================
// Incident Builder
// ========================================

// IncidentBuilder builds Incident records for testing
type IncidentBuilder struct {
	incident database.Incident
}

// NewIncidentBuilder creates a new open incident with defaults
func NewIncidentBuilder() *IncidentBuilder {
	now := time.Now().UTC()
	return &IncidentBuilder{
		incident: database.Incident{
			ID:             1,
			Logs:           "[ERROR] test failure",
			Status:         database.IncidentStatusOpen,
			AttemptedFixes: []database.AttemptedFix{},
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

// WithID sets the incident ID
func (b *IncidentBuilder) WithID(id uint) *IncidentBuilder {
	b.incident.ID = id
	return b
}

// WithLogs sets the submitted logs
func (b *IncidentBuilder) WithLogs(logs string) *IncidentBuilder {
	b.incident.Logs = logs
	return b
}

// WithMetrics sets the submitted metrics
func (b *IncidentBuilder) WithMetrics(metrics string) *IncidentBuilder {
	b.incident.Metrics = metrics
	return b
}

// WithAnalysis sets the stored analysis and its source
func (b *IncidentBuilder) WithAnalysis(analysis models.Analysis, source string) *IncidentBuilder {
	b.incident.Analysis = analysis
	b.incident.AnalysisSource = source
	return b
}

// WithFix appends an attempted fix
func (b *IncidentBuilder) WithFix(description, newLogs string) *IncidentBuilder {
	b.incident.AttemptedFixes = append(b.incident.AttemptedFixes, database.AttemptedFix{
		FixDescription: description,
		AppliedAt:      b.incident.UpdatedAt,
		NewLogs:        newLogs,
	})
	return b
}

// Resolved marks the incident resolved with notes
func (b *IncidentBuilder) Resolved(notes string) *IncidentBuilder {
	at := b.incident.UpdatedAt
	b.incident.Status = database.IncidentStatusResolved
	b.incident.ResolutionNotes = notes
	b.incident.ResolvedAt = &at
	return b
}

// Build returns the constructed incident
func (b *IncidentBuilder) Build() database.Incident {
	out := b.incident
	out.Analysis = b.incident.Analysis.Clone()
	out.AttemptedFixes = append([]database.AttemptedFix(nil), b.incident.AttemptedFixes...)
	return out
}

// ========================================
// Analysis Builder
// ========================================

// AnalysisBuilder builds Analysis values for testing
type AnalysisBuilder struct {
	analysis models.Analysis
}

// NewAnalysisBuilder creates a medium-confidence analysis with one cause
func NewAnalysisBuilder() *AnalysisBuilder {
	return &AnalysisBuilder{
		analysis: models.Analysis{
			SuspectedRootCauses: []string{"Test cause"},
			SuggestedFix:        "Test fix",
			Confidence:          models.ConfidenceMedium,
			Explanation:         "Test explanation",
		},
	}
}

// WithCauses replaces the suspected root causes
func (b *AnalysisBuilder) WithCauses(causes ...string) *AnalysisBuilder {
	b.analysis.SuspectedRootCauses = causes
	return b
}

// WithFix sets the suggested fix
func (b *AnalysisBuilder) WithFix(fix string) *AnalysisBuilder {
	b.analysis.SuggestedFix = fix
	return b
}

// WithConfidence sets the confidence
func (b *AnalysisBuilder) WithConfidence(c models.Confidence) *AnalysisBuilder {
	b.analysis.Confidence = c
	return b
}

// WithExplanation sets the explanation
func (b *AnalysisBuilder) WithExplanation(explanation string) *AnalysisBuilder {
	b.analysis.Explanation = explanation
	return b
}

// Build returns the constructed analysis
func (b *AnalysisBuilder) Build() models.Analysis {
	return b.analysis.Clone()
}

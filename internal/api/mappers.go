package api

import (
	"github.com/akmatori/incident-analyst/internal/database"
	"github.com/akmatori/incident-analyst/internal/models"
	"github.com/akmatori/incident-analyst/internal/services"
	"github.com/akmatori/incident-analyst/internal/similarity"
)

const listLogsPreview = 200

// SubmitResultToResponse converts a submit outcome to its wire form.
func SubmitResultToResponse(r *services.SubmitResult) IncidentResponse {
	similar := r.Similar
	if similar == nil {
		similar = []models.SimilarIncident{}
	}
	fixes := r.Incident.AttemptedFixes
	if fixes == nil {
		fixes = []database.AttemptedFix{}
	}
	return IncidentResponse{
		IncidentID:          r.Incident.ID,
		Status:              r.Incident.Status,
		SuspectedRootCauses: r.Analysis.SuspectedRootCauses,
		SuggestedFix:        r.Analysis.SuggestedFix,
		Confidence:          r.Analysis.Confidence,
		Explanation:         r.Analysis.Explanation,
		SimilarIncidents:    similar,
		AttemptedFixes:      fixes,
		PoweredBy:           r.Source,
	}
}

// IncidentToDetailResponse converts a stored incident to its full wire form.
// Similar incidents are not recomputed for reads.
func IncidentToDetailResponse(i *database.Incident) IncidentDetailResponse {
	fixes := i.AttemptedFixes
	if fixes == nil {
		fixes = []database.AttemptedFix{}
	}
	return IncidentDetailResponse{
		IncidentResponse: IncidentResponse{
			IncidentID:          i.ID,
			Status:              i.Status,
			SuspectedRootCauses: i.Analysis.SuspectedRootCauses,
			SuggestedFix:        i.Analysis.SuggestedFix,
			Confidence:          i.Analysis.Confidence,
			Explanation:         i.Analysis.Explanation,
			SimilarIncidents:    []models.SimilarIncident{},
			AttemptedFixes:      fixes,
			PoweredBy:           i.AnalysisSource,
		},
		Logs:            i.Logs,
		Metrics:         i.Metrics,
		ResolutionNotes: i.ResolutionNotes,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
		ResolvedAt:      i.ResolvedAt,
	}
}

// ApplyFixResultToResponse converts an apply-fix outcome to its wire form.
func ApplyFixResultToResponse(r *services.ApplyFixResult) ActionResponse {
	resp := ActionResponse{
		IncidentID:     r.Incident.ID,
		Status:         r.Incident.Status,
		Evaluation:     r.Evaluation,
		NextSuggestion: r.NextSuggestion,
	}
	if resp.Evaluation.RemainingConcerns == nil {
		resp.Evaluation.RemainingConcerns = []string{}
	}
	if r.NextSuggestion != nil {
		resp.PoweredBy = r.Source
	}
	return resp
}

// IncidentToResolveResponse converts a resolved incident to its wire form.
func IncidentToResolveResponse(i *database.Incident) ResolveResponse {
	return ResolveResponse{
		IncidentID: i.ID,
		Status:     i.Status,
		ResolvedAt: i.ResolvedAt,
		Message:    "Incident resolved and stored in memory for future reference",
	}
}

// IncidentToListItem converts a database Incident to a compact list representation.
// It omits the full logs and fix history to reduce response size.
func IncidentToListItem(i database.Incident) IncidentListItem {
	causes := i.Analysis.SuspectedRootCauses
	if causes == nil {
		causes = []string{}
	}
	return IncidentListItem{
		ID:                  i.ID,
		Status:              i.Status,
		LogsPreview:         similarity.Preview(i.Logs, listLogsPreview),
		SuspectedRootCauses: causes,
		Confidence:          i.Analysis.Confidence,
		AttemptedFixCount:   len(i.AttemptedFixes),
		CreatedAt:           i.CreatedAt,
		UpdatedAt:           i.UpdatedAt,
		ResolvedAt:          i.ResolvedAt,
	}
}

// IncidentsToListItems converts a slice of database Incidents to list items.
func IncidentsToListItems(incidents []database.Incident) []IncidentListItem {
	items := make([]IncidentListItem, len(incidents))
	for i, inc := range incidents {
		items[i] = IncidentToListItem(inc)
	}
	return items
}

// Package reasoning selects the analysis source for an incident: an optional
// external reasoning adapter, or the deterministic classifier when the adapter
// is absent, throttled, slow or wrong.
package reasoning

import (
	"context"
	"errors"

	"github.com/akmatori/incident-analyst/internal/models"
)

var (
	// ErrAdapter wraps any failure reported by an external reasoning service
	ErrAdapter = errors.New("reasoning adapter failed")
	// ErrInvalidResponse marks an answer that does not contain a usable analysis
	ErrInvalidResponse = errors.New("invalid reasoning response")
	// ErrRateLimited is returned when the local call budget is exhausted
	ErrRateLimited = errors.New("reasoning adapter rate limited")
)

// Request is everything an analysis source may use
type Request struct {
	// IncidentID is only used for logging
	IncidentID     uint
	Logs           string
	Metrics        string
	Similar        []models.SimilarIncident
	AttemptedFixes []string
}

// Adapter is an external reasoning service returning the same analysis shape
// as the classifier. Any error is treated exactly like an absent adapter.
type Adapter interface {
	Name() string
	Analyze(ctx context.Context, req Request) (models.Analysis, error)
}

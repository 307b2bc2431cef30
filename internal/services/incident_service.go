package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akmatori/incident-analyst/internal/classifier"
	"github.com/akmatori/incident-analyst/internal/database"
	"github.com/akmatori/incident-analyst/internal/metrics"
	"github.com/akmatori/incident-analyst/internal/models"
	"github.com/akmatori/incident-analyst/internal/reasoning"
	"github.com/akmatori/incident-analyst/internal/similarity"
)

const (
	// RecommendationResolve is returned when the latest signal looks clean
	RecommendationResolve = "mark resolved"
	// RecommendationContinue prefixes the next fix when errors remain
	RecommendationContinue = "continue investigating"

	notifyTimeout = 10 * time.Second
)

// Notifier delivers lifecycle events to an outside channel such as chat
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// SubmitResult is the outcome of Submit
type SubmitResult struct {
	Incident *database.Incident
	Analysis models.Analysis
	Source   string
	Similar  []models.SimilarIncident
}

// ApplyFixResult is the outcome of ApplyFix. NextSuggestion is nil when no
// new logs were supplied.
type ApplyFixResult struct {
	Incident       *database.Incident
	Evaluation     models.Evaluation
	NextSuggestion *models.Analysis
	Source         string
}

// IncidentService drives incidents through submit, apply-fix and resolve.
// Operations run to completion once started: the caller's cancellation is
// not propagated to the store or the analyzer.
type IncidentService struct {
	store     *database.IncidentStore
	retriever *similarity.Retriever
	analyzer  *reasoning.Analyzer
	events    *EventHub
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// IncidentServiceOption configures an IncidentService
type IncidentServiceOption func(*IncidentService)

// WithEventHub publishes lifecycle events to hub
func WithEventHub(hub *EventHub) IncidentServiceOption {
	return func(s *IncidentService) {
		s.events = hub
	}
}

// WithNotifier sends lifecycle events to n in the background
func WithNotifier(n Notifier) IncidentServiceOption {
	return func(s *IncidentService) {
		s.notifier = n
	}
}

// WithServiceMetrics counts lifecycle operations
func WithServiceMetrics(m *metrics.Metrics) IncidentServiceOption {
	return func(s *IncidentService) {
		s.metrics = m
	}
}

// WithServiceLogger sets the service logger
func WithServiceLogger(logger *zap.Logger) IncidentServiceOption {
	return func(s *IncidentService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewIncidentService creates a new IncidentService
func NewIncidentService(store *database.IncidentStore, retriever *similarity.Retriever, analyzer *reasoning.Analyzer, opts ...IncidentServiceOption) *IncidentService {
	s := &IncidentService{
		store:     store,
		retriever: retriever,
		analyzer:  analyzer,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit records a new incident, retrieves similar resolved incidents and
// attaches an analysis. Only store failures are returned.
func (s *IncidentService) Submit(ctx context.Context, logs, metricsText string) (result *SubmitResult, err error) {
	ctx = context.WithoutCancel(ctx)
	defer func() { s.metrics.ObserveOperation("submit", err) }()

	if strings.TrimSpace(logs) == "" {
		return nil, fmt.Errorf("%w: logs must not be empty", database.ErrValidation)
	}

	similar, err := s.retriever.FindSimilar(ctx, logs)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar incidents: %w", err)
	}

	incident, err := s.store.Create(ctx, logs, metricsText)
	if err != nil {
		return nil, err
	}

	analysis := s.analyzer.Analyze(ctx, reasoning.Request{
		IncidentID: incident.ID,
		Logs:       logs,
		Metrics:    metricsText,
		Similar:    similar,
	})

	incident, err = s.store.UpdateAnalysis(ctx, incident.ID, analysis.Analysis, analysis.Source)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Incident submitted",
		zap.Uint("incident_id", incident.ID),
		zap.String("source", analysis.Source),
		zap.String("confidence", string(analysis.Analysis.Confidence)),
		zap.Int("similar", len(similar)))

	s.emit(Event{
		Type:         EventSubmitted,
		IncidentID:   incident.ID,
		Status:       string(incident.Status),
		RootCauses:   analysis.Analysis.SuspectedRootCauses,
		Confidence:   analysis.Analysis.Confidence,
		SuggestedFix: analysis.Analysis.SuggestedFix,
		Source:       analysis.Source,
		SimilarCount: len(similar),
	})

	return &SubmitResult{
		Incident: incident,
		Analysis: analysis.Analysis,
		Source:   analysis.Source,
		Similar:  similar,
	}, nil
}

// ApplyFix appends a fix attempt and evaluates whether the incident looks
// resolved. With new logs the incident is re-analyzed and the new analysis
// replaces the stored one.
func (s *IncidentService) ApplyFix(ctx context.Context, id uint, fixDescription, newLogs string) (result *ApplyFixResult, err error) {
	ctx = context.WithoutCancel(ctx)
	defer func() { s.metrics.ObserveOperation("apply_fix", err) }()

	incident, err := s.store.AppendFix(ctx, id, fixDescription, newLogs)
	if err != nil {
		return nil, err
	}

	result = &ApplyFixResult{Incident: incident, Source: incident.AnalysisSource}
	hasNewLogs := strings.TrimSpace(newLogs) != ""

	if hasNewLogs {
		similar, err := s.retriever.FindSimilar(ctx, newLogs)
		if err != nil {
			return nil, fmt.Errorf("failed to find similar incidents: %w", err)
		}

		next := s.analyzer.Analyze(ctx, reasoning.Request{
			IncidentID:     id,
			Logs:           newLogs,
			Similar:        similar,
			AttemptedFixes: fixDescriptions(incident.AttemptedFixes),
		})
		result.NextSuggestion = &next.Analysis
		result.Source = next.Source

		updated, err := s.store.UpdateAnalysis(ctx, id, next.Analysis, next.Source)
		switch {
		case err == nil:
			result.Incident = updated
		case errors.Is(err, database.ErrConflict):
			s.logger.Info("Incident resolved during fix evaluation, keeping stored analysis", zap.Uint("incident_id", id))
		default:
			return nil, err
		}
	}

	result.Evaluation = s.evaluate(incident, newLogs, result.NextSuggestion)

	s.logger.Info("Fix applied",
		zap.Uint("incident_id", id),
		zap.Int("attempts", len(incident.AttemptedFixes)),
		zap.Bool("likely_resolved", result.Evaluation.LikelyResolved))

	likely := result.Evaluation.LikelyResolved
	s.emit(Event{
		Type:           EventFixApplied,
		IncidentID:     id,
		Status:         string(result.Incident.Status),
		FixDescription: fixDescription,
		LikelyResolved: &likely,
	})

	return result, nil
}

// evaluate classifies the latest signal. New logs replace the original
// metrics as evidence; without them the stored logs and metrics are used.
func (s *IncidentService) evaluate(incident *database.Incident, newLogs string, next *models.Analysis) models.Evaluation {
	logs, metricsText := incident.Logs, incident.Metrics
	if strings.TrimSpace(newLogs) != "" {
		logs, metricsText = newLogs, ""
	}

	matches := s.analyzer.Classifier().Match(logs, metricsText)
	concerns := make([]string, 0, len(matches))
	for _, m := range matches {
		concerns = append(concerns, m.Label)
	}

	if len(matches) == 0 {
		return models.Evaluation{
			LikelyResolved:    true,
			RemainingConcerns: concerns,
			NextSteps:         "Monitor for recurrence, then resolve the incident with notes on what fixed it",
			Recommendation:    RecommendationResolve,
		}
	}

	fix := incident.Analysis.SuggestedFix
	if next != nil {
		fix = next.SuggestedFix
	}
	if fix == "" {
		fix = classifier.Unrecognized().SuggestedFix
	}
	return models.Evaluation{
		LikelyResolved:    false,
		RemainingConcerns: concerns,
		NextSteps:         fix,
		Recommendation:    RecommendationContinue + ": " + fix,
	}
}

// Resolve closes the incident and makes it available as a similarity source
func (s *IncidentService) Resolve(ctx context.Context, id uint, resolutionNotes string) (incident *database.Incident, err error) {
	ctx = context.WithoutCancel(ctx)
	defer func() { s.metrics.ObserveOperation("resolve", err) }()

	incident, err = s.store.Resolve(ctx, id, resolutionNotes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Incident resolved", zap.Uint("incident_id", id))

	s.emit(Event{
		Type:            EventResolved,
		IncidentID:      id,
		Status:          string(incident.Status),
		RootCauses:      incident.Analysis.SuspectedRootCauses,
		ResolutionNotes: resolutionNotes,
	})
	return incident, nil
}

// Get returns a single incident
func (s *IncidentService) Get(ctx context.Context, id uint) (*database.Incident, error) {
	return s.store.Get(ctx, id)
}

// List returns incidents matching filter ordered by id
func (s *IncidentService) List(ctx context.Context, filter database.ListFilter) ([]database.Incident, error) {
	return s.store.List(ctx, filter)
}

// Count returns the number of incidents matching filter
func (s *IncidentService) Count(ctx context.Context, filter database.ListFilter) (int64, error) {
	return s.store.Count(ctx, filter)
}

// Delete removes an incident. Its id is never reissued.
func (s *IncidentService) Delete(ctx context.Context, id uint) error {
	if err := s.store.Delete(context.WithoutCancel(ctx), id); err != nil {
		return err
	}
	s.logger.Info("Incident deleted", zap.Uint("incident_id", id))
	return nil
}

// emit publishes to the hub and hands the event to the notifier in the background
func (s *IncidentService) emit(e Event) {
	e.Timestamp = time.Now().UTC()
	if e.RootCauses != nil {
		e.RootCauses = append([]string(nil), e.RootCauses...)
	}
	s.events.Publish(e)

	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, e); err != nil {
			s.logger.Warn("Failed to send incident notification",
				zap.Uint("incident_id", e.IncidentID),
				zap.String("event", string(e.Type)),
				zap.Error(err))
		}
	}()
}

func fixDescriptions(fixes []database.AttemptedFix) []string {
	out := make([]string, 0, len(fixes))
	for _, f := range fixes {
		out = append(out, f.FixDescription)
	}
	return out
}

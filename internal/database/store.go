package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/akmatori/incident-analyst/internal/models"
)

const incidentSequenceName = "incidents"

// ListFilter narrows IncidentStore.List. Zero values mean "no filter".
type ListFilter struct {
	Status IncidentStatus
	Offset int
	Limit  int
}

// IncidentStore is the durable owner of all incident records.
// Mutations on the same id are serialized; different ids proceed independently.
type IncidentStore struct {
	db       *gorm.DB
	locks    *keyedMutex
	createMu sync.Mutex
	now      func() time.Time
}

// StoreOption configures an IncidentStore
type StoreOption func(*IncidentStore)

// WithClock overrides the time source used for record timestamps
func WithClock(now func() time.Time) StoreOption {
	return func(s *IncidentStore) {
		s.now = now
	}
}

// NewIncidentStore creates a store on top of a migrated database
func NewIncidentStore(db *gorm.DB, opts ...StoreOption) *IncidentStore {
	s := &IncidentStore{
		db:    db,
		locks: newKeyedMutex(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates the next id and persists a new open incident
func (s *IncidentStore) Create(ctx context.Context, logs, metrics string) (*Incident, error) {
	if strings.TrimSpace(logs) == "" {
		return nil, fmt.Errorf("%w: logs must not be empty", ErrValidation)
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	now := s.now().UTC()
	incident := &Incident{
		Logs:           logs,
		Metrics:        metrics,
		Status:         IncidentStatusOpen,
		AttemptedFixes: []AttemptedFix{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := nextIncidentID(tx)
		if err != nil {
			return err
		}
		incident.ID = id
		return tx.Create(incident).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create incident: %w", err)
	}
	return incident, nil
}

// nextIncidentID bumps the sequence row, seeding it from the current max id on first use
func nextIncidentID(tx *gorm.DB) (uint, error) {
	res := tx.Model(&IncidentSequence{}).
		Where("name = ?", incidentSequenceName).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		var maxID uint
		if err := tx.Model(&Incident{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return 0, err
		}
		seq := IncidentSequence{Name: incidentSequenceName, Value: maxID + 1}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, err
		}
		return seq.Value, nil
	}

	var seq IncidentSequence
	if err := tx.Where("name = ?", incidentSequenceName).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

// Get returns the incident with the given id
func (s *IncidentStore) Get(ctx context.Context, id uint) (*Incident, error) {
	var incident Incident
	if err := s.db.WithContext(ctx).First(&incident, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: incident %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get incident %d: %w", id, err)
	}
	return &incident, nil
}

// List returns incidents ordered by id ascending
func (s *IncidentStore) List(ctx context.Context, filter ListFilter) ([]Incident, error) {
	query := s.filtered(ctx, filter).Order("id ASC")
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var incidents []Incident
	if err := query.Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	return incidents, nil
}

// Count returns the number of incidents matching the filter's status
func (s *IncidentStore) Count(ctx context.Context, filter ListFilter) (int64, error) {
	var total int64
	if err := s.filtered(ctx, filter).Model(&Incident{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count incidents: %w", err)
	}
	return total, nil
}

func (s *IncidentStore) filtered(ctx context.Context, filter ListFilter) *gorm.DB {
	query := s.db.WithContext(ctx)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return query
}

// UpdateAnalysis overwrites the incident's latest analysis
func (s *IncidentStore) UpdateAnalysis(ctx context.Context, id uint, analysis models.Analysis, source string) (*Incident, error) {
	return s.mutate(ctx, id, func(incident *Incident) error {
		if incident.IsResolved() {
			return fmt.Errorf("%w: incident %d is resolved", ErrConflict, id)
		}
		incident.Analysis = analysis.Clone()
		incident.AnalysisSource = source
		return nil
	})
}

// AppendFix records a fix attempt. When newLogs is non-empty it also replaces
// the incident's logs so later analysis uses the latest signal.
func (s *IncidentStore) AppendFix(ctx context.Context, id uint, fixDescription, newLogs string) (*Incident, error) {
	if strings.TrimSpace(fixDescription) == "" {
		return nil, fmt.Errorf("%w: fix description must not be empty", ErrValidation)
	}

	return s.mutate(ctx, id, func(incident *Incident) error {
		if incident.IsResolved() {
			return fmt.Errorf("%w: incident %d is already resolved", ErrConflict, id)
		}
		incident.AttemptedFixes = append(incident.AttemptedFixes, AttemptedFix{
			FixDescription: fixDescription,
			AppliedAt:      s.now().UTC(),
			NewLogs:        newLogs,
		})
		if strings.TrimSpace(newLogs) != "" {
			incident.Logs = newLogs
		}
		return nil
	})
}

// Resolve moves the incident to its terminal state
func (s *IncidentStore) Resolve(ctx context.Context, id uint, resolutionNotes string) (*Incident, error) {
	return s.mutate(ctx, id, func(incident *Incident) error {
		if incident.IsResolved() {
			return fmt.Errorf("%w: incident %d is already resolved", ErrConflict, id)
		}
		resolvedAt := s.now().UTC()
		incident.Status = IncidentStatusResolved
		incident.ResolutionNotes = resolutionNotes
		incident.ResolvedAt = &resolvedAt
		return nil
	})
}

// Delete removes the incident entirely. Its id is not handed out again.
func (s *IncidentStore) Delete(ctx context.Context, id uint) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	res := s.db.WithContext(ctx).Delete(&Incident{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete incident %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: incident %d", ErrNotFound, id)
	}
	return nil
}

// mutate runs fn against the current record under the id's lock and persists
// the result in one transaction. Nothing is written when fn fails.
func (s *IncidentStore) mutate(ctx context.Context, id uint, fn func(*Incident) error) (*Incident, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var incident Incident
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if tx.Dialector.Name() == DriverPostgres {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&incident, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: incident %d", ErrNotFound, id)
			}
			return err
		}

		if err := fn(&incident); err != nil {
			return err
		}

		incident.UpdatedAt = s.now().UTC()
		if incident.AttemptedFixes == nil {
			incident.AttemptedFixes = []AttemptedFix{}
		}
		return tx.Save(&incident).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update incident %d: %w", id, err)
	}
	return &incident, nil
}

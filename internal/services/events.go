package services

import (
	"sync"
	"time"

	"github.com/akmatori/incident-analyst/internal/models"
)

// EventType names a lifecycle transition
type EventType string

const (
	EventSubmitted  EventType = "submitted"
	EventFixApplied EventType = "fix_applied"
	EventResolved   EventType = "resolved"
)

const subscriberBuffer = 32

// Event is published after a lifecycle operation has been persisted
type Event struct {
	Type            EventType         `json:"type"`
	IncidentID      uint              `json:"incident_id"`
	Status          string            `json:"status"`
	RootCauses      []string          `json:"suspected_root_causes,omitempty"`
	Confidence      models.Confidence `json:"confidence,omitempty"`
	SuggestedFix    string            `json:"suggested_fix,omitempty"`
	Source          string            `json:"powered_by,omitempty"`
	FixDescription  string            `json:"fix_applied,omitempty"`
	LikelyResolved  *bool             `json:"likely_resolved,omitempty"`
	ResolutionNotes string            `json:"resolution_notes,omitempty"`
	SimilarCount    int               `json:"similar_count,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

// EventHub fans lifecycle events out to live subscribers. Slow subscribers
// lose events rather than stall the publisher.
type EventHub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

// NewEventHub creates an empty hub
func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[int]chan Event)}
}

// Subscribe returns an event channel and a function that releases it
func (h *EventHub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers e to every subscriber with room in its buffer
func (h *EventHub) Publish(e Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

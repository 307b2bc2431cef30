package handlers

import (
	"net/http"

	"github.com/akmatori/incident-analyst/internal/api"
	"github.com/akmatori/incident-analyst/internal/metrics"
	"github.com/akmatori/incident-analyst/internal/reasoning"
)

const serviceName = "incident-analyst"

// HTTPHandler serves health and metrics endpoints
type HTTPHandler struct {
	analyzer *reasoning.Analyzer
	metrics  *metrics.Metrics
}

// NewHTTPHandler creates a new HTTP handler. Both arguments may be nil.
func NewHTTPHandler(analyzer *reasoning.Analyzer, m *metrics.Metrics) *HTTPHandler {
	return &HTTPHandler{
		analyzer: analyzer,
		metrics:  m,
	}
}

// SetupRoutes configures the operational routes
func (h *HTTPHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
}

// handleHealth reports liveness and which analysis source is active
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.RespondJSON(w, http.StatusOK, api.HealthResponse{
		Status:    "ok",
		Service:   serviceName,
		Reasoning: h.reasoningSource(),
	})
}

func (h *HTTPHandler) reasoningSource() string {
	if h.analyzer != nil {
		if name := h.analyzer.AdapterName(); name != "" {
			return reasoning.AdapterSource(name)
		}
	}
	return reasoning.SourceClassifier
}

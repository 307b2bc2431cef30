package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/akmatori/incident-analyst/internal/api"
	"github.com/akmatori/incident-analyst/internal/database"
	"github.com/akmatori/incident-analyst/internal/services"
)

// IncidentHandler exposes the incident lifecycle over HTTP
type IncidentHandler struct {
	service *services.IncidentService
	logger  *zap.Logger
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(service *services.IncidentService, logger *zap.Logger) *IncidentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncidentHandler{
		service: service,
		logger:  logger,
	}
}

// SetupRoutes registers the incident routes
func (h *IncidentHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /incident", h.handleSubmit)
	mux.HandleFunc("POST /action", h.handleApplyFix)
	mux.HandleFunc("POST /resolve", h.handleResolve)

	mux.HandleFunc("GET /incidents", h.handleList)
	mux.HandleFunc("GET /incidents/{id}", h.handleGet)
	mux.HandleFunc("DELETE /incidents/{id}", h.handleDelete)
}

func (h *IncidentHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitIncidentRequest
	if !api.BindJSON(w, r, &req) {
		return
	}

	result, err := h.service.Submit(r.Context(), req.Logs, req.Metrics)
	if err != nil {
		api.RespondServiceError(w, h.logger, err)
		return
	}

	api.RespondJSON(w, http.StatusCreated, api.SubmitResultToResponse(result))
}

func (h *IncidentHandler) handleApplyFix(w http.ResponseWriter, r *http.Request) {
	var req api.ActionRequest
	if !api.BindJSON(w, r, &req) {
		return
	}

	result, err := h.service.ApplyFix(r.Context(), req.IncidentID, req.FixApplied, req.NewLogs)
	if err != nil {
		api.RespondServiceError(w, h.logger, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, api.ApplyFixResultToResponse(result))
}

func (h *IncidentHandler) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req api.ResolveRequest
	if !api.BindJSON(w, r, &req) {
		return
	}

	incident, err := h.service.Resolve(r.Context(), req.IncidentID, req.ResolutionNotes)
	if err != nil {
		api.RespondServiceError(w, h.logger, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, api.IncidentToResolveResponse(incident))
}

func (h *IncidentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	status := database.IncidentStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		api.RespondErrorWithCode(w, http.StatusBadRequest, "invalid_request", "status must be open or resolved")
		return
	}

	page := api.ParsePagination(r)
	filter := database.ListFilter{Status: status}

	total, err := h.service.Count(r.Context(), filter)
	if err != nil {
		api.RespondServiceError(w, h.logger, err)
		return
	}

	filter.Offset = page.Offset()
	filter.Limit = page.PerPage
	incidents, err := h.service.List(r.Context(), filter)
	if err != nil {
		api.RespondServiceError(w, h.logger, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, api.IncidentListResponse{
		Incidents:  api.IncidentsToListItems(incidents),
		Pagination: page.Meta(total),
	})
}

func (h *IncidentHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := api.ParseID(r.PathValue("id"))
	if err != nil {
		api.RespondErrorWithCode(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	incident, err := h.service.Get(r.Context(), id)
	if err != nil {
		api.RespondServiceError(w, h.logger, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, api.IncidentToDetailResponse(incident))
}

func (h *IncidentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := api.ParseID(r.PathValue("id"))
	if err != nil {
		api.RespondErrorWithCode(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		api.RespondServiceError(w, h.logger, err)
		return
	}

	api.RespondNoContent(w)
}

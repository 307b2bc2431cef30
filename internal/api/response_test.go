package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/akmatori/incident-analyst/internal/database"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       interface{}
		wantStatus int
		wantBody   string
	}{
		{"200 with data", http.StatusOK, map[string]string{"status": "open"}, http.StatusOK, `{"status":"open"}`},
		{"201 created", http.StatusCreated, map[string]int{"incident_id": 42}, http.StatusCreated, `{"incident_id":42}`},
		{"nil data", http.StatusOK, nil, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondJSON(w, tt.status, tt.data)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			// json.Encoder appends a newline
			if tt.wantBody != "" && w.Body.String() != tt.wantBody+"\n" {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody+"\n")
			}
		})
	}
}

func TestRespondValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondValidationError(w, map[string]string{"logs": "must not be blank"})

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "validation_error" {
		t.Errorf("code = %q, want %q", resp.Code, "validation_error")
	}
	if resp.Details["logs"] != "must not be blank" {
		t.Errorf("details[logs] = %q", resp.Details["logs"])
	}
}

func TestRespondNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	RespondNoContent(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body length = %d, want 0", w.Body.Len())
	}
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{"validation", fmt.Errorf("%w: logs must not be empty", database.ErrValidation), http.StatusBadRequest, "validation_error", ""},
		{"not found", fmt.Errorf("%w: incident 9", database.ErrNotFound), http.StatusNotFound, "not_found", ""},
		{"conflict", fmt.Errorf("%w: incident 9 is already resolved", database.ErrConflict), http.StatusConflict, "conflict", ""},
		{"internal", errors.New("disk I/O error"), http.StatusInternalServerError, "internal_error", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondServiceError(w, zap.NewNop(), tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			wantError := tt.wantError
			if wantError == "" {
				wantError = tt.err.Error()
			}
			if resp.Error != wantError {
				t.Errorf("error = %q, want %q", resp.Error, wantError)
			}
		})
	}
}

func TestErrorResponse_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(ErrorResponse{Error: "not found"})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if _, ok := m["code"]; ok {
		t.Error("empty code should be omitted from JSON")
	}
	if _, ok := m["details"]; ok {
		t.Error("nil details should be omitted from JSON")
	}
}

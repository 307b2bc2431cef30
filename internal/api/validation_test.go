package api

import (
	"testing"
)

func TestValidate_SubmitIncidentRequest(t *testing.T) {
	if errs := Validate(SubmitIncidentRequest{Logs: "OOMKilled"}); errs != nil {
		t.Errorf("expected no errors, got %v", errs)
	}

	for _, logs := range []string{"", " \n\t "} {
		errs := Validate(SubmitIncidentRequest{Logs: logs})
		if errs["logs"] != "must not be blank" {
			t.Errorf("logs %q: error = %q, want %q", logs, errs["logs"], "must not be blank")
		}
	}
}

func TestValidate_ActionRequest(t *testing.T) {
	errs := Validate(ActionRequest{})
	if errs["incident_id"] != "must be greater than 0" {
		t.Errorf("incident_id error = %q", errs["incident_id"])
	}
	if errs["fix_applied"] != "must not be blank" {
		t.Errorf("fix_applied error = %q", errs["fix_applied"])
	}

	if errs := Validate(ActionRequest{IncidentID: 1, FixApplied: "Restart"}); errs != nil {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidate_ResolveRequest(t *testing.T) {
	if errs := Validate(ResolveRequest{IncidentID: 2}); errs != nil {
		t.Errorf("empty notes should be allowed, got %v", errs)
	}
	if errs := Validate(ResolveRequest{}); errs["incident_id"] == "" {
		t.Error("expected incident_id error")
	}
}

func TestValidate_Messages(t *testing.T) {
	type sample struct {
		Name     string `validate:"required,max=4"`
		Category string `validate:"omitempty,oneof=a b"`
	}

	errs := Validate(sample{Name: "toolong", Category: "c"})
	if errs["name"] != "must be at most 4 characters" {
		t.Errorf("name error = %q", errs["name"])
	}
	if errs["category"] != "must be one of: a b" {
		t.Errorf("category error = %q", errs["category"])
	}

	errs = Validate(sample{})
	if errs["name"] != "is required" {
		t.Errorf("name error = %q", errs["name"])
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Logs":            "logs",
		"FixApplied":      "fix_applied",
		"IncidentID":      "incident_id",
		"ResolutionNotes": "resolution_notes",
		"HTTPPort":        "http_port",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

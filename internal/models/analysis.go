package models

// Confidence is the qualitative certainty attached to an analysis result
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// IsValid reports whether c is one of high, medium or low
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Analysis is the root-cause analysis produced by the classifier or a reasoning adapter.
// It is never persisted on its own; records embed the latest one.
type Analysis struct {
	SuspectedRootCauses []string   `json:"suspected_root_causes"`
	SuggestedFix        string     `json:"suggested_fix"`
	Confidence          Confidence `json:"confidence"`
	Explanation         string     `json:"explanation"`
}

// IsEmpty reports whether no analysis has been recorded yet
func (a Analysis) IsEmpty() bool {
	return len(a.SuspectedRootCauses) == 0 && a.SuggestedFix == "" && a.Confidence == "" && a.Explanation == ""
}

// Clone returns a copy that does not share the causes slice
func (a Analysis) Clone() Analysis {
	out := a
	if a.SuspectedRootCauses != nil {
		out.SuspectedRootCauses = append([]string(nil), a.SuspectedRootCauses...)
	}
	return out
}

// SimilarIncident is a read-only projection of a resolved incident that looks like a new one
type SimilarIncident struct {
	ID          uint     `json:"id"`
	LogsPreview string   `json:"logs_preview"`
	Resolution  string   `json:"resolution"`
	RootCauses  []string `json:"root_causes"`
	Score       float64  `json:"score"`
}

// Evaluation is the heuristic verdict on whether an applied fix worked
type Evaluation struct {
	LikelyResolved    bool     `json:"likely_resolved"`
	RemainingConcerns []string `json:"remaining_concerns"`
	NextSteps         string   `json:"next_steps"`
	Recommendation    string   `json:"recommendation"`
}

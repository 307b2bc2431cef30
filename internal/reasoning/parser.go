package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akmatori/incident-analyst/internal/models"
)

type analysisPayload struct {
	SuspectedRootCauses []string `json:"suspected_root_causes"`
	SuggestedFix        string   `json:"suggested_fix"`
	Confidence          string   `json:"confidence"`
	Explanation         string   `json:"explanation"`
}

// ParseAnalysis extracts the first JSON object from a model answer and
// validates it into an analysis
func ParseAnalysis(answer string) (models.Analysis, error) {
	raw, ok := firstJSONObject(answer)
	if !ok {
		return models.Analysis{}, fmt.Errorf("%w: no JSON object in answer", ErrInvalidResponse)
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return models.Analysis{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	causes := make([]string, 0, len(payload.SuspectedRootCauses))
	for _, c := range payload.SuspectedRootCauses {
		if c = strings.TrimSpace(c); c != "" {
			causes = append(causes, c)
		}
	}
	if len(causes) == 0 {
		return models.Analysis{}, fmt.Errorf("%w: no root causes", ErrInvalidResponse)
	}

	fix := strings.TrimSpace(payload.SuggestedFix)
	if fix == "" {
		return models.Analysis{}, fmt.Errorf("%w: no suggested fix", ErrInvalidResponse)
	}

	confidence := models.Confidence(strings.ToLower(strings.TrimSpace(payload.Confidence)))
	if !confidence.IsValid() {
		return models.Analysis{}, fmt.Errorf("%w: unknown confidence %q", ErrInvalidResponse, payload.Confidence)
	}

	return models.Analysis{
		SuspectedRootCauses: causes,
		SuggestedFix:        fix,
		Confidence:          confidence,
		Explanation:         strings.TrimSpace(payload.Explanation),
	}, nil
}

// firstJSONObject returns the first balanced {...} block, honoring JSON strings
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

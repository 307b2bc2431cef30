package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akmatori/incident-analyst/internal/models"
)

func TestParseAnalysis_PlainObject(t *testing.T) {
	answer := `{"suspected_root_causes":["Memory leak"],"suggested_fix":"Raise the limit","confidence":"HIGH","explanation":"OOMKilled in logs"}`

	analysis, err := ParseAnalysis(answer)
	require.NoError(t, err)
	assert.Equal(t, []string{"Memory leak"}, analysis.SuspectedRootCauses)
	assert.Equal(t, "Raise the limit", analysis.SuggestedFix)
	assert.Equal(t, models.ConfidenceHigh, analysis.Confidence)
	assert.Equal(t, "OOMKilled in logs", analysis.Explanation)
}

func TestParseAnalysis_SurroundingProse(t *testing.T) {
	answer := "Here is my analysis:\n```json\n" +
		`{"suspected_root_causes":["Pool exhausted", " "],"suggested_fix":"Increase {pool} size","confidence":"medium","explanation":"brace } in string"}` +
		"\n```\nAnd a second object {\"ignored\": true}"

	analysis, err := ParseAnalysis(answer)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pool exhausted"}, analysis.SuspectedRootCauses)
	assert.Equal(t, "Increase {pool} size", analysis.SuggestedFix)
	assert.Equal(t, "brace } in string", analysis.Explanation)
}

func TestParseAnalysis_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"no object", "I cannot help with that"},
		{"unterminated", `{"suspected_root_causes":["x"]`},
		{"malformed", `{"suspected_root_causes": nope}`},
		{"no causes", `{"suspected_root_causes":[],"suggested_fix":"x","confidence":"low"}`},
		{"no fix", `{"suspected_root_causes":["a"],"suggested_fix":"  ","confidence":"low"}`},
		{"bad confidence", `{"suspected_root_causes":["a"],"suggested_fix":"x","confidence":"certain"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysis(tt.answer)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

package reasoning

import (
	"fmt"
	"strings"

	"github.com/akmatori/incident-analyst/internal/classifier"
	"github.com/akmatori/incident-analyst/internal/models"
)

// SourceClassifier is the analysis source name for the deterministic fallback
const SourceClassifier = "classifier"

// AdapterSource is the analysis source name recorded for an adapter answer
func AdapterSource(name string) string {
	return "adapter:" + name
}

// ClassifierSource turns a classifier result into a request-aware analysis.
// The classifier itself only sees logs and metrics; the surrounding context
// (similar incidents, previous fixes) is folded in here.
type ClassifierSource struct {
	classifier *classifier.Classifier
}

// NewClassifierSource wraps c. A nil classifier uses the default rule table.
func NewClassifierSource(c *classifier.Classifier) *ClassifierSource {
	if c == nil {
		c = classifier.New(nil)
	}
	return &ClassifierSource{classifier: c}
}

// Classifier returns the wrapped rule engine
func (s *ClassifierSource) Classifier() *classifier.Classifier {
	return s.classifier
}

// Analyze never fails
func (s *ClassifierSource) Analyze(req Request) models.Analysis {
	analysis := s.classifier.Classify(req.Logs, req.Metrics)

	if n := len(req.Similar); n > 0 {
		noun := "incidents"
		if n == 1 {
			noun = "incident"
		}
		analysis.Explanation = fmt.Sprintf("%s Found %d similar resolved %s (closest: #%d).",
			analysis.Explanation, n, noun, req.Similar[0].ID)
	}

	if len(req.AttemptedFixes) > 0 {
		analysis.SuggestedFix = fmt.Sprintf("Previous fixes attempted (%s). Next step: %s. Consider escalating if issue persists.",
			strings.Join(req.AttemptedFixes, "; "), strings.TrimSuffix(analysis.SuggestedFix, "."))
	}
	return analysis
}

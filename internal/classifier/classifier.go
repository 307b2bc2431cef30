// Package classifier is the deterministic root-cause engine used whenever no
// reasoning adapter answers. It never fails and has no hidden state: the same
// logs and metrics always produce the same analysis.
package classifier

import (
	"fmt"
	"strings"

	"github.com/akmatori/incident-analyst/internal/models"
)

const maxRootCauses = 3

// UnknownRootCause is the single cause reported when no rule matches
const UnknownRootCause = "Unknown — pattern not recognized"

// FamilyMatch records which rule matched and the exact phrase that caused it
type FamilyMatch struct {
	Family    string
	Label     string
	Phrase    string
	Canonical bool
	rule      *Rule
}

// Classifier evaluates an ordered rule table against incident text
type Classifier struct {
	rules []Rule
}

// New creates a classifier. A nil or empty table falls back to DefaultRules.
func New(rules []Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	normalized := make([]Rule, len(rules))
	for i, r := range rules {
		r.Canonical = lowerAll(r.Canonical)
		r.Triggers = lowerAll(r.Triggers)
		normalized[i] = r
	}
	return &Classifier{rules: normalized}
}

// Rules returns a copy of the active rule table
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Match returns every matching family in rule priority order
func (c *Classifier) Match(logs, metrics string) []FamilyMatch {
	text := strings.ToLower(logs + "\n" + metrics)

	var matches []FamilyMatch
	for i := range c.rules {
		rule := &c.rules[i]
		if phrase, ok := firstContained(text, rule.Canonical); ok {
			matches = append(matches, FamilyMatch{Family: rule.Family, Label: rule.Label, Phrase: phrase, Canonical: true, rule: rule})
			continue
		}
		if phrase, ok := firstContained(text, rule.Triggers); ok {
			matches = append(matches, FamilyMatch{Family: rule.Family, Label: rule.Label, Phrase: phrase, rule: rule})
		}
	}
	return matches
}

// Classify maps logs and metrics to an analysis. The first matching rule is
// the primary family and supplies the fix; up to three families are reported.
func (c *Classifier) Classify(logs, metrics string) models.Analysis {
	matches := c.Match(logs, metrics)
	if len(matches) == 0 {
		return Unrecognized()
	}

	primary := matches[0]
	if len(matches) > maxRootCauses {
		matches = matches[:maxRootCauses]
	}

	causes := make([]string, 0, len(matches))
	for _, m := range matches {
		causes = append(causes, m.Label)
	}

	confidence := models.ConfidenceMedium
	if len(matches) == 1 && primary.Canonical {
		confidence = models.ConfidenceHigh
	}

	return models.Analysis{
		SuspectedRootCauses: causes,
		SuggestedFix:        primary.rule.Fix,
		Confidence:          confidence,
		Explanation:         explain(primary, matches[1:]),
	}
}

// Unrecognized is the analysis returned when no signature matches
func Unrecognized() models.Analysis {
	return models.Analysis{
		SuspectedRootCauses: []string{UnknownRootCause},
		SuggestedFix:        "Review the full logs and correlate them with recent deployments or configuration changes",
		Confidence:          models.ConfidenceLow,
		Explanation:         "No known failure signature matched the logs or metrics. Manual investigation is required: check recent changes, dependency health and resource usage around the time of the incident.",
	}
}

func explain(primary FamilyMatch, others []FamilyMatch) string {
	kind := "loose"
	if primary.Canonical {
		kind = "canonical"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Matched %s %s signature %q.", kind, primary.Family, primary.Phrase)
	if len(primary.rule.Causes) > 0 {
		fmt.Fprintf(&b, " Likely causes: %s.", strings.Join(primary.rule.Causes, "; "))
	}
	if len(others) > 0 {
		also := make([]string, 0, len(others))
		for _, m := range others {
			also = append(also, fmt.Sprintf("%s (%q)", m.Family, m.Phrase))
		}
		fmt.Fprintf(&b, " Also matched: %s.", strings.Join(also, ", "))
	}
	return b.String()
}

func firstContained(text string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if p != "" && strings.Contains(text, p) {
			return p, true
		}
	}
	return "", false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

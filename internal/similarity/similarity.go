// Package similarity ranks resolved incidents by lexical overlap with new
// incident text. Scores are the Jaccard index of lowercase word-token sets.
package similarity

import (
	"sort"
	"strings"
	"unicode"

	"github.com/akmatori/incident-analyst/internal/database"
	"github.com/akmatori/incident-analyst/internal/models"
)

// DefaultTopK is the number of matches returned when k is not positive
const DefaultTopK = 3

const previewLength = 200

// TokenSet is a set of lowercase alphanumeric tokens
type TokenSet map[string]struct{}

// Tokenize splits text on non-alphanumeric boundaries into a lowercase token set
func Tokenize(text string) TokenSet {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(TokenSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when either set is empty
func Jaccard(a, b TokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Score is the similarity between two raw texts
func Score(a, b string) float64 {
	return Jaccard(Tokenize(a), Tokenize(b))
}

// FindSimilar returns up to k resolved incidents whose logs overlap queryText,
// best first, ties broken by the smaller id. Open incidents and zero scores are
// never returned.
func FindSimilar(queryText string, corpus []database.Incident, k int) []models.SimilarIncident {
	if k <= 0 {
		k = DefaultTopK
	}
	query := Tokenize(queryText)
	if len(query) == 0 {
		return []models.SimilarIncident{}
	}

	type scored struct {
		incident *database.Incident
		score    float64
	}
	candidates := make([]scored, 0, len(corpus))
	for i := range corpus {
		inc := &corpus[i]
		if inc.Status != database.IncidentStatusResolved {
			continue
		}
		s := Jaccard(query, Tokenize(inc.Logs))
		if s <= 0 {
			continue
		}
		candidates = append(candidates, scored{incident: inc, score: s})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].incident.ID < candidates[j].incident.ID
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	matches := make([]models.SimilarIncident, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, toMatch(c.incident, c.score))
	}
	return matches
}

func toMatch(inc *database.Incident, score float64) models.SimilarIncident {
	causes := append([]string{}, inc.Analysis.SuspectedRootCauses...)
	return models.SimilarIncident{
		ID:          inc.ID,
		LogsPreview: Preview(inc.Logs, previewLength),
		Resolution:  inc.ResolutionNotes,
		RootCauses:  causes,
		Score:       score,
	}
}

// Preview truncates s to at most n runes
func Preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

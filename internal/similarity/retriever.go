package similarity

import (
	"context"

	"github.com/akmatori/incident-analyst/internal/database"
	"github.com/akmatori/incident-analyst/internal/models"
)

// Corpus is the read side of the record store the retriever draws from
type Corpus interface {
	List(ctx context.Context, filter database.ListFilter) ([]database.Incident, error)
}

// Retriever finds resolved incidents similar to new incident text
type Retriever struct {
	corpus Corpus
	topK   int
}

// NewRetriever creates a retriever over the store's resolved incidents
func NewRetriever(corpus Corpus, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{corpus: corpus, topK: topK}
}

// TopK returns the configured number of matches
func (r *Retriever) TopK() int {
	return r.topK
}

// FindSimilar ranks the full resolved corpus against queryText
func (r *Retriever) FindSimilar(ctx context.Context, queryText string) ([]models.SimilarIncident, error) {
	resolved, err := r.corpus.List(ctx, database.ListFilter{Status: database.IncidentStatusResolved})
	if err != nil {
		return nil, err
	}
	return FindSimilar(queryText, resolved, r.topK), nil
}

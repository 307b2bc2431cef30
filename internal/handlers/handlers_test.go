package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/akmatori/incident-analyst/internal/classifier"
	"github.com/akmatori/incident-analyst/internal/metrics"
	"github.com/akmatori/incident-analyst/internal/models"
	"github.com/akmatori/incident-analyst/internal/reasoning"
	"github.com/akmatori/incident-analyst/internal/services"
	"github.com/akmatori/incident-analyst/internal/similarity"
	"github.com/akmatori/incident-analyst/internal/testhelpers"
)

type testServer struct {
	mux      *http.ServeMux
	service  *services.IncidentService
	hub      *services.EventHub
	analyzer *reasoning.Analyzer
}

type stubAdapter struct{}

func (stubAdapter) Name() string { return "stub" }

func (stubAdapter) Analyze(ctx context.Context, req reasoning.Request) (models.Analysis, error) {
	return models.Analysis{
		SuspectedRootCauses: []string{"Stubbed cause"},
		SuggestedFix:        "Stubbed fix",
		Confidence:          models.ConfidenceMedium,
		Explanation:         "Stubbed explanation",
	}, nil
}

func newTestServer(t *testing.T, analyzerOpts ...reasoning.AnalyzerOption) *testServer {
	t.Helper()
	store := testhelpers.NewTestStore(t)
	hub := services.NewEventHub()
	t.Cleanup(hub.Close)

	analyzer := reasoning.NewAnalyzer(classifier.New(nil), analyzerOpts...)
	svc := services.NewIncidentService(store, similarity.NewRetriever(store, similarity.DefaultTopK), analyzer,
		services.WithEventHub(hub))

	mux := http.NewServeMux()
	NewHTTPHandler(analyzer, metrics.New()).SetupRoutes(mux)
	NewIncidentHandler(svc, nil).SetupRoutes(mux)
	NewEventsWSHandler(hub, nil).SetupRoutes(mux)

	return &testServer{mux: mux, service: svc, hub: hub, analyzer: analyzer}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *testhelpers.HTTPTestContext {
	t.Helper()
	ctx := testhelpers.NewHTTPTestContext(t, method, path, nil)
	if body != nil {
		ctx.WithJSONBody(body)
	}
	return ctx.Execute(s.mux)
}

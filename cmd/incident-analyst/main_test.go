package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akmatori/incident-analyst/internal/classifier"
	"github.com/akmatori/incident-analyst/internal/config"
	"github.com/akmatori/incident-analyst/internal/database"
	"github.com/akmatori/incident-analyst/internal/metrics"
	"github.com/akmatori/incident-analyst/internal/reasoning"
	"github.com/akmatori/incident-analyst/internal/services"
	"github.com/akmatori/incident-analyst/internal/similarity"
	"github.com/akmatori/incident-analyst/internal/testhelpers"
)

func TestNewAdapter(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
		wantErr  bool
	}{
		{provider: config.ProviderNone},
		{provider: config.ProviderHTTP, wantName: "http"},
		{provider: config.ProviderAnthropic, wantName: "anthropic"},
		{provider: config.ProviderOpenAI, wantName: "openai"},
		{provider: "watson", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			adapter, err := newAdapter(config.ReasoningConfig{Provider: tt.provider, APIKey: "key"})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantName == "" {
				assert.Nil(t, adapter)
				return
			}
			require.NotNil(t, adapter)
			assert.Equal(t, tt.wantName, adapter.Name())
		})
	}
}

func TestNewHandler_Routes(t *testing.T) {
	cfg := config.Default()
	store := testhelpers.NewTestStore(t)
	analyzer := reasoning.NewAnalyzer(classifier.New(nil))
	svc := services.NewIncidentService(store, similarity.NewRetriever(store, 3), analyzer)
	hub := services.NewEventHub()
	t.Cleanup(hub.Close)

	handler := newHandler(&cfg, svc, analyzer, hub, metrics.New(), zap.NewNop())

	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/health", nil).
		Execute(handler).
		AssertStatus(http.StatusOK).
		AssertBodyContains(`"reasoning":"classifier"`)

	ctx := testhelpers.NewHTTPTestContext(t, http.MethodPost, "/incident", nil).
		WithHeader("Origin", "https://ops.example.com").
		WithJSONBody(map[string]string{"logs": "OOMKilled"}).
		Execute(handler).
		AssertStatus(http.StatusCreated)
	assert.NotEmpty(t, ctx.Recorder.Header().Get("X-Request-ID"))
	assert.Equal(t, "https://ops.example.com", ctx.Recorder.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `incident_analyst_operations_total{operation="submit",result="ok"} 1`)
}

func writeCLIConfig(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	dsn := filepath.Join(dir, "incidents.db")
	path := testhelpers.WriteTestFile(t, dir, "config.yaml", fmt.Sprintf(`
database:
  driver: sqlite
  dsn: %s
log:
  level: error
`, dsn))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	return path, cfg
}

func seedIncidents(t *testing.T, cfg *config.Config) {
	t.Helper()
	db, err := openDatabase(cfg)
	require.NoError(t, err)
	defer func() { _ = database.Close(db) }()

	store := database.NewIncidentStore(db)
	ctx := context.Background()
	_, err = store.Create(ctx, "OOMKilled\nsecond line", "")
	require.NoError(t, err)
	_, err = store.Create(ctx, "connection refused", "")
	require.NoError(t, err)
	_, err = store.Resolve(ctx, 2, "restarted db")
	require.NoError(t, err)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", ""))
	err := cmd.Execute()
	return out.String(), err
}

func TestIncidentsCommands(t *testing.T) {
	path, cfg := writeCLIConfig(t)
	seedIncidents(t, cfg)

	out, err := runCLI(t, "incidents", "list", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "OOMKilled second line")
	assert.Contains(t, out, "resolved")

	out, err = runCLI(t, "incidents", "list", "--status", "resolved", "--config", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "OOMKilled")
	assert.Contains(t, out, "connection refused")

	out, err = runCLI(t, "incidents", "show", "2", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"resolution_notes": "restarted db"`)

	out, err = runCLI(t, "incidents", "delete", "1", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted incident 1")

	_, err = runCLI(t, "incidents", "show", "1", "--config", path)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestIncidentsCommands_BadInput(t *testing.T) {
	path, _ := writeCLIConfig(t)

	_, err := runCLI(t, "incidents", "list", "--status", "pending", "--config", path)
	assert.Error(t, err)

	_, err = runCLI(t, "incidents", "show", "abc", "--config", path)
	assert.Error(t, err)

	_, err = runCLI(t, "incidents", "delete", "--config", path)
	assert.Error(t, err)
}

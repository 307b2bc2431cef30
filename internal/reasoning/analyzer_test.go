package reasoning

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/akmatori/incident-analyst/internal/classifier"
	"github.com/akmatori/incident-analyst/internal/metrics"
	"github.com/akmatori/incident-analyst/internal/models"
)

type fakeAdapter struct {
	calls    atomic.Int32
	analysis models.Analysis
	err      error
	delay    time.Duration
	block    chan struct{}
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) Analyze(ctx context.Context, req Request) (models.Analysis, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.analysis, f.err
}

func adapterAnalysis() models.Analysis {
	return models.Analysis{
		SuspectedRootCauses: []string{"Noisy neighbour"},
		SuggestedFix:        "Move the pod",
		Confidence:          models.ConfidenceMedium,
		Explanation:         "from the adapter",
	}
}

func TestAnalyzer_NoAdapter(t *testing.T) {
	a := NewAnalyzer(nil)

	result := a.Analyze(context.Background(), Request{Logs: "[ERROR] OOMKilled"})
	assert.Equal(t, SourceClassifier, result.Source)
	assert.Equal(t, FallbackAbsent, result.FallbackReason)
	assert.Equal(t, models.ConfidenceHigh, result.Analysis.Confidence)
	assert.Equal(t, "", a.AdapterName())
}

func TestAnalyzer_AdapterSuccess(t *testing.T) {
	adapter := &fakeAdapter{analysis: adapterAnalysis()}
	a := NewAnalyzer(classifier.New(nil), WithAdapter(adapter))

	result := a.Analyze(context.Background(), Request{Logs: "anything"})
	assert.Equal(t, "adapter:fake", result.Source)
	assert.Empty(t, result.FallbackReason)
	assert.Equal(t, adapterAnalysis(), result.Analysis)
	assert.Equal(t, "fake", a.AdapterName())
}

func TestAnalyzer_AdapterErrorFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := metrics.New()
	adapter := &fakeAdapter{err: errors.New("upstream 502")}
	a := NewAnalyzer(nil, WithAdapter(adapter), WithLogger(zap.New(core)), WithMetrics(m))

	result := a.Analyze(context.Background(), Request{IncidentID: 12, Logs: "zzz flibbertigibbet"})
	assert.Equal(t, SourceClassifier, result.Source)
	assert.Equal(t, FallbackError, result.FallbackReason)
	assert.Equal(t, models.ConfidenceLow, result.Analysis.Confidence)
	assert.Equal(t, []string{classifier.UnknownRootCause}, result.Analysis.SuspectedRootCauses)

	entries := logs.FilterMessage("Reasoning adapter unavailable, falling back to classifier").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, uint64(12), fields["incident_id"])
	assert.Equal(t, SourceClassifier, fields["source"])
	assert.Equal(t, "upstream 502", fields["error"])

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Fallbacks.WithLabelValues(FallbackError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Analyses.WithLabelValues(SourceClassifier)))
}

func TestAnalyzer_InvalidAdapterAnalysis(t *testing.T) {
	adapter := &fakeAdapter{analysis: models.Analysis{SuggestedFix: "x", Confidence: models.ConfidenceHigh}}
	a := NewAnalyzer(nil, WithAdapter(adapter))

	result := a.Analyze(context.Background(), Request{Logs: "connection refused"})
	assert.Equal(t, FallbackError, result.FallbackReason)
	assert.Equal(t, []string{"Connectivity failure"}, result.Analysis.SuspectedRootCauses)
}

func TestAnalyzer_Timeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	adapter := &fakeAdapter{analysis: adapterAnalysis(), block: block}
	a := NewAnalyzer(nil, WithAdapter(adapter), WithTimeout(20*time.Millisecond))

	start := time.Now()
	result := a.Analyze(context.Background(), Request{Logs: "timed out"})
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, FallbackTimeout, result.FallbackReason)
	assert.Equal(t, SourceClassifier, result.Source)
}

func TestAnalyzer_CallerCancellationIgnored(t *testing.T) {
	adapter := &fakeAdapter{analysis: adapterAnalysis(), delay: 10 * time.Millisecond}
	a := NewAnalyzer(nil, WithAdapter(adapter), WithTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := a.Analyze(ctx, Request{Logs: "x"})
	assert.Equal(t, "adapter:fake", result.Source)
}

func TestAnalyzer_RateLimited(t *testing.T) {
	adapter := &fakeAdapter{analysis: adapterAnalysis()}
	a := NewAnalyzer(nil, WithAdapter(adapter), WithRateLimit(0.001, 1))

	first := a.Analyze(context.Background(), Request{Logs: "one"})
	second := a.Analyze(context.Background(), Request{Logs: "two"})

	assert.Equal(t, "adapter:fake", first.Source)
	assert.Equal(t, FallbackRateLimited, second.FallbackReason)
	assert.Equal(t, int32(1), adapter.calls.Load())
}

func TestAnalyzer_Cache(t *testing.T) {
	m := metrics.New()
	adapter := &fakeAdapter{analysis: adapterAnalysis()}
	a := NewAnalyzer(nil, WithAdapter(adapter), WithCache(8), WithMetrics(m))

	req := Request{Logs: "same logs", Metrics: "cpu=90"}
	first := a.Analyze(context.Background(), req)
	first.Analysis.SuspectedRootCauses[0] = "mutated"
	second := a.Analyze(context.Background(), req)

	assert.Equal(t, int32(1), adapter.calls.Load())
	assert.Equal(t, adapterAnalysis(), second.Analysis)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHits))

	a.Analyze(context.Background(), Request{Logs: "other logs"})
	assert.Equal(t, int32(2), adapter.calls.Load())
}

func TestAnalyzer_ConcurrentIdenticalRequestsShareCall(t *testing.T) {
	block := make(chan struct{})
	adapter := &fakeAdapter{analysis: adapterAnalysis(), block: block}
	a := NewAnalyzer(nil, WithAdapter(adapter), WithTimeout(5*time.Second))

	req := Request{Logs: "identical"}
	var wg sync.WaitGroup
	results := make([]Result, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.Analyze(context.Background(), req)
		}(i)
	}

	require.Eventually(t, func() bool { return adapter.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(block)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "adapter:fake", r.Source)
	}
	assert.LessOrEqual(t, adapter.calls.Load(), int32(4))
}

func TestRequestDigest(t *testing.T) {
	base := Request{Logs: "a", Metrics: "b"}
	assert.Equal(t, requestDigest(base), requestDigest(Request{IncidentID: 9, Logs: "a", Metrics: "b"}))
	assert.NotEqual(t, requestDigest(base), requestDigest(Request{Logs: "ab"}))
	assert.NotEqual(t, requestDigest(base), requestDigest(Request{Logs: "a", Metrics: "b", AttemptedFixes: []string{"f"}}))
}

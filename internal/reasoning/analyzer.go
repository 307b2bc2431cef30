package reasoning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/akmatori/incident-analyst/internal/classifier"
	"github.com/akmatori/incident-analyst/internal/metrics"
	"github.com/akmatori/incident-analyst/internal/models"
)

// DefaultTimeout bounds a single adapter call
const DefaultTimeout = 30 * time.Second

// Fallback reasons
const (
	FallbackAbsent      = "absent"
	FallbackRateLimited = "rate_limited"
	FallbackTimeout     = "timeout"
	FallbackError       = "error"
)

// Result is an analysis plus where it came from
type Result struct {
	Analysis       models.Analysis
	Source         string
	FallbackReason string
}

// Analyzer prefers the configured adapter and degrades to the classifier on
// absence, throttling, timeout or any adapter error. Analyze never fails.
type Analyzer struct {
	fallback *ClassifierSource
	adapter  Adapter
	timeout  time.Duration
	limiter  *rate.Limiter
	cache    *lru.Cache[string, models.Analysis]
	group    singleflight.Group
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// AnalyzerOption configures an Analyzer
type AnalyzerOption func(*Analyzer)

// WithAdapter sets the external reasoning adapter. nil leaves it absent.
func WithAdapter(adapter Adapter) AnalyzerOption {
	return func(a *Analyzer) {
		a.adapter = adapter
	}
}

// WithTimeout bounds each adapter call. Non-positive values keep the default.
func WithTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithRateLimit caps adapter calls per second. Requests over budget go
// straight to the classifier instead of waiting.
func WithRateLimit(perSecond float64, burst int) AnalyzerOption {
	return func(a *Analyzer) {
		if perSecond <= 0 {
			a.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithCache keeps up to size adapter answers keyed by request content
func WithCache(size int) AnalyzerOption {
	return func(a *Analyzer) {
		if size <= 0 {
			a.cache = nil
			return
		}
		cache, err := lru.New[string, models.Analysis](size)
		if err == nil {
			a.cache = cache
		}
	}
}

// WithLogger sets the logger used to report fallbacks
func WithLogger(logger *zap.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics records sources, fallbacks and adapter latency
func WithMetrics(m *metrics.Metrics) AnalyzerOption {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// NewAnalyzer creates an Analyzer backed by the given classifier
func NewAnalyzer(c *classifier.Classifier, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		fallback: NewClassifierSource(c),
		timeout:  DefaultTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Classifier returns the fallback rule engine
func (a *Analyzer) Classifier() *classifier.Classifier {
	return a.fallback.Classifier()
}

// AdapterName returns the configured adapter's name, or "" when absent
func (a *Analyzer) AdapterName() string {
	if a.adapter == nil {
		return ""
	}
	return a.adapter.Name()
}

// Analyze produces an analysis for req
func (a *Analyzer) Analyze(ctx context.Context, req Request) Result {
	if a.adapter == nil {
		return a.fallbackResult(req, FallbackAbsent, nil)
	}

	key := requestDigest(req)
	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			a.metrics.ObserveCacheHit()
			return a.adapterResult(cached)
		}
	}

	if a.limiter != nil && !a.limiter.Allow() {
		return a.fallbackResult(req, FallbackRateLimited, ErrRateLimited)
	}

	v, err, _ := a.group.Do(key, func() (interface{}, error) {
		analysis, err := a.callAdapter(ctx, req)
		if err != nil {
			return nil, err
		}
		if a.cache != nil {
			a.cache.Add(key, analysis)
		}
		return analysis, nil
	})
	if err != nil {
		reason := FallbackError
		if errors.Is(err, context.DeadlineExceeded) {
			reason = FallbackTimeout
		}
		return a.fallbackResult(req, reason, err)
	}
	return a.adapterResult(v.(models.Analysis))
}

// callAdapter runs the adapter under the configured deadline. The caller's
// cancellation is ignored; only the timeout ends the call early. The select
// guards against adapters that do not honor their context.
func (a *Analyzer) callAdapter(ctx context.Context, req Request) (models.Analysis, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	type outcome struct {
		analysis models.Analysis
		err      error
	}
	done := make(chan outcome, 1)

	start := time.Now()
	go func() {
		analysis, err := a.adapter.Analyze(callCtx, req)
		done <- outcome{analysis: analysis, err: err}
	}()

	select {
	case out := <-done:
		a.metrics.ObserveAdapterDuration(time.Since(start))
		if out.err != nil {
			if callCtx.Err() != nil {
				return models.Analysis{}, fmt.Errorf("%w: %v", context.DeadlineExceeded, out.err)
			}
			return models.Analysis{}, out.err
		}
		if err := validateAnalysis(out.analysis); err != nil {
			return models.Analysis{}, err
		}
		return out.analysis, nil
	case <-callCtx.Done():
		a.metrics.ObserveAdapterDuration(time.Since(start))
		return models.Analysis{}, fmt.Errorf("%w: adapter %s gave no answer within %s", context.DeadlineExceeded, a.adapter.Name(), a.timeout)
	}
}

func (a *Analyzer) adapterResult(analysis models.Analysis) Result {
	source := AdapterSource(a.adapter.Name())
	a.metrics.ObserveAnalysis(source)
	return Result{Analysis: analysis.Clone(), Source: source}
}

func (a *Analyzer) fallbackResult(req Request, reason string, err error) Result {
	a.metrics.ObserveAnalysis(SourceClassifier)
	a.metrics.ObserveFallback(reason)

	fields := []zap.Field{
		zap.Uint("incident_id", req.IncidentID),
		zap.String("source", SourceClassifier),
		zap.String("reason", reason),
	}
	if reason == FallbackAbsent {
		a.logger.Debug("No reasoning adapter configured, using classifier", fields...)
	} else {
		fields = append(fields, zap.String("adapter", a.adapter.Name()), zap.Error(err))
		a.logger.Warn("Reasoning adapter unavailable, falling back to classifier", fields...)
	}

	return Result{
		Analysis:       a.fallback.Analyze(req),
		Source:         SourceClassifier,
		FallbackReason: reason,
	}
}

func validateAnalysis(analysis models.Analysis) error {
	if len(analysis.SuspectedRootCauses) == 0 {
		return fmt.Errorf("%w: no root causes", ErrInvalidResponse)
	}
	if strings.TrimSpace(analysis.SuggestedFix) == "" {
		return fmt.Errorf("%w: no suggested fix", ErrInvalidResponse)
	}
	if !analysis.Confidence.IsValid() {
		return fmt.Errorf("%w: unknown confidence %q", ErrInvalidResponse, analysis.Confidence)
	}
	return nil
}

// requestDigest identifies requests that would produce the same prompt
func requestDigest(req Request) string {
	h := sha256.New()
	write := func(s string) {
		fmt.Fprintf(h, "%d:%s|", len(s), s)
	}
	write(req.Logs)
	write(req.Metrics)
	for _, s := range req.Similar {
		write(fmt.Sprintf("%d", s.ID))
		write(s.Resolution)
	}
	write("--")
	for _, f := range req.AttemptedFixes {
		write(f)
	}
	return hex.EncodeToString(h.Sum(nil))
}

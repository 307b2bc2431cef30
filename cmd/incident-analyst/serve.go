package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akmatori/incident-analyst/internal/classifier"
	"github.com/akmatori/incident-analyst/internal/config"
	"github.com/akmatori/incident-analyst/internal/database"
	"github.com/akmatori/incident-analyst/internal/handlers"
	"github.com/akmatori/incident-analyst/internal/metrics"
	"github.com/akmatori/incident-analyst/internal/middleware"
	"github.com/akmatori/incident-analyst/internal/reasoning"
	"github.com/akmatori/incident-analyst/internal/services"
	"github.com/akmatori/incident-analyst/internal/similarity"
	"github.com/akmatori/incident-analyst/internal/slack"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.HTTPPort = port
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides server.http_port)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	log.Info("Starting incident analyst",
		zap.String("version", Version),
		zap.String("database", cfg.Database.Driver),
		zap.String("reasoning", cfg.Reasoning.Provider))

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}()

	rules := classifier.DefaultRules()
	if cfg.Classifier.RulesFile != "" {
		rules, err = classifier.LoadRules(cfg.Classifier.RulesFile)
		if err != nil {
			return err
		}
		log.Info("Loaded classifier rules", zap.String("file", cfg.Classifier.RulesFile), zap.Int("rules", len(rules)))
	}

	m := metrics.New()
	hub := services.NewEventHub()
	defer hub.Close()

	analyzerOpts := []reasoning.AnalyzerOption{
		reasoning.WithTimeout(cfg.Reasoning.Timeout),
		reasoning.WithLogger(log.Named("reasoning")),
		reasoning.WithMetrics(m),
	}
	adapter, err := newAdapter(cfg.Reasoning)
	if err != nil {
		return err
	}
	if adapter != nil {
		analyzerOpts = append(analyzerOpts,
			reasoning.WithAdapter(adapter),
			reasoning.WithRateLimit(cfg.Reasoning.RatePerSecond, cfg.Reasoning.Burst),
			reasoning.WithCache(cfg.Reasoning.CacheSize))
	}
	analyzer := reasoning.NewAnalyzer(classifier.New(rules), analyzerOpts...)

	store := database.NewIncidentStore(db)
	serviceOpts := []services.IncidentServiceOption{
		services.WithEventHub(hub),
		services.WithServiceMetrics(m),
		services.WithServiceLogger(log.Named("incidents")),
	}
	if notifier := slack.NewNotifier(cfg.Slack.BotToken, cfg.Slack.Channel,
		slack.WithAPIURL(cfg.Slack.APIURL),
		slack.WithLogger(log.Named("slack"))); notifier != nil {
		serviceOpts = append(serviceOpts, services.WithNotifier(notifier))
		log.Info("Slack notifications enabled", zap.String("channel", cfg.Slack.Channel))
	}
	svc := services.NewIncidentService(store, similarity.NewRetriever(store, cfg.Similarity.TopK), analyzer, serviceOpts...)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: newHandler(cfg, svc, analyzer, hub, m, log),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Received shutdown signal, cleaning up...")
	// Event streams never finish on their own
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server did not shut down cleanly", zap.Error(err))
	}
	log.Info("Shutdown complete")
	return nil
}

// newHandler registers every route and wraps the mux in the middleware chain
func newHandler(cfg *config.Config, svc *services.IncidentService, analyzer *reasoning.Analyzer, hub *services.EventHub, m *metrics.Metrics, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	handlers.NewHTTPHandler(analyzer, m).SetupRoutes(mux)
	handlers.NewIncidentHandler(svc, log.Named("api")).SetupRoutes(mux)
	handlers.NewEventsWSHandler(hub, log.Named("events")).SetupRoutes(mux)

	return middleware.Chain(mux,
		middleware.RequestIDMiddleware,
		middleware.AccessLogMiddleware(log.Named("http")),
		middleware.NewCORSMiddleware(cfg.Server.CORSOrigins...).Wrap,
	)
}

// newAdapter builds the configured reasoning adapter, or nil for none
func newAdapter(cfg config.ReasoningConfig) (reasoning.Adapter, error) {
	switch cfg.Provider {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderHTTP:
		endpoint := cfg.BaseURL
		if endpoint == "" {
			endpoint = reasoning.DefaultChatEndpoint
		}
		return reasoning.NewHTTPAdapter(endpoint, cfg.APIKey), nil
	case config.ProviderAnthropic:
		return reasoning.NewAnthropicAdapter(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case config.ProviderOpenAI:
		return reasoning.NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown reasoning provider %q", cfg.Provider)
	}
}

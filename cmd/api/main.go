// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/replyflow/inbox/internal/config"
	"github.com/replyflow/inbox/internal/handler"
	"github.com/replyflow/inbox/internal/llm"
	"github.com/replyflow/inbox/internal/model"
	natsclient "github.com/replyflow/inbox/internal/nats"
	"github.com/replyflow/inbox/internal/seed"
	"github.com/replyflow/inbox/internal/service"
	"github.com/replyflow/inbox/internal/snapshot"
	"github.com/replyflow/inbox/pkg/logger"
	"github.com/replyflow/inbox/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "replyflow-inbox", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Load the stores
	conversations, templates, snap := loadData(ctx, cfg, log)
	if snap != nil {
		defer snap.Close()
	}

	conversationSvc := service.NewConversationService(conversations, log, service.WithLatency(cfg.StoreLatency))
	templateSvc := service.NewTemplateService(templates, log, service.WithLatency(cfg.StoreLatency))

	// Initialize LLM client
	var llmClient llm.Client
	if provider, key := cfg.LLMAPIKey(); key != "" {
		llmClient, err = llm.NewClient(llm.Provider(provider), key)
		if err != nil {
			log.Warn("failed to create LLM client, AI suggestions disabled", zap.Error(err))
			llmClient = nil
		} else {
			log.Info("LLM suggestions enabled", zap.String("provider", provider))
		}
	}
	suggestionSvc := service.NewSuggestionService(conversationSvc, llmClient, cfg.LLMModel, log)

	// Connect to NATS when event publishing is enabled
	var (
		events      handler.EventPublisher
		readyChecks handler.ConnectionChecker
	)
	if cfg.NATSEnabled {
		natsClient, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		publisher := natsclient.NewPublisher(natsClient)
		if err := publisher.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure stream", zap.Error(err))
			os.Exit(1)
		}
		events = publisher
		readyChecks = natsClient
	}

	// Create router
	router := handler.NewRouter(handler.Handlers{
		Health:        handler.NewHealthHandler(readyChecks),
		Conversations: handler.NewConversationHandler(conversationSvc, events, log),
		Messages:      handler.NewMessageHandler(conversationSvc, events, log),
		Suggestions:   handler.NewSuggestionHandler(suggestionSvc, conversationSvc, log),
		Templates:     handler.NewTemplateHandler(templateSvc, events, log),
	}, handler.RouterConfig{
		JWTSecret:          cfg.JWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRequests:  cfg.RateLimitRequests,
		RateLimitWindow:    cfg.RateLimitWindow,
	}, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	if snap != nil {
		saveSnapshot(shutdownCtx, snap, conversationSvc, templateSvc, log)
	}

	log.Info("server stopped")
}

// loadData returns the initial store contents. A non-empty snapshot wins over
// the seed fixtures.
func loadData(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]model.Conversation, []model.Template, *snapshot.Store) {
	conversations, err := seed.Conversations(cfg.ConversationsSeedFile)
	if err != nil {
		log.Error("failed to load conversation seed", zap.Error(err))
		os.Exit(1)
	}
	templates, err := seed.Templates(cfg.TemplatesSeedFile)
	if err != nil {
		log.Error("failed to load template seed", zap.Error(err))
		os.Exit(1)
	}
	for _, p := range seed.Check(conversations, templates) {
		log.Warn("seed problem", zap.String("problem", p.String()))
	}

	if cfg.SnapshotDSN == "" {
		return conversations, templates, nil
	}

	snap, err := snapshot.Open(cfg.SnapshotDriver, cfg.SnapshotDSN)
	if err != nil {
		log.Error("failed to open snapshot store", zap.Error(err))
		os.Exit(1)
	}

	empty, err := snap.Empty(ctx)
	if err != nil {
		log.Error("failed to inspect snapshot", zap.Error(err))
		os.Exit(1)
	}
	if empty {
		log.Info("snapshot empty, using seed data")
		return conversations, templates, snap
	}

	conversations, templates, err = snap.Load(ctx)
	if err != nil {
		log.Error("failed to load snapshot", zap.Error(err))
		os.Exit(1)
	}
	log.Info("restored snapshot",
		zap.Int("conversations", len(conversations)),
		zap.Int("templates", len(templates)),
	)
	return conversations, templates, snap
}

func saveSnapshot(ctx context.Context, snap *snapshot.Store, convs *service.ConversationService, tmpls *service.TemplateService, log *logger.Logger) {
	conversations, err := convs.ListAll(ctx)
	if err != nil {
		log.Error("failed to read conversations for snapshot", zap.Error(err))
		return
	}
	templates, err := tmpls.ListAll(ctx)
	if err != nil {
		log.Error("failed to read templates for snapshot", zap.Error(err))
		return
	}
	if err := snap.Save(ctx, conversations, templates); err != nil {
		log.Error("failed to save snapshot", zap.Error(err))
		return
	}
	log.Info("snapshot saved",
		zap.Int("conversations", len(conversations)),
		zap.Int("templates", len(templates)),
	)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/garagem/seminovos-assistant-go/internal/config"
	"github.com/garagem/seminovos-assistant-go/internal/dialog"
	"github.com/garagem/seminovos-assistant-go/internal/handler"
	"github.com/garagem/seminovos-assistant-go/internal/infra/cache"
	"github.com/garagem/seminovos-assistant-go/internal/infra/client"
	"github.com/garagem/seminovos-assistant-go/internal/infra/nlu"
	"github.com/garagem/seminovos-assistant-go/internal/infra/observability"
	"github.com/garagem/seminovos-assistant-go/internal/infra/resilience"
	"github.com/garagem/seminovos-assistant-go/internal/infra/session"
	"github.com/garagem/seminovos-assistant-go/internal/port"
	"github.com/garagem/seminovos-assistant-go/internal/transport"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("nlu_provider", cfg.NLUProvider),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Float64("min_confidence", cfg.MinConfidence),
		zap.Int("max_retries", cfg.MaxRetries),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(context.Background(), "seminovos-assistant", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	answerCache := cache.New[string](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	// One breaker per capability: a search outage must not blind NLU.
	nluBreaker := resilience.NewCircuitBreaker("nlu")
	searchBreaker := resilience.NewCircuitBreaker("vehicle-search")
	knowledgeBreaker := resilience.NewCircuitBreaker("knowledge")

	// --- Capability clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var extractor port.Extractor
	var knowledge port.KnowledgeAnswerer

	if cfg.NLUProvider == "openai" && cfg.OpenAIKey != "" {
		logger.Info("using in-process LLM for extraction and knowledge",
			zap.String("model", cfg.OpenAIModel),
		)
		llmClient, err := nlu.New(cfg.OpenAIKey, cfg.OpenAIModel, logger)
		if err != nil {
			logger.Fatal("failed to init llm client", zap.Error(err))
		}
		extractor = llmClient
		knowledge = llmClient
	} else {
		logger.Info("using HTTP capability services",
			zap.String("nlu_url", cfg.NLUAPIURL),
			zap.String("knowledge_url", cfg.KnowledgeAPIURL),
		)
		extractor = client.NewExtractorClient(httpClient, cfg.NLUAPIURL, nluBreaker, resilienceCfg)
		knowledge = client.NewKnowledgeClient(httpClient, cfg.KnowledgeAPIURL, knowledgeBreaker, resilienceCfg)
	}

	searcher := client.NewSearchClient(httpClient, cfg.SearchAPIURL, searchBreaker, resilienceCfg)

	// --- Session store ---
	var sessions port.SessionStore
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStore(context.Background(), cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisStore.Close()
		sessions = redisStore
		logger.Info("using redis session store")
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL)
		logger.Warn("REDIS_URL not set, using in-memory session store")
	}

	// --- Dialog core ---
	svc := dialog.NewService(
		extractor,
		searcher,
		knowledge,
		answerCache,
		metrics,
		logger,
		dialog.Config{
			MinConfidence: cfg.MinConfidence,
			HistoryWindow: cfg.HistoryWindow,
			SearchLimit:   cfg.SearchLimit,
		},
	)

	// --- NATS transport (optional) ---
	if cfg.NATSURL != "" {
		natsServer, err := transport.NewNATSServer(cfg.NATSURL, cfg.NATSSubject, svc, sessions, logger)
		if err != nil {
			logger.Fatal("failed to start nats transport", zap.Error(err))
		}
		defer natsServer.Close()
	}

	// --- Router ---
	router := handler.NewRouter(svc, sessions, handler.AuthConfig{
		Secret:   cfg.JWTSecret,
		Required: cfg.AuthRequired,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Serve + graceful shutdown ---
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}

	logger.Info("server stopped")
}

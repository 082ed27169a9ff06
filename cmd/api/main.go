// Package main is the entry point for the assistant API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/goldenfocus/vibelog-assistant/internal/agent"
	"github.com/goldenfocus/vibelog-assistant/internal/config"
	"github.com/goldenfocus/vibelog-assistant/internal/conversation"
	"github.com/goldenfocus/vibelog-assistant/internal/cost"
	"github.com/goldenfocus/vibelog-assistant/internal/embedding"
	"github.com/goldenfocus/vibelog-assistant/internal/handler"
	"github.com/goldenfocus/vibelog-assistant/internal/llm"
	"github.com/goldenfocus/vibelog-assistant/internal/memory"
	"github.com/goldenfocus/vibelog-assistant/internal/middleware"
	"github.com/goldenfocus/vibelog-assistant/internal/model"
	natsclient "github.com/goldenfocus/vibelog-assistant/internal/nats"
	"github.com/goldenfocus/vibelog-assistant/internal/platform"
	"github.com/goldenfocus/vibelog-assistant/internal/vector"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
	"github.com/goldenfocus/vibelog-assistant/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting assistant API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "vibelog-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	reloader := config.NewReloader(cfg)
	if err := reloader.Start(config.Load); err != nil {
		log.Warn("config reload disabled", zap.Error(err))
	}
	defer reloader.Stop()

	// MySQL holds the platform projections and our owned tables.
	db, err := gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Fatal("failed to connect to MySQL", zap.Error(err))
	}
	if err := db.AutoMigrate(&model.Conversation{}, &model.Message{}, &model.Memory{}); err != nil {
		log.Fatal("failed to migrate assistant tables", zap.Error(err))
	}

	// LLM clients. OpenAI serves the agent loop and embeddings; the
	// Anthropic client only titles conversations and is optional.
	openaiClient, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	if err != nil {
		log.Fatal("failed to create OpenAI client", zap.Error(err))
	}
	var titleClient llm.Client
	if cfg.AnthropicAPIKey != "" {
		titleClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
		if err != nil {
			log.Warn("failed to create Anthropic client, titles disabled", zap.Error(err))
			titleClient = nil
		}
	}

	embedder := embedding.NewService(openaiClient, cfg.EmbeddingModel)

	// Semantic index. Milvus in production; without it the service
	// degrades to an in-memory index populated only via the reindex
	// hook, which is enough for dev.
	var index vector.Store
	milvusCtx, cancelMilvus := context.WithTimeout(ctx, 10*time.Second)
	milvusStore, err := vector.NewMilvusStore(milvusCtx, cfg.MilvusAddress, cfg.MilvusCollection, cfg.EmbeddingDim)
	cancelMilvus()
	if err != nil {
		log.Warn("Milvus unavailable, using in-memory index", zap.Error(err))
		index = vector.NewMemStore()
	} else {
		index = milvusStore
		defer milvusStore.Close()
	}
	indexer := vector.NewIndexer(embedder, index)

	// Cost ledger. Redis in production; the in-memory fallback resets
	// the daily ceiling on restart, acceptable for dev only.
	var ledger cost.Ledger
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, using in-memory cost ledger", zap.Error(err))
		ledger = cost.NewMemLedger()
	} else {
		ledger = cost.NewRedisLedger(redisClient)
		defer redisClient.Close()
	}
	governor := cost.NewGovernor(ledger, cfg.DailyCostLimit, log)

	// NATS carries completed turns to the extraction worker.
	nc, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to NATS", zap.Error(err))
	}
	defer nc.Close()

	streams := natsclient.NewStreamManager(nc)
	if err := streams.EnsureStream(ctx); err != nil {
		log.Fatal("failed to ensure turns stream", zap.Error(err))
	}

	memories := memory.NewStore(db, embedder, log)
	worker := memory.NewWorker(streams, memories, log)
	if err := worker.Start(ctx); err != nil {
		log.Fatal("failed to start extraction worker", zap.Error(err))
	}
	defer worker.Stop()

	platformSvc := platform.NewService(db, log)
	convs := conversation.NewStore(db, log)
	titler := conversation.NewTitler(convs, titleClient, cfg.TitleModel, governor, log)

	assembler := agent.NewContextAssembler(platformSvc, memories, index, embedder, cfg.SearchThreshold, log)
	executor := agent.NewExecutor(platformSvc)
	assistant := agent.NewAgent(openaiClient, executor, assembler, governor, convs, streams, titler, reloader, log)

	// Daily spend summary at midnight UTC.
	summary := cron.New(cron.WithLocation(time.UTC))
	if _, err := summary.AddFunc("0 0 * * *", func() {
		day := time.Now().UTC().AddDate(0, 0, -1)
		total, err := governor.DailyTotal(context.Background(), day)
		if err != nil {
			log.Warn("failed to read daily spend", zap.Error(err))
			return
		}
		log.Info("daily spend summary",
			zap.String("day", day.Format("2006-01-02")),
			zap.Float64("total_usd", total),
		)
	}); err != nil {
		log.Warn("spend summary job disabled", zap.Error(err))
	}
	summary.Start()
	defer summary.Stop()

	chatHandler := handler.NewChatHandler(assistant, log)
	convHandler := handler.NewConversationHandler(convs, log)
	memHandler := handler.NewMemoryHandler(memories, log)
	reindexHandler := handler.NewReindexHandler(indexer, log)
	healthHandler := handler.NewHealthHandler(db, nc)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS())
	r.Use(middleware.Logging(log))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/assistant", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.AnonymousAllowed {
				r.Use(middleware.OptionalAuth(cfg.JWTSecret))
			} else {
				r.Use(middleware.Auth(cfg.JWTSecret))
			}
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
			r.Post("/chat", chatHandler.Chat)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Get("/conversations", convHandler.List)
			r.Get("/conversations/{id}/messages", convHandler.Messages)

			r.Get("/memories", memHandler.List)
			r.Delete("/memories", memHandler.Clear)
			r.Delete("/memories/{id}", memHandler.Delete)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireScope("admin"))
				r.Post("/reindex", reindexHandler.Reindex)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
	}

	go func() {
		log.Info("listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

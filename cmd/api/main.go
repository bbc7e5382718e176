// Package main is the entry point for the API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/savoir-ai/whatsapp-assistant/internal/assistant"
	"github.com/savoir-ai/whatsapp-assistant/internal/config"
	"github.com/savoir-ai/whatsapp-assistant/internal/handler"
	"github.com/savoir-ai/whatsapp-assistant/internal/middleware"
	natsclient "github.com/savoir-ai/whatsapp-assistant/internal/nats"
	"github.com/savoir-ai/whatsapp-assistant/internal/retrieval"
	"github.com/savoir-ai/whatsapp-assistant/internal/store"
	"github.com/savoir-ai/whatsapp-assistant/internal/tools"
	"github.com/savoir-ai/whatsapp-assistant/internal/whatsapp"
	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
	"github.com/savoir-ai/whatsapp-assistant/pkg/tracing"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "whatsapp-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Fatal("failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
				log.Error("failed to shut down tracing", zap.Error(err))
			}
		}()
	}

	// Thread mappings go to NATS KV when a server is configured,
	// otherwise to process memory.
	var threads store.ThreadStore = store.NewMemoryThreadStore()
	var nc *natsclient.Client
	if cfg.NATSURL != "" {
		nc, err = natsclient.Connect(natsclient.Config{
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

		threads, err = natsclient.NewThreadStore(ctx, nc)
		if err != nil {
			log.Fatal("failed to open thread store", zap.Error(err))
		}
		log.Info("thread store backed by NATS KV", zap.String("url", cfg.NATSURL))
	} else {
		log.Warn("NATS_URL not set, thread mappings are kept in memory")
	}

	retriever, err := retrieval.New(retrieval.Config{
		APIKey:  cfg.RetrievalAPIKey,
		BaseURL: cfg.RetrievalBaseURL,
		Timeout: cfg.RetrievalTimeout,
	}, log)
	if err != nil {
		log.Fatal("failed to create retrieval client", zap.Error(err))
	}
	defer retriever.Close()

	registry := tools.NewRegistry(retriever, log)

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY is required")
	}
	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)

	assistantID, err := assistant.Provision(ctx, openaiClient, cfg.AssistantID, registry.Definitions(), cfg.AssistantSync, log)
	if err != nil {
		log.Fatal("failed to provision assistant", zap.Error(err))
	}

	engine := assistant.NewEngine(openaiClient, registry, threads, assistant.Config{
		AssistantID:  assistantID,
		PollInterval: cfg.PollInterval,
		PollMaxTicks: cfg.PollMaxTicks,
	}, log)

	sender, err := whatsapp.NewSender(whatsapp.SenderConfig{
		APIKey:        cfg.WhatsAppAPIKey,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
	}, log)
	if err != nil {
		log.Fatal("failed to create WhatsApp sender", zap.Error(err))
	}

	transcriber := whatsapp.NewTranscriber(sender, openaiClient, log)

	webhookHandler := handler.NewWebhookHandler(cfg.WhatsAppVerifyToken, engine, sender, transcriber, log)
	retrievalHandler := handler.NewRetrievalHandler(retriever, sender, log)
	healthHandler := handler.NewHealthHandler(nc)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Logging(log))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Get("/webhook", webhookHandler.Verify)
		r.Post("/webhook", webhookHandler.Receive)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS())
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/collections", retrievalHandler.CreateCollection)
		r.Get("/collections", retrievalHandler.ListCollections)
		r.Post("/documents", retrievalHandler.CreateDocument)
		r.Post("/search", retrievalHandler.Search)
		r.Post("/rag", retrievalHandler.RAG)
		r.Post("/messages", retrievalHandler.SendMessage)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

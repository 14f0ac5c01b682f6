package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/officehub/backend/internal/api/handlers"
	"github.com/officehub/backend/internal/api/middleware"
	"github.com/officehub/backend/internal/common/config"
	"github.com/officehub/backend/internal/domain/ledger"
	"github.com/officehub/backend/internal/domain/quotation"
	"github.com/officehub/backend/internal/platform/auth"
	dynamoClient "github.com/officehub/backend/internal/platform/dynamodb/client"
	dynamodbRepository "github.com/officehub/backend/internal/platform/dynamodb/repository"
	"github.com/officehub/backend/internal/platform/events"
	eventsKafka "github.com/officehub/backend/internal/platform/events/kafka"
	"github.com/officehub/backend/internal/platform/session"
	sessionMemory "github.com/officehub/backend/internal/platform/session/memory"
	sessionRedis "github.com/officehub/backend/internal/platform/session/redis"
	"github.com/officehub/backend/internal/platform/upstream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	securityLog, err := zap.NewProduction()
	if err != nil {
		logger.Error("failed to initialize security logger", "error", err)
		os.Exit(1)
	}
	defer securityLog.Sync()

	ctx := context.Background()

	store, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize session store", "backend", cfg.SessionBackend, "error", err)
		os.Exit(1)
	}

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, logger)
	ledgerService := ledger.NewService(client)
	quotationService := quotation.NewService(store, handlers.QuotationRecorder{Client: client}, cfg.SessionTTL, logger)
	verifier := auth.NewVerifier(ctx, cfg.JWKSURL, cfg.TokenIssuer, securityLog)

	mux := http.NewServeMux()
	handlers.Health(mux)
	handlers.NewPageHandler(client, store, publisher, cfg.SessionTTL, logger).Register(mux)
	handlers.NewLedgerHandler(ledgerService).Register(mux)
	handlers.NewQuotationHandler(quotationService, publisher, logger).Register(mux)

	handler := middleware.Chain(mux,
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.Recovery(logger),
		middleware.Authenticate(verifier, securityLog),
	)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

func newSessionStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Store, error) {
	switch cfg.SessionBackend {
	case "redis":
		return sessionRedis.NewStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "dynamodb":
		client, err := dynamoClient.NewDynamoDBClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		return dynamodbRepository.NewDynamoDBSessionStore(client, cfg.DynamoDBTableName, logger), nil
	default:
		return sessionMemory.NewStore(), nil
	}
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if !cfg.EventsEnabled() {
		logger.Info("no Kafka brokers configured, mutation events disabled")
		return events.NopPublisher{}
	}
	logger.Info("publishing mutation events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return eventsKafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
}

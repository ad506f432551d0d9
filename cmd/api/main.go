// Package main is the entry point for the messaging server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/capitalize-ai/marketplace-messaging/internal/auth"
	"github.com/capitalize-ai/marketplace-messaging/internal/config"
	"github.com/capitalize-ai/marketplace-messaging/internal/handler"
	natsclient "github.com/capitalize-ai/marketplace-messaging/internal/nats"
	"github.com/capitalize-ai/marketplace-messaging/internal/realtime"
	"github.com/capitalize-ai/marketplace-messaging/internal/service"
	"github.com/capitalize-ai/marketplace-messaging/internal/store"
	"github.com/capitalize-ai/marketplace-messaging/pkg/logger"
	"github.com/capitalize-ai/marketplace-messaging/pkg/tracing"
)

const inMemoryPath = ":memory:"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting messaging server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "marketplace-messaging", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the message database
	db, err := openDatabase(cfg.BadgerPath)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	// Connect to NATS
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:           cfg.NATSURL,
		CAFile:        cfg.NATSCAFile,
		CertFile:      cfg.NATSCertFile,
		KeyFile:       cfg.NATSKeyFile,
		Token:         cfg.NATSToken,
		ReconnectWait: cfg.NATSReconnectWait,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to NATS", zap.Error(err))
	}
	defer natsClient.Close()

	// Ensure the notifications stream exists
	if err := natsclient.EnsureStream(ctx, natsClient); err != nil {
		log.Fatal("failed to ensure stream", zap.Error(err))
	}

	// Initialize services
	hub := realtime.NewHub(log)
	messageSvc := service.NewMessageService(
		store.NewMessageStore(db),
		store.NewAccountStore(db),
		natsclient.NewNotifier(natsClient),
		hub,
		cfg.NotifyTimeout,
		log,
	)
	defer messageSvc.Close()

	router := handler.NewRouter(handler.RouterConfig{
		Verifier:   auth.NewVerifier(cfg.JWTSecret),
		Hub:        hub,
		Messages:   messageSvc,
		Dispatcher: service.NewGateway(messageSvc, log),
		NATS:       natsClient,
		Socket: handler.SocketConfig{
			SendBuffer:     cfg.WSSendBuffer,
			WriteTimeout:   cfg.WSWriteTimeout,
			PongTimeout:    cfg.WSPongTimeout,
			MaxMessageSize: cfg.WSMaxMessageSize,
		},
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		Logger:            log,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	server.RegisterOnShutdown(hub.CloseAll)

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
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

	log.Info("server stopped")
}

func openDatabase(path string) (*badger.DB, error) {
	if path == inMemoryPath {
		return store.OpenInMemory()
	}
	return store.Open(path)
}

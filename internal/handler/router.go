package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/marketplace-messaging/internal/auth"
	"github.com/capitalize-ai/marketplace-messaging/internal/middleware"
	"github.com/capitalize-ai/marketplace-messaging/internal/realtime"
	"github.com/capitalize-ai/marketplace-messaging/internal/service"
	"github.com/capitalize-ai/marketplace-messaging/pkg/logger"
)

// RouterConfig collects what the HTTP surface is built from.
type RouterConfig struct {
	Verifier          *auth.Verifier
	Hub               *realtime.Hub
	Messages          *service.MessageService
	Dispatcher        realtime.Dispatcher
	NATS              ConnectionChecker
	Socket            SocketConfig
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	Logger            *logger.Logger
}

// NewRouter builds the chi router for the REST and websocket surface.
func NewRouter(cfg RouterConfig) http.Handler {
	healthHandler := NewHealthHandler(cfg.NATS)
	messageHandler := NewMessageHandler(cfg.Messages, cfg.Logger)
	presenceHandler := NewPresenceHandler(cfg.Hub)
	socketHandler := NewSocketHandler(cfg.Verifier, cfg.Hub, cfg.Dispatcher, cfg.Socket, cfg.Logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Realtime channel authenticates itself before upgrading
	r.With(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)).Get("/ws", socketHandler.Serve)

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Verifier, cfg.Logger))
		r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/messages", messageHandler.Send)
		r.Delete("/messages/{id}", messageHandler.Delete)

		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Get("/messages", messageHandler.List)
			r.Post("/read", messageHandler.MarkRead)
		})

		r.Get("/presence/online", presenceHandler.Online)
	})

	return r
}

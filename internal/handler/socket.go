package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/capitalize-ai/marketplace-messaging/internal/auth"
	"github.com/capitalize-ai/marketplace-messaging/internal/middleware"
	"github.com/capitalize-ai/marketplace-messaging/internal/realtime"
	"github.com/capitalize-ai/marketplace-messaging/pkg/logger"
	"github.com/capitalize-ai/marketplace-messaging/pkg/metrics"
)

// SocketConfig tunes accepted websocket connections.
type SocketConfig struct {
	SendBuffer     int
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
	CheckOrigin    func(r *http.Request) bool
}

// SocketHandler authenticates and upgrades realtime connections.
type SocketHandler struct {
	verifier   *auth.Verifier
	hub        *realtime.Hub
	dispatcher realtime.Dispatcher
	upgrader   websocket.Upgrader
	cfg        SocketConfig
	logger     *logger.Logger
}

// NewSocketHandler creates a new socket handler.
func NewSocketHandler(
	verifier *auth.Verifier,
	hub *realtime.Hub,
	dispatcher realtime.Dispatcher,
	cfg SocketConfig,
	log *logger.Logger,
) *SocketHandler {
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &SocketHandler{
		verifier:   verifier,
		hub:        hub,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		cfg:    cfg,
		logger: log,
	}
}

// Serve handles GET /ws. The credential is verified before the upgrade; a
// rejected attempt never touches presence state.
func (h *SocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.Verify(auth.TokenFromRequest(r))
	if err != nil {
		metrics.AuthFailuresTotal.WithLabelValues("websocket").Inc()
		writeError(w, http.StatusUnauthorized, "invalid or missing credentials")
		return
	}
	r = r.WithContext(middleware.WithUserID(r.Context(), identity))

	var header http.Header
	if protocol := auth.TokenSubprotocol(r); protocol != "" {
		header = http.Header{"Sec-WebSocket-Protocol": []string{protocol}}
	}

	socket, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade has already answered the client.
		h.logger.Debug("websocket upgrade failed", zap.String("user_id", identity), zap.Error(err))
		return
	}

	conn := realtime.NewConn(identity, h.cfg.SendBuffer, h.logger)
	client := realtime.NewClient(conn, socket, h.dispatcher, realtime.ClientOptions{
		WriteTimeout:   h.cfg.WriteTimeout,
		PongTimeout:    h.cfg.PongTimeout,
		MaxMessageSize: h.cfg.MaxMessageSize,
	})

	metrics.IncrementWSConnections()
	defer metrics.DecrementWSConnections()

	h.hub.Connect(conn)
	h.logger.Info("websocket connected",
		zap.String("user_id", identity),
		zap.String("connection_id", conn.ID()),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		client.WritePump()
	}()

	// The request context ends when the handler returns, and inbound events
	// must not be cancelled by it mid-flight.
	client.ReadPump(context.WithoutCancel(r.Context()))

	h.hub.Disconnect(conn)
	<-done
	h.logger.Info("websocket disconnected",
		zap.String("user_id", identity),
		zap.String("connection_id", conn.ID()),
	)
}

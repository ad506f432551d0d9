package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/capitalize-ai/marketplace-messaging/internal/model"
)

// Socket is the subset of *websocket.Conn used by the pumps.
type Socket interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Dispatcher handles inbound control events read from a connection.
type Dispatcher interface {
	Dispatch(ctx context.Context, c *Conn, evt model.InboundEvent)
}

// ClientOptions tunes the socket pumps.
type ClientOptions struct {
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 64 * 1024
	}
	return o
}

// Client pumps events between a Socket and a Conn.
type Client struct {
	conn       *Conn
	socket     Socket
	dispatcher Dispatcher
	opts       ClientOptions
}

// NewClient binds a socket to a connection handle.
func NewClient(conn *Conn, socket Socket, dispatcher Dispatcher, opts ClientOptions) *Client {
	return &Client{
		conn:       conn,
		socket:     socket,
		dispatcher: dispatcher,
		opts:       opts.withDefaults(),
	}
}

// ReadPump reads inbound events until the socket fails or closes.
func (c *Client) ReadPump(ctx context.Context) {
	c.socket.SetReadLimit(c.opts.MaxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.conn.logger.Debug("socket closed unexpectedly", zap.Error(err))
			}
			return
		}

		var evt model.InboundEvent
		if err := json.Unmarshal(data, &evt); err != nil || evt.Type == "" {
			c.conn.Send(model.Envelope{
				Type: model.EventError,
				Data: model.ErrorEvent{Code: "bad_request", Message: "malformed event"},
			})
			continue
		}

		c.dispatcher.Dispatch(ctx, c.conn, evt)
	}
}

// WritePump drains the outbound queue into the socket and keeps the
// connection alive with pings. It returns when the queue is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = c.socket.Close()
	}()

	for {
		select {
		case payload, ok := <-c.conn.Outbound():
			if !ok {
				_ = c.socket.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(c.opts.WriteTimeout))
				return
			}
			_ = c.socket.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.conn.logger.Debug("socket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteTimeout)); err != nil {
				c.conn.logger.Debug("socket ping failed", zap.Error(err))
				return
			}
		}
	}
}

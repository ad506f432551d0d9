// Package realtime delivers typed events to live client connections.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/marketplace-messaging/internal/model"
	"github.com/capitalize-ai/marketplace-messaging/pkg/logger"
	"github.com/capitalize-ai/marketplace-messaging/pkg/metrics"
)

// Conn is one live connection bound to a verified identity. Outbound events
// are queued in a bounded buffer drained by the write pump.
type Conn struct {
	id       string
	identity string
	send     chan []byte
	logger   *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewConn creates a connection handle with an outbound queue of size buffer.
func NewConn(identity string, buffer int, log *logger.Logger) *Conn {
	if buffer <= 0 {
		buffer = 1
	}
	id := uuid.NewString()
	return &Conn{
		id:       id,
		identity: identity,
		send:     make(chan []byte, buffer),
		logger:   log.WithConnection(id, identity),
	}
}

// ID returns the connection id.
func (c *Conn) ID() string { return c.id }

// Identity returns the identity bound at authentication time.
func (c *Conn) Identity() string { return c.identity }

// Outbound is drained by the write pump. It is closed by Close.
func (c *Conn) Outbound() <-chan []byte { return c.send }

// Send encodes env and enqueues it. It never blocks.
func (c *Conn) Send(env model.Envelope) bool {
	payload, err := json.Marshal(env)
	if err != nil {
		c.logger.Error("failed to encode event", zap.String("type", string(env.Type)), zap.Error(err))
		return false
	}
	return c.enqueue(env.Type, payload)
}

// enqueue drops the event when the queue is full or the connection is closed.
func (c *Conn) enqueue(eventType model.EventType, payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		metrics.RecordDropped(string(eventType), "closed")
		return false
	}

	select {
	case c.send <- payload:
		metrics.RecordDelivered(string(eventType))
		return true
	default:
		metrics.RecordDropped(string(eventType), "queue_full")
		c.logger.Warn("outbound queue full, dropping event", zap.String("type", string(eventType)))
		return false
	}
}

// Close stops accepting events and closes the outbound queue. Safe to call twice.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

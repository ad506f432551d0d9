package realtime

import (
	"go.uber.org/zap"

	"github.com/capitalize-ai/marketplace-messaging/internal/model"
	"github.com/capitalize-ai/marketplace-messaging/internal/presence"
	"github.com/capitalize-ai/marketplace-messaging/pkg/logger"
)

// Hub owns the live layer: who is online, what they are looking at, and how
// events reach them.
type Hub struct {
	presence *presence.Registry[*Conn]
	focus    *presence.FocusTracker
	router   *Router
	logger   *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	focus := presence.NewFocusTracker()
	registry := presence.NewRegistry[*Conn](focus)
	return &Hub{
		presence: registry,
		focus:    focus,
		router:   NewRouter(registry, log),
		logger:   log,
	}
}

// Connect registers an authenticated connection and broadcasts the online set.
func (h *Hub) Connect(c *Conn) {
	first := h.presence.Register(c.Identity(), c)
	h.logger.Debug("connection registered",
		zap.String("user_id", c.Identity()),
		zap.String("connection_id", c.ID()),
		zap.Bool("first", first),
	)
	h.router.BroadcastOnline()
}

// Disconnect unregisters c and closes its queue. When c was the identity's
// last connection, its focus is cleared and the online set is broadcast.
func (h *Hub) Disconnect(c *Conn) {
	last := h.presence.Unregister(c.Identity(), c)
	c.Close()
	h.logger.Debug("connection unregistered",
		zap.String("user_id", c.Identity()),
		zap.String("connection_id", c.ID()),
		zap.Bool("last", last),
	)
	if last {
		h.router.BroadcastOnline()
	}
}

// IsOnline reports whether identity has a live connection.
func (h *Hub) IsOnline(identity string) bool {
	return h.presence.IsOnline(identity)
}

// OnlineIdentities returns the sorted set of online identities.
func (h *Hub) OnlineIdentities() []string {
	return h.presence.OnlineIdentities()
}

// IsFocused reports whether identity is viewing conversationID right now.
func (h *Hub) IsFocused(identity, conversationID string) bool {
	return h.focus.IsFocused(identity, conversationID)
}

// FocusOf returns the conversation identity is viewing.
func (h *Hub) FocusOf(identity string) (string, bool) {
	return h.focus.FocusOf(identity)
}

// Join records that identity opened conversationID.
func (h *Hub) Join(identity, conversationID string) {
	h.focus.SetFocus(identity, conversationID)
}

// Leave clears the focus of identity if it is still conversationID.
func (h *Hub) Leave(identity, conversationID string) bool {
	return h.focus.ClearFocus(identity, conversationID)
}

// DeliverTo sends an event to every connection of identity.
func (h *Hub) DeliverTo(identity string, eventType model.EventType, data any) int {
	return h.router.DeliverTo(identity, model.Envelope{Type: eventType, Data: data})
}

// CloseAll closes every live connection. Each write pump then sends a close
// frame and the read side unregisters the connection as usual.
func (h *Hub) CloseAll() {
	conns := h.presence.All()
	for _, c := range conns {
		c.Close()
	}
	h.logger.Info("closed live connections", zap.Int("count", len(conns)))
}

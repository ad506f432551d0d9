package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/marketplace-messaging/internal/model"
	"github.com/capitalize-ai/marketplace-messaging/internal/presence"
	"github.com/capitalize-ai/marketplace-messaging/pkg/logger"
	"github.com/capitalize-ai/marketplace-messaging/pkg/metrics"
)

// Router fans events out to the connections of an identity, or to everyone.
//
// Deliveries are serialized, so events for one identity are enqueued in the
// order the router was asked to deliver them. Enqueueing never blocks.
type Router struct {
	mu       sync.Mutex
	registry *presence.Registry[*Conn]
	logger   *logger.Logger
}

// NewRouter creates a router over the given presence registry.
func NewRouter(registry *presence.Registry[*Conn], log *logger.Logger) *Router {
	return &Router{registry: registry, logger: log}
}

// DeliverTo enqueues env on every connection of identity and returns how many
// accepted it. An offline identity is a silent drop.
func (r *Router) DeliverTo(identity string, env model.Envelope) int {
	payload, ok := r.encode(env)
	if !ok {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conns := r.registry.ConnectionsFor(identity)
	if len(conns) == 0 {
		metrics.RecordDropped(string(env.Type), "offline")
		return 0
	}

	delivered := 0
	for _, c := range conns {
		if c.enqueue(env.Type, payload) {
			delivered++
		}
	}
	return delivered
}

// BroadcastOnline sends the current online set to every connection. The set is
// read under the delivery lock so the newest broadcast is never overtaken by
// an older snapshot.
func (r *Router) BroadcastOnline() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	env := model.Envelope{
		Type: model.EventOnlineIdentities,
		Data: model.OnlineIdentitiesEvent{Users: r.registry.OnlineIdentities()},
	}
	payload, ok := r.encode(env)
	if !ok {
		return 0
	}

	delivered := 0
	for _, c := range r.registry.All() {
		if c.enqueue(env.Type, payload) {
			delivered++
		}
	}
	return delivered
}

func (r *Router) encode(env model.Envelope) ([]byte, bool) {
	payload, err := json.Marshal(env)
	if err != nil {
		r.logger.Error("failed to encode event", zap.String("type", string(env.Type)), zap.Error(err))
		return nil, false
	}
	return payload, true
}

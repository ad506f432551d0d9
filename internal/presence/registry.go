// Package presence tracks which identities are online and which conversation
// each of them is looking at.
package presence

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/capitalize-ai/marketplace-messaging/pkg/metrics"
)

// Handle is a live connection enumerated under an identity.
type Handle interface {
	ID() string
}

// Registry maps identities to their live connection handles. An identity is
// online iff it has at least one handle.
type Registry[H Handle] struct {
	mu      sync.RWMutex
	entries map[string]map[string]H // identity -> connection id -> handle
	focus   *FocusTracker
}

// NewRegistry creates an empty registry. When focus is non-nil, the focus of an
// identity is cleared in the same critical section that removes its last handle.
func NewRegistry[H Handle](focus *FocusTracker) *Registry[H] {
	return &Registry[H]{
		entries: make(map[string]map[string]H),
		focus:   focus,
	}
}

// Register adds h under identity. It reports whether the identity just came online.
// Registering the same handle twice is a no-op.
func (r *Registry[H]) Register(identity string, h H) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles, ok := r.entries[identity]
	if !ok {
		handles = make(map[string]H)
		r.entries[identity] = handles
	}
	handles[h.ID()] = h

	metrics.OnlineIdentities.Set(float64(len(r.entries)))
	return !ok
}

// Unregister removes h from identity. It reports whether that was the last
// handle, in which case the identity is offline and its focus is cleared.
func (r *Registry[H]) Unregister(identity string, h H) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles, ok := r.entries[identity]
	if !ok {
		return false
	}
	if _, ok := handles[h.ID()]; !ok {
		return false
	}
	delete(handles, h.ID())
	if len(handles) > 0 {
		return false
	}

	delete(r.entries, identity)
	if r.focus != nil {
		r.focus.Clear(identity)
	}

	metrics.OnlineIdentities.Set(float64(len(r.entries)))
	return true
}

// IsOnline reports whether identity has at least one live connection.
func (r *Registry[H]) IsOnline(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries[identity]) > 0
}

// ConnectionsFor returns a copy of the handles registered for identity.
func (r *Registry[H]) ConnectionsFor(identity string) []H {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.entries[identity])
}

// OnlineIdentities returns the sorted set of online identities.
func (r *Registry[H]) OnlineIdentities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identities := lo.Keys(r.entries)
	sort.Strings(identities)
	return identities
}

// All returns every registered handle.
func (r *Registry[H]) All() []H {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []H
	for _, handles := range r.entries {
		all = append(all, lo.Values(handles)...)
	}
	return all
}

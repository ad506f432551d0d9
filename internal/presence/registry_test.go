package presence

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type handle string

func (h handle) ID() string { return string(h) }

func TestRegistry_Register_First_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry[handle](NewFocusTracker())

	// Given nobody is connected
	req.False(registry.IsOnline("U1"))
	req.Empty(registry.OnlineIdentities())

	// When a first connection registers
	first := registry.Register("U1", handle("c1"))

	// Then the identity is online
	req.True(first)
	req.True(registry.IsOnline("U1"))
	req.Equal([]string{"U1"}, registry.OnlineIdentities())
	req.Equal([]handle{"c1"}, registry.ConnectionsFor("U1"))
}

func TestRegistry_Register_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry[handle](nil)

	req.True(registry.Register("U1", handle("c1")))
	req.False(registry.Register("U1", handle("c1")))

	req.Len(registry.ConnectionsFor("U1"), 1)
}

func TestRegistry_Partial_Disconnect_Keeps_Presence_And_Focus(t *testing.T) {
	req := require.New(t)
	focus := NewFocusTracker()
	registry := NewRegistry[handle](focus)

	// Given one identity with two tabs viewing a conversation
	registry.Register("U2", handle("tab1"))
	registry.Register("U2", handle("tab2"))
	focus.SetFocus("U2", "U1_U2")

	// When one tab disconnects
	last := registry.Unregister("U2", handle("tab1"))

	// Then presence and focus are unchanged
	req.False(last)
	req.True(registry.IsOnline("U2"))
	req.True(focus.IsFocused("U2", "U1_U2"))
	req.Equal([]handle{"tab2"}, registry.ConnectionsFor("U2"))

	// When the last tab disconnects
	last = registry.Unregister("U2", handle("tab2"))

	// Then both are cleared
	req.True(last)
	req.False(registry.IsOnline("U2"))
	_, focused := focus.FocusOf("U2")
	req.False(focused)
	req.Empty(registry.OnlineIdentities())
}

func TestRegistry_Unregister_Unknown_Is_Offline_Not_Fault(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry[handle](NewFocusTracker())

	req.False(registry.Unregister("ghost", handle("c1")))

	registry.Register("U1", handle("c1"))
	req.False(registry.Unregister("U1", handle("other")))
	req.True(registry.IsOnline("U1"))
	req.Empty(registry.ConnectionsFor("ghost"))
}

func TestRegistry_ConnectionsFor_Returns_Copy(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry[handle](nil)
	registry.Register("U1", handle("c1"))

	conns := registry.ConnectionsFor("U1")
	conns[0] = handle("tampered")

	req.Equal([]handle{"c1"}, registry.ConnectionsFor("U1"))
}

func TestRegistry_All(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry[handle](nil)
	registry.Register("U1", handle("c1"))
	registry.Register("U1", handle("c2"))
	registry.Register("U2", handle("c3"))

	req.ElementsMatch([]handle{"c1", "c2", "c3"}, registry.All())
}

func TestRegistry_Concurrent_Connect_Disconnect(t *testing.T) {
	req := require.New(t)
	focus := NewFocusTracker()
	registry := NewRegistry[handle](focus)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := handle(uuid.NewString())
			registry.Register("U1", h)
			focus.SetFocus("U1", "U1_U2")
			registry.Unregister("U1", h)
		}()
	}
	wg.Wait()

	// Every handle is gone, so the identity is offline
	req.False(registry.IsOnline("U1"))
	req.Empty(registry.OnlineIdentities())
}

package presence

import (
	"sync"
)

// FocusTracker records the single conversation each identity is viewing.
type FocusTracker struct {
	mu    sync.RWMutex
	focus map[string]string // identity -> conversation id
}

// NewFocusTracker creates an empty tracker.
func NewFocusTracker() *FocusTracker {
	return &FocusTracker{focus: make(map[string]string)}
}

// SetFocus replaces any previous focus of identity.
func (f *FocusTracker) SetFocus(identity, conversationID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focus[identity] = conversationID
}

// ClearFocus clears the focus of identity only if it still equals
// conversationID, so a late leave cannot undo a newer join.
func (f *FocusTracker) ClearFocus(identity, conversationID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if current, ok := f.focus[identity]; ok && current == conversationID {
		delete(f.focus, identity)
		return true
	}
	return false
}

// Clear drops any focus of identity.
func (f *FocusTracker) Clear(identity string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.focus, identity)
}

// FocusOf returns the conversation identity is viewing, if any.
func (f *FocusTracker) FocusOf(identity string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	conversationID, ok := f.focus[identity]
	return conversationID, ok
}

// IsFocused reports whether identity is currently viewing conversationID.
func (f *FocusTracker) IsFocused(identity, conversationID string) bool {
	current, ok := f.FocusOf(identity)
	return ok && current == conversationID
}

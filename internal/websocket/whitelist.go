package websocket

import (
	"errors"
	"slices"
	"sync"
)

var (
	// ErrActionAlreadyExists is returned when trying to add a duplicate action
	ErrActionAlreadyExists = errors.New("action already exists in whitelist")
	// ErrInvalidAction is returned when an empty action is provided
	ErrInvalidAction = errors.New("action cannot be empty")
)

// Whitelist holds the actions clients may send. Anything else is dropped.
type Whitelist struct {
	mu      sync.RWMutex
	actions []string
}

// NewWhitelist creates a whitelist with the given actions.
func NewWhitelist(actions ...string) *Whitelist {
	w := &Whitelist{}
	for _, a := range actions {
		_ = w.Add(a)
	}
	return w
}

// IsAllowed reports whether action may be forwarded.
func (w *Whitelist) IsAllowed(action string) bool {
	if action == "" {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Contains(w.actions, action)
}

// Add allows another action.
func (w *Whitelist) Add(action string) error {
	if action == "" {
		return ErrInvalidAction
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if slices.Contains(w.actions, action) {
		return ErrActionAlreadyExists
	}
	w.actions = append(w.actions, action)
	return nil
}

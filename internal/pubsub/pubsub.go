// Package pubsub is the in-process message bus. Game notifications are
// mirrored onto it so that rendering and websocket fan-out run decoupled from
// the engine.
package pubsub

import (
	"context"
)

// Message is what travels on the bus.
type Message struct {
	Topic string // e.g. "planspiel.phaseStarted"
	// UserID is the websocket client or player the message comes from or is
	// meant for. Empty for game notifications.
	UserID   string
	Payload  []byte // usually JSON or an HTML fragment
	Metadata map[string]string
}

// Handler processes one message. A returned error is logged; the message is
// still acknowledged.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages.
type Subscriber interface {
	// Subscribe runs handler for every message on topic in the background
	// until ctx is canceled or the subscriber is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

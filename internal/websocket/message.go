package websocket

import "encoding/json"

// Message is the envelope sent to data clients.
type Message struct {
	Type    string `json:"type"` // "data" or "command"
	Target  string `json:"target,omitempty"`
	Payload any    `json:"payload"`
}

// MarshalJSON sends []byte payloads as strings, and json.RawMessage as is.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	out := alias(m)
	switch p := m.Payload.(type) {
	case json.RawMessage:
		out.Payload = p
	case []byte:
		out.Payload = string(p)
	}
	return json.Marshal(out)
}

// Command asks the client to do something, such as reload the page.
type Command struct {
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// NewDataMessage wraps data for a named target, e.g. "phaseStarted".
func NewDataMessage(target string, data any) *Message {
	return &Message{Type: "data", Target: target, Payload: data}
}

// NewCommand creates a new command message
func NewCommand(name string, payload ...any) *Message {
	var p any
	if len(payload) > 0 {
		p = payload[0]
	}
	return &Message{Type: "command", Payload: Command{Name: name, Payload: p}}
}

// Common command names
const (
	CmdReload           = "reload"
	CmdShowNotification = "show_notification"
)

// ClientMessage is what clients send up the socket.
type ClientMessage struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

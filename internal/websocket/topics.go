package websocket

import (
	"errors"

	"github.com/nfrund/planspiel/internal/topicmgr"
)

// Metadata key naming the recipient of a direct message.
const MetaRecipientID = "recipient_id"

var (
	// TopicHTMLBroadcast sends an HTML fragment to every HTML client.
	TopicHTMLBroadcast = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.html.broadcast",
		Description: "Broadcast HTML content to all connected HTML WebSocket clients",
		Metadata:    map[string]any{"endpoint_type": "html", "routing_type": "broadcast"},
	})

	// TopicHTMLDirect sends an HTML fragment to the clients named by the
	// recipient_id metadata.
	TopicHTMLDirect = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.html.direct",
		Description: "Send HTML content to a specific HTML WebSocket client",
		Metadata:    map[string]any{"endpoint_type": "html", "routing_type": "direct", "requires": []string{MetaRecipientID}},
	})

	TopicDataBroadcast = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.data.broadcast",
		Description: "Broadcast JSON data to all connected Data WebSocket clients",
		Metadata:    map[string]any{"endpoint_type": "data", "routing_type": "broadcast"},
	})

	TopicDataDirect = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.data.direct",
		Description: "Send JSON data to a specific Data WebSocket client",
		Metadata:    map[string]any{"endpoint_type": "data", "routing_type": "direct", "requires": []string{MetaRecipientID}},
	})

	// TopicClientReady is published when a client connects.
	TopicClientReady = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.ready",
		Description: "Published when a new WebSocket client connects",
		Example:     `{"endpoint":"html","clientID":"3f0c..."}`,
	})

	// TopicClientMessage carries whitelisted actions sent by clients.
	TopicClientMessage = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.message",
		Description: "An action sent by a WebSocket client",
		Example:     `{"action":"state.request"}`,
	})

	TopicClientDisconnected = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.disconnected",
		Description: "Published when a WebSocket client disconnects",
		Example:     `{"endpoint":"data","clientID":"3f0c..."}`,
	})
)

// RegisterTopics registers the websocket topics with manager. Topics that
// are already registered are skipped.
func RegisterTopics(manager *topicmgr.Manager) error {
	for _, topic := range []topicmgr.Topic{
		TopicHTMLBroadcast,
		TopicHTMLDirect,
		TopicDataBroadcast,
		TopicDataDirect,
		TopicClientReady,
		TopicClientMessage,
		TopicClientDisconnected,
	} {
		if err := manager.Register(topic); err != nil {
			var te *topicmgr.TopicError
			if errors.As(err, &te) && te.Type == topicmgr.ErrorDuplicateRegistration {
				continue
			}
			return err
		}
	}
	return nil
}

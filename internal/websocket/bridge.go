// Package websocket fans bus messages out to browser connections.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/planspiel/internal/pubsub"
)

// ConnectionType defines the type of WebSocket connection.
type ConnectionType int

const (
	// ConnectionTypeHTML is for clients that consume HTML fragments (htmx).
	ConnectionTypeHTML ConnectionType = iota
	// ConnectionTypeData is for clients that consume JSON.
	ConnectionTypeData
)

func (t ConnectionType) String() string {
	if t == ConnectionTypeData {
		return "data"
	}
	return "html"
}

// IdentifyFunc returns the client id of a request, or "" if the request may
// not open a socket.
type IdentifyFunc func(c echo.Context) string

type client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	connType ConnectionType
}

type outbound struct {
	payload  []byte
	connType ConnectionType
	// recipient is empty for broadcasts.
	recipient string
}

// Bridge manages all WebSocket connections and routes messages between
// connected clients and the message bus.
type Bridge struct {
	publisher pubsub.Publisher
	whitelist *Whitelist
	logger    *slog.Logger
	identify  IdentifyFunc

	register   chan *client
	unregister chan *client
	outbound   chan outbound

	mu      sync.RWMutex
	clients map[string][]*client

	done chan struct{}
	wg   sync.WaitGroup
}

// NewBridge initializes a new Bridge. Run must be started before clients
// connect.
func NewBridge(pub pubsub.Publisher, identify IdentifyFunc, whitelist *Whitelist, logger *slog.Logger) *Bridge {
	if whitelist == nil {
		whitelist = NewWhitelist()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		publisher:  pub,
		whitelist:  whitelist,
		logger:     logger,
		identify:   identify,
		register:   make(chan *client),
		unregister: make(chan *client),
		outbound:   make(chan outbound, 256),
		clients:    make(map[string][]*client),
		done:       make(chan struct{}),
	}
}

// Run routes messages until ctx is canceled, then closes every connection.
func (b *Bridge) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for id, cs := range b.clients {
				for _, c := range cs {
					close(c.send)
				}
				delete(b.clients, id)
			}
			b.mu.Unlock()
			return

		case c := <-b.register:
			b.mu.Lock()
			b.clients[c.id] = append(b.clients[c.id], c)
			b.mu.Unlock()
			b.logger.Info("WebSocket client registered", "client_id", c.id, "type", c.connType)

		case c := <-b.unregister:
			b.mu.Lock()
			cs := b.clients[c.id]
			for i, other := range cs {
				if other == c {
					b.clients[c.id] = append(cs[:i:i], cs[i+1:]...)
					close(c.send)
					break
				}
			}
			if len(b.clients[c.id]) == 0 {
				delete(b.clients, c.id)
			}
			b.mu.Unlock()
			b.logger.Info("WebSocket client unregistered", "client_id", c.id, "type", c.connType)

		case m := <-b.outbound:
			b.mu.RLock()
			for id, cs := range b.clients {
				if m.recipient != "" && id != m.recipient {
					continue
				}
				for _, c := range cs {
					if c.connType != m.connType {
						continue
					}
					select {
					case c.send <- m.payload:
					default:
						b.logger.Warn("Client send channel full, dropping message", "client_id", c.id)
					}
				}
			}
			b.mu.RUnlock()
		}
	}
}

// Wait blocks until Run has returned and all client goroutines have ended.
func (b *Bridge) Wait() {
	<-b.done
	b.wg.Wait()
}

// Subscribe wires the broadcast and direct topics to the bridge.
func (b *Bridge) Subscribe(ctx context.Context, sub pubsub.Subscriber) error {
	routes := []struct {
		topic    string
		connType ConnectionType
		direct   bool
	}{
		{TopicHTMLBroadcast.Name(), ConnectionTypeHTML, false},
		{TopicHTMLDirect.Name(), ConnectionTypeHTML, true},
		{TopicDataBroadcast.Name(), ConnectionTypeData, false},
		{TopicDataDirect.Name(), ConnectionTypeData, true},
	}
	for _, r := range routes {
		err := sub.Subscribe(ctx, r.topic, func(_ context.Context, msg pubsub.Message) error {
			if !r.direct {
				b.Broadcast(msg.Payload, r.connType)
				return nil
			}
			recipient := msg.Metadata[MetaRecipientID]
			if recipient == "" {
				return errors.New("direct message without recipient_id")
			}
			b.SendDirect(recipient, msg.Payload, r.connType)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Broadcast queues payload for every client of connType.
func (b *Bridge) Broadcast(payload []byte, connType ConnectionType) {
	b.queue(outbound{payload: payload, connType: connType})
}

// SendDirect queues payload for all connections of one client.
func (b *Bridge) SendDirect(clientID string, payload []byte, connType ConnectionType) {
	b.queue(outbound{payload: payload, connType: connType, recipient: clientID})
}

func (b *Bridge) queue(m outbound) {
	select {
	case b.outbound <- m:
	case <-b.done:
	}
}

// ClientCount returns the number of open connections.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, cs := range b.clients {
		n += len(cs)
	}
	return n
}

// Handler returns an echo.HandlerFunc that upgrades the request to a
// WebSocket of the given type.
func (b *Bridge) Handler(connType ConnectionType) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := b.identify(c)
		if id == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "no session")
		}

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true, // TODO: restrict OriginPatterns to APP_BASE_URL.
		})
		if err != nil {
			b.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}

		cl := &client{id: id, conn: conn, send: make(chan []byte, 64), connType: connType}
		select {
		case b.register <- cl:
		case <-b.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return nil
		}

		b.lifecycle(TopicClientReady.Name(), cl)

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.writePump(cl)
		}()
		// The read loop runs on the request goroutine so the handler returns
		// only when the connection is gone.
		b.readPump(c.Request().Context(), cl)
		b.lifecycle(TopicClientDisconnected.Name(), cl)
		return nil
	}
}

func (b *Bridge) lifecycle(topic string, c *client) {
	payload, _ := json.Marshal(map[string]string{"endpoint": c.connType.String(), "clientID": c.id})
	if err := b.publisher.Publish(context.Background(), pubsub.Message{Topic: topic, UserID: c.id, Payload: payload}); err != nil {
		b.logger.Error("Failed to publish websocket lifecycle event", "topic", topic, "error", err)
	}
}

func (b *Bridge) readPump(ctx context.Context, c *client) {
	defer func() {
		select {
		case b.unregister <- c:
		case <-b.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				b.logger.Debug("WebSocket read ended", "client_id", c.id, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil || !b.whitelist.IsAllowed(msg.Action) {
			b.logger.Warn("Dropping client message", "client_id", c.id, "action", msg.Action)
			continue
		}
		err = b.publisher.Publish(ctx, pubsub.Message{
			Topic:    TopicClientMessage.Name(),
			UserID:   c.id,
			Payload:  data,
			Metadata: map[string]string{"action": msg.Action, "endpoint": c.connType.String()},
		})
		if err != nil {
			b.logger.Error("Failed to publish client message", "client_id", c.id, "error", err)
		}
	}
}

func (b *Bridge) writePump(c *client) {
	for payload := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			b.logger.Debug("WebSocket write error", "client_id", c.id, "error", err)
			c.conn.Close(websocket.StatusInternalError, "write failed")
			// Keep draining so the router never blocks on this client.
			for range c.send {
			}
			return
		}
	}
	c.conn.Close(websocket.StatusNormalClosure, "")
}

package planspiel

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nfrund/planspiel/internal/game"
	"github.com/nfrund/planspiel/internal/modules/planspiel/topics"
	"github.com/nfrund/planspiel/internal/pubsub"
	"github.com/nfrund/planspiel/internal/ui"
)

// Mirror returns a hook that publishes every notification of an engine to
// its planspiel topic as JSON. Publishing happens on the goroutine that
// delivers the notification, so bus order matches engine order.
func Mirror(pub pubsub.Publisher, logger *slog.Logger) ui.Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return func(e *game.Engine) func() {
		return e.Events().Any.Subscribe(func(em game.Emission) {
			topic, ok := topics.ForEvent(em.Name)
			if !ok {
				logger.Warn("No topic for engine event", "event", em.Name)
				return
			}
			data, err := json.Marshal(em.Payload)
			if err != nil {
				logger.Error("Failed to encode engine event", "event", em.Name, "error", err)
				return
			}
			err = pub.Publish(context.Background(), pubsub.Message{
				Topic:    topic,
				Payload:  data,
				Metadata: map[string]string{"event": string(em.Name)},
			})
			if err != nil {
				logger.Error("Failed to publish engine event", "topic", topic, "error", err)
			}
		})
	}
}

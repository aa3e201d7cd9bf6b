package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/planspiel/internal/topicmgr"
)

// Event[T] is a topic whose payload is always a JSON encoded T.
type Event[T any] struct {
	topic topicmgr.Topic
}

// NewEvent creates a typed event and registers it with the default topic
// manager. The payload fields listed in the topic metadata are taken from
// the json tags of T.
func NewEvent[T any](name, description string) Event[T] {
	module, _, _ := strings.Cut(name, ".")

	topic := topicmgr.DefineModule(topicmgr.TopicConfig{
		Name:        name,
		Module:      module,
		Description: description,
		Metadata: map[string]any{
			"payload_fields": jsonFields(reflect.TypeFor[T]()),
			"type_name":      reflect.TypeFor[T]().Name(),
			"is_typed":       true,
		},
	})
	topicmgr.Default().MustRegister(topic)

	return Event[T]{topic: topic}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topic.Name()
}

// Topic returns the registered topic.
func (e Event[T]) Topic() topicmgr.Topic {
	return e.topic
}

func jsonFields(t reflect.Type) []string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	fields := []string{}
	if t.Kind() != reflect.Struct {
		return fields
	}
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			fields = append(fields, name)
		}
	}
	return fields
}

// Publish sends a typed event.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.Name(), err)
	}
	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		Payload: data,
	})
}

// Subscribe decodes every message on event's topic into T before calling fn.
// Messages that do not decode are reported as handler errors.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], fn func(context.Context, T) error) error {
	return s.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", event.Name(), err)
		}
		return fn(ctx, payload)
	})
}

package pubsub

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nfrund/planspiel/internal/config"
)

const tracerName = "planspiel-pubsub"

// TracingConfig holds configuration for OpenTelemetry tracing
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	ZipkinURL   string
}

// TracingConfigFrom reads the tracing settings from the application config.
func TracingConfigFrom(cfg config.Provider) TracingConfig {
	return TracingConfig{
		Enabled:     cfg.GetTracingEnabled(),
		ServiceName: "planspiel",
		ZipkinURL:   cfg.GetTracingZipkinURL(),
	}
}

// SetupOTel initializes OpenTelemetry with a Zipkin exporter. When tracing is
// disabled a no-op tracer is returned.
func SetupOTel(ctx context.Context, cfg TracingConfig) (trace.Tracer, func(), error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider().Tracer(tracerName), func() {}, nil
	}

	exporter, err := zipkin.New(cfg.ZipkinURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create zipkin exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	cleanup := func() {
		// Export failures on shutdown are not actionable.
		_ = tp.Shutdown(context.Background())
	}
	return tp.Tracer(tracerName), cleanup, nil
}

func messageAttributes(operation, topic string, msg *message.Message) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("messaging.system", "watermill"),
		attribute.String("messaging.operation", operation),
		attribute.String("messaging.destination", topic),
		attribute.String("messaging.message_id", msg.UUID),
		attribute.String("user.id", msg.Metadata.Get(metaKeyUserID)),
		attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
	)
}

// tracedPublisher starts a span for each published message.
type tracedPublisher struct {
	publisher message.Publisher
	tracer    trace.Tracer
}

func newTracedPublisher(publisher message.Publisher, tracer trace.Tracer) *tracedPublisher {
	return &tracedPublisher{publisher: publisher, tracer: tracer}
}

func (p *tracedPublisher) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, 0, len(messages))
	for _, msg := range messages {
		ctx, span := p.tracer.Start(msg.Context(), "pubsub.publish."+topic, messageAttributes("publish", topic, msg))
		msg.SetContext(ctx)
		spans = append(spans, span)
	}

	err := p.publisher.Publish(topic, messages...)
	for _, span := range spans {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	return err
}

func (p *tracedPublisher) Close() error {
	return p.publisher.Close()
}

// traceHandler wraps a handler in a processing span.
func traceHandler(tracer trace.Tracer, h Handler) Handler {
	return func(ctx context.Context, msg Message) error {
		ctx, span := tracer.Start(ctx, "pubsub.process."+msg.Topic,
			trace.WithAttributes(
				attribute.String("messaging.system", "watermill"),
				attribute.String("messaging.operation", "process"),
				attribute.String("messaging.destination", msg.Topic),
				attribute.String("user.id", msg.UserID),
				attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
			),
		)
		defer span.End()

		if err := h(ctx, msg); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		return nil
	}
}

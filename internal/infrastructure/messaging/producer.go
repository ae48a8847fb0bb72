// internal/infrastructure/messaging/producer.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/config"
	"github.com/your-org/tailor-marketplace/internal/domain/order"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var producerTracer = otel.Tracer("messaging/producer")

// Publisher announces confirmed orders
type Publisher interface {
	PublishOrderConfirmed(ctx context.Context, snap *order.OrderSnapshot) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewPublisher returns a kafka publisher, or a no-op one when no brokers
// are configured.
func NewPublisher(cfg *config.Config, logger *logrus.Logger) Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("No Kafka brokers configured, order events will not be published")
		return NoopPublisher{}
	}
	return NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic, cfg.Telemetry.ServiceName)
}

// KafkaPublisher writes order events as JSON envelopes keyed by order number
type KafkaPublisher struct {
	writer   messageWriter
	topic    string
	producer string
}

func NewKafkaPublisher(brokers []string, topic, producer string) *KafkaPublisher {
	return &KafkaPublisher{
		topic:    topic,
		producer: producer,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) PublishOrderConfirmed(ctx context.Context, snap *order.OrderSnapshot) error {
	payload, err := json.Marshal(newOrderConfirmedPayload(snap))
	if err != nil {
		return fmt.Errorf("failed to encode order payload: %w", err)
	}

	ctx, span := producerTracer.Start(ctx, "send "+p.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingKafkaMessageKey(snap.OrderNumber),
		),
	)
	defer span.End()

	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderConfirmed,
		EventVersion:  eventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.producer,
		CorrelationID: snap.CheckoutID,
		Payload:       payload,
	}
	if sc := span.SpanContext(); sc.HasTraceID() {
		env.TraceID = sc.TraceID().String()
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode event envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(snap.OrderNumber),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderConfirmed)},
		},
	}
	otel.GetTextMapPropagator().Inject(ctx, NewMessageCarrier(&msg))

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to publish %s: %w", EventOrderConfirmed, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderConfirmed(context.Context, *order.OrderSnapshot) error { return nil }

func (NoopPublisher) Close() error { return nil }

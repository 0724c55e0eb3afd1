package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// OutgoingEvent is a typed event headed for the output topic. Key determines
// partitioning; events for the same transaction stay ordered.
type OutgoingEvent struct {
	EventType string
	TenantID  string
	Key       string
	Payload   any
}

// Publish publishes a single event to the output topic.
func (p *Producer) Publish(ctx context.Context, event *OutgoingEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.Publish")
	defer span.End()

	data, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.Key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
		},
	}

	if tp := tracing.GetTraceParent(ctx); tp != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "traceparent", Value: []byte(tp)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"key":        event.Key,
	}).Debug("Published event")

	return nil
}

// PublishBatch publishes multiple events in one write.
func (p *Producer) PublishBatch(ctx context.Context, eventList []*OutgoingEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishBatch")
	defer span.End()

	if len(eventList) == 0 {
		return nil
	}

	messages := make([]kafka.Message, len(eventList))
	for i, event := range eventList {
		data, err := json.Marshal(event.Payload)
		if err != nil {
			return err
		}

		messages[i] = kafka.Message{
			Topic: p.topic,
			Key:   []byte(event.Key),
			Value: data,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
				{Key: "tenant_id", Value: []byte(event.TenantID)},
			},
		}
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(eventList),
		}).Error("Failed to publish events batch")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_size": len(eventList),
	}).Debug("Published events batch")

	return nil
}

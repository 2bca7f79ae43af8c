package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm_messaging_backend/platform/config"

	"github.com/segmentio/kafka-go"
)

type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes events as JSON, keyed by tenant so a tenant's events
// stay ordered within a partition.
type KafkaSink struct {
	writer kafkaMessageWriter
	closer func() error
	topic  string
}

var errKafkaDisabled = errors.New("kafka analytics sink is not configured")

// NewKafkaSink builds a sink on a hash-balanced writer for the configured topic.
func NewKafkaSink(cfg config.KafkaConfig) (*KafkaSink, error) {
	if !cfg.IsKafkaEnabled() {
		return nil, errKafkaDisabled
	}
	topic := strings.TrimSpace(cfg.GetKafkaEventsTopic())
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.GetKafkaBrokers()...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: false,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &KafkaSink{writer: writer, closer: writer.Close, topic: topic}, nil
}

// newKafkaSinkWithWriter is used in tests.
func newKafkaSinkWithWriter(writer kafkaMessageWriter, topic string) *KafkaSink {
	return &KafkaSink{writer: writer, topic: topic}
}

func (s *KafkaSink) Write(ctx context.Context, event Event) error {
	value, err := json.Marshal(kafkaEvent{Event: event, DurationMs: event.Duration.Milliseconds()})
	if err != nil {
		return fmt.Errorf("encode analytics event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.TenantID.String()),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish analytics event to %s: %w", s.topic, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer()
}

// kafkaEvent carries the duration as milliseconds.
type kafkaEvent struct {
	Event
	DurationMs int64 `json:"durationMs"`
}

var _ Sink = (*KafkaSink)(nil)

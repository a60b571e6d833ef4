// Package kafka streams pool notifications to a Kafka topic, one record per
// notification keyed by shelter so a shelter's history stays in one partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"donationpool/internal/pool/models"
	"donationpool/pkg/requestcontext"
)

const (
	HeaderEventID   = "event_id"
	HeaderEventKind = "event_kind"
	HeaderRequestID = "request_id"
)

// Sink produces notifications synchronously and waits for broker acks.
type Sink struct {
	client *kgo.Client
	topic  string
	now    func() time.Time
}

// Message is the record value written for each notification.
type Message struct {
	EventID    string       `json:"event_id"`
	OccurredAt time.Time    `json:"occurred_at"`
	Event      models.Event `json:"event"`
}

// New connects a producer for topic. Extra kgo options are appended after the
// defaults.
func New(brokers []string, topic string, opts ...kgo.Opt) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	return &Sink{client: client, topic: topic, now: time.Now}, nil
}

// EnsureTopic creates the topic if it does not exist yet.
func (s *Sink) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	admin := kadm.NewClient(s.client)
	resp, err := admin.CreateTopic(ctx, partitions, replicationFactor, nil, s.topic)
	if err != nil {
		return fmt.Errorf("kafka: create topic %s: %w", s.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("kafka: create topic %s: %w", s.topic, resp.Err)
	}
	return nil
}

// Publish writes one record per event and returns the first produce error.
func (s *Sink) Publish(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	requestID := requestcontext.RequestID(ctx)
	occurredAt := s.now()
	if t, ok := requestcontext.Time(ctx); ok {
		occurredAt = t
	}
	occurredAt = occurredAt.UTC()

	records := make([]*kgo.Record, 0, len(events))
	for _, event := range events {
		id := uuid.NewString()
		value, err := json.Marshal(Message{EventID: id, OccurredAt: occurredAt, Event: event})
		if err != nil {
			return fmt.Errorf("kafka: encode %s: %w", event.Kind, err)
		}
		headers := []kgo.RecordHeader{
			{Key: HeaderEventID, Value: []byte(id)},
			{Key: HeaderEventKind, Value: []byte(event.Kind)},
		}
		if requestID != "" {
			headers = append(headers, kgo.RecordHeader{Key: HeaderRequestID, Value: []byte(requestID)})
		}
		records = append(records, &kgo.Record{
			Topic:   s.topic,
			Key:     []byte(event.Shelter.Hex()),
			Value:   value,
			Headers: headers,
		})
	}

	if err := s.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("kafka: produce: %w", err)
	}
	return nil
}

// Health pings the cluster.
func (s *Sink) Health(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close flushes buffered records and closes the client.
func (s *Sink) Close() {
	s.client.Close()
}

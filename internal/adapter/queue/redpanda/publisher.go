// Package redpanda publishes analysis-completed events to Redpanda/Kafka.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

// DefaultTopic receives one record per stored job analysis.
const DefaultTopic = "job-analysis-completed"

const eventType = "analysis.completed"

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Publisher implements domain.AnalysisPublisher.
type Publisher struct {
	client producer
	topic  string
	close  func()
}

// NewPublisher connects to brokers, ensures topic exists and returns a
// Publisher whose produce calls are traced through kotel.
func NewPublisher(ctx context.Context, brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	tracer := kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))
	k := kotel.NewKotel(kotel.WithTracer(tracer))

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.WithHooks(k.Hooks()...),
		kgo.RequestRetries(5),
		kgo.DialTimeout(10*time.Second),
		kgo.ProducerBatchMaxBytes(1000000),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda client: %w", err)
	}
	if err := createTopicIfNotExists(ctx, client, topic, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist", slog.String("topic", topic), slog.Any("error", err))
	}
	slog.Info("redpanda publisher ready", slog.Any("brokers", brokers), slog.String("topic", topic))
	return &Publisher{client: client, topic: topic, close: client.Close}, nil
}

// PublishAnalysisCompleted writes ev keyed by analysis id and waits for the ack.
func (p *Publisher) PublishAnalysisCompleted(ctx domain.Context, ev domain.AnalysisCompletedEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("op=event.marshal: %w", err)
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.AnalysisID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "analysis_id", Value: []byte(ev.AnalysisID)},
		},
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("op=event.publish: %w", err)
	}
	slog.Debug("analysis event published", slog.String("analysis_id", ev.AnalysisID), slog.String("topic", p.topic))
	return nil
}

// Close flushes and releases the underlying client.
func (p *Publisher) Close() {
	if p != nil && p.close != nil {
		p.close()
	}
}

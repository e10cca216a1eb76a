// Package events publishes report lifecycle notifications through watermill.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-performance-api/internal/models"
	"github.com/noah-isme/sma-performance-api/pkg/config"
)

// EventTypeReportReady tags report-ready messages.
const EventTypeReportReady = "report.ready"

// Publisher sends report events to a topic.
type Publisher struct {
	publisher message.Publisher
	topic     string
	logger    *zap.Logger
}

// NewPublisher builds a Kafka publisher when brokers are configured and an
// in-process channel otherwise.
func NewPublisher(cfg config.EventsConfig, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	adapter := NewZapAdapter(logger)
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("no kafka brokers configured, report events stay in process")
		return NewWithPublisher(gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, adapter), cfg.Topic, logger), nil
	}
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return NewWithPublisher(pub, cfg.Topic, logger), nil
}

// NewWithPublisher wraps an existing watermill publisher.
func NewWithPublisher(pub message.Publisher, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topic == "" {
		topic = "performance.report.ready"
	}
	return &Publisher{publisher: pub, topic: topic, logger: logger}
}

// Topic returns the destination topic.
func (p *Publisher) Topic() string {
	return p.topic
}

// PublishReportReady publishes a report job's terminal state.
func (p *Publisher) PublishReportReady(ctx context.Context, event models.ReportReadyEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal report event: %w", err)
	}
	msg := message.NewMessage(event.EventID, payload)
	msg.Metadata.Set("event_type", EventTypeReportReady)
	msg.Metadata.Set("job_id", event.JobID)
	msg.Metadata.Set("status", string(event.Status))
	msg.Metadata.Set("timestamp", event.OccurredAt.UTC().Format(time.RFC3339))
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.Error("failed to publish report event", zap.String("event_id", event.EventID), zap.String("job_id", event.JobID), zap.Error(err))
		return fmt.Errorf("failed to publish report event: %w", err)
	}
	p.logger.Debug("report event published", zap.String("event_id", event.EventID), zap.String("job_id", event.JobID))
	return nil
}

// Close releases the underlying publisher.
func (p *Publisher) Close() error {
	return p.publisher.Close()
}

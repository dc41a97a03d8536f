package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/SAP-F-2025/portal-auth-service/internal/config"
)

// Publisher emits auth events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// WatermillPublisher serialises events as JSON watermill messages on a
// single topic.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewWatermillPublisher(publisher message.Publisher, topic string, logger *slog.Logger) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

func (p *WatermillPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.logger.Debug("Event published", "event_id", event.ID, "event_type", event.Type, "topic", p.topic)
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

// NewKafkaPublisher publishes to Kafka through watermill-kafka
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*WatermillPublisher, error) {
	pub, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return NewWatermillPublisher(pub, topic, logger), nil
}

// NewGoChannelPublisher publishes to an in-process pub/sub. The returned
// GoChannel can be used to subscribe to the same topic.
func NewGoChannelPublisher(topic string, logger *slog.Logger) (*WatermillPublisher, *gochannel.GoChannel) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewSlogLogger(logger),
	)
	return NewWatermillPublisher(pubSub, topic, logger), pubSub
}

// NewPublisher picks Kafka when brokers are configured and the in-process
// channel otherwise. Kafka publishes are synchronous, so they go through an
// AsyncPublisher queue.
func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) (Publisher, error) {
	if len(cfg.Brokers) > 0 {
		logger.Info("Publishing auth events to Kafka", "brokers", cfg.Brokers, "topic", cfg.Topic)
		pub, err := NewKafkaPublisher(cfg.Brokers, cfg.Topic, logger)
		if err != nil {
			return nil, err
		}
		return NewAsyncPublisher(pub, DefaultPublishBuffer, logger), nil
	}

	logger.Info("Publishing auth events in-process", "topic", cfg.Topic)
	pub, _ := NewGoChannelPublisher(cfg.Topic, logger)
	return pub, nil
}

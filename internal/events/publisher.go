package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// KafkaEventPublisher publishes events to a Kafka topic via watermill
type KafkaEventPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

// NewKafkaEventPublisher creates a Kafka-backed publisher
func NewKafkaEventPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaEventPublisher, error) {
	saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			OverwriteSaramaConfig: saramaConfig,
			Marshaler:             kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &KafkaEventPublisher{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}, nil
}

// Publish sends an event to the configured topic
func (p *KafkaEventPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", event.Type)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.DebugContext(ctx, "Event published",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", p.topic)

	return nil
}

// Close shuts down the underlying publisher
func (p *KafkaEventPublisher) Close() error {
	return p.publisher.Close()
}

// ChannelEventPublisher publishes events on an in-process gochannel
// pub/sub. Used for local development when no Kafka broker is around.
type ChannelEventPublisher struct {
	pubsub *gochannel.GoChannel
	topic  string
	logger *slog.Logger
}

// NewChannelEventPublisher creates an in-process publisher
func NewChannelEventPublisher(topic string, logger *slog.Logger) *ChannelEventPublisher {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)

	return &ChannelEventPublisher{
		pubsub: pubsub,
		topic:  topic,
		logger: logger,
	}
}

// Subscribe returns a channel of messages on the event topic.
// Exposed so local consumers can attach in development.
func (p *ChannelEventPublisher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return p.pubsub.Subscribe(ctx, p.topic)
}

// Publish sends an event on the in-process channel
func (p *ChannelEventPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", event.Type)
	msg.SetContext(ctx)

	if err := p.pubsub.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close shuts down the in-process pub/sub
func (p *ChannelEventPublisher) Close() error {
	return p.pubsub.Close()
}

package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Bukialo/crm-api/internal/config"
	"github.com/Bukialo/crm-api/internal/trigger"
)

// Consumer reads CRM business events off Kafka and hands them to the
// dispatcher. Other agency services publish to the events topic whenever a
// contact is created, a trip closes, and so on.
type Consumer struct {
	consumer   *kafka.Consumer
	topic      string
	dispatcher *trigger.Dispatcher
	logger     zerolog.Logger
}

func NewConsumer(cfg config.KafkaConfig, dispatcher *trigger.Dispatcher, logger zerolog.Logger) (*Consumer, error) {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"group.id":          cfg.ConsumerGroup,
		"auto.offset.reset": "earliest",
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka consumer")
	}
	if err := consumer.SubscribeTopics([]string{cfg.EventsTopic}, nil); err != nil {
		consumer.Close()
		return nil, errors.Wrap(err, "subscribe to events topic")
	}

	return &Consumer{
		consumer:   consumer,
		topic:      cfg.EventsTopic,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "kafka_consumer").Logger(),
	}, nil
}

// Run consumes until the context is cancelled. Malformed messages are logged
// and committed so they are not redelivered forever.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info().Str("topic", c.topic).Msg("Kafka consumer started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Kafka consumer stopped")
			return ctx.Err()
		default:
		}

		msg, err := c.consumer.ReadMessage(500 * time.Millisecond)
		if err != nil {
			if kafkaErr, ok := err.(kafka.Error); ok && kafkaErr.IsTimeout() {
				continue
			}
			c.logger.Error().Err(err).Msg("Error reading message")
			continue
		}

		if err := c.handleMessage(ctx, msg); err != nil {
			c.logger.Error().Err(err).
				Str("topic", c.topic).
				Int64("offset", int64(msg.TopicPartition.Offset)).
				Msg("Failed to process event message")
		}

		if _, err := c.consumer.CommitMessage(msg); err != nil {
			c.logger.Error().Err(err).Msg("Error committing message")
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg *kafka.Message) error {
	var ev trigger.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return errors.Wrap(err, "decode event message")
	}
	if !ev.Type.IsValid() {
		return errors.Errorf("unknown trigger type %q", ev.Type)
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = msg.Timestamp
	}

	_, err := c.dispatcher.Dispatch(ctx, ev)
	return err
}

// Close releases the underlying consumer.
func (c *Consumer) Close() {
	if c.consumer != nil {
		_ = c.consumer.Close()
	}
}

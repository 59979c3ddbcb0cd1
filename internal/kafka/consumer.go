package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"reelchat/internal/config"
)

// MessageHandler processes one consumed message. A nil return commits its offset.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer defines the interface for a Kafka message consumer.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

// confluentKafkaConsumer is an implementation of MessageConsumer using confluent-kafka-go.
type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
}

// NewConfluentKafkaConsumer prepares a consumer. The client itself is
// created by Consume, once the group id is known.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig) MessageConsumer {
	return &confluentKafkaConsumer{cfg: cfg}
}

// Consume blocks, handing messages to handler until ctx is cancelled or a
// fatal Kafka error occurs.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return errors.New("kafka consumer: no topics specified")
	}
	c.groupID = groupID
	logger := slog.With("group", groupID)

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           groupID,
		"auto.offset.reset":  "latest", // events are live notifications; no replay on a fresh group
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		c.consumer = nil
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}
	logger.Info("kafka consumer started", "topics", topics)

	for {
		select {
		case <-ctx.Done():
			logger.Info("kafka consumer stopping")
			return nil
		default:
		}

		ev := c.consumer.Poll(1000)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			if err := handler(ctx, e); err != nil {
				logger.Error("kafka message handler failed", "topic", *e.TopicPartition.Topic,
					"offset", e.TopicPartition.Offset, "err", err)
				continue
			}
			if _, err := c.consumer.CommitMessage(e); err != nil {
				logger.Warn("kafka offset commit failed", "offset", e.TopicPartition.Offset, "err", err)
			}
		case kafka.Error:
			if e.IsFatal() {
				logger.Error("fatal kafka error", "err", e)
				return e
			}
			logger.Warn("kafka consumer error", "err", e, "code", e.Code(), "retriable", e.IsRetriable())
		case kafka.AssignedPartitions:
			logger.Info("partitions assigned", "partitions", e.Partitions)
			_ = c.consumer.Assign(e.Partitions)
		case kafka.RevokedPartitions:
			logger.Info("partitions revoked", "partitions", e.Partitions)
			_ = c.consumer.Unassign()
		}
	}
}

// Close closes the Kafka consumer.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		slog.Error("closing kafka consumer", "group", c.groupID, "err", err)
	} else {
		slog.Info("kafka consumer closed", "group", c.groupID)
	}
	c.consumer = nil
}

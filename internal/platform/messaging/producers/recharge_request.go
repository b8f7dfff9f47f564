package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lead-marketplace/internal/config"
	"github.com/segmentio/kafka-go"
)

// RechargeRequestProducer publishes wallet recharge requests for the
// wallet_processor. Writes are synchronous so a 202 answer means the request
// is on the topic.
type RechargeRequestProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

var _ MessagePublisher = (*RechargeRequestProducer)(nil)

// NewRechargeRequestProducer ensures the recharge topic exists and opens a
// writer for it.
func NewRechargeRequestProducer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*RechargeRequestProducer, error) {
	if cfg.RechargeTopic == "" {
		return nil, fmt.Errorf("kafka recharge topic is not configured")
	}
	logger = logger.With("component", "recharge_producer")

	brokers := cfg.BrokerList()
	if err := dialAndEnsureTopic(brokers, cfg.RechargeTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure recharge topic %s exists: %w", cfg.RechargeTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.RechargeTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.MaxWait,
	}

	return &RechargeRequestProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.RechargeTopic,
	}, nil
}

// Publish keys messages by buyer, so recharges of one buyer keep their order
// within a partition.
func (p *RechargeRequestProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal recharge request: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish recharge request", "topic", p.topic, "key", key, "error", err)
		return fmt.Errorf("failed to publish recharge request to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published recharge request", "topic", p.topic, "key", key)
	return nil
}

func (p *RechargeRequestProducer) Close() error {
	p.logger.Info("Closing recharge request producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

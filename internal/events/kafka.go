package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig содержит параметры продюсера Kafka.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	// MaxAttempts - число попыток записи, по умолчанию 3.
	MaxAttempts  int
	WriteTimeout time.Duration
}

// KafkaPublisher пишет события в топик Kafka. Ключ сообщения - ID аукциона,
// поэтому события одного аукциона попадают в одну партицию и сохраняют порядок.
type KafkaPublisher struct {
	writer      *kafka.Writer
	maxAttempts int
}

// NewKafkaPublisher создает KafkaPublisher.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: w, maxAttempts: cfg.MaxAttempts}, nil
}

// PublishBidPlaced пишет событие с повторами и экспоненциальной паузой.
func (p *KafkaPublisher) PublishBidPlaced(ctx context.Context, event models.BidPlacedEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	var lastErr error
	backoff := 100 * time.Millisecond
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		msg := kafka.Message{
			Key:   []byte(event.AuctionID),
			Value: value,
			Time:  time.Now().UTC(),
		}
		if lastErr = p.writer.WriteMessages(ctx, msg); lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
	return fmt.Errorf("produce failed after %d attempts: %w", p.maxAttempts, lastErr)
}

// Close закрывает writer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

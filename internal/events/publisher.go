package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/senyabanana/sealed-bid-service/internal/models"
)

// Publisher рассылает событие о принятой ставке внешним подписчикам.
type Publisher interface {
	PublishBidPlaced(ctx context.Context, event models.BidPlacedEvent) error
	Close() error
}

// NoopPublisher ничего не отправляет.
type NoopPublisher struct{}

func (NoopPublisher) PublishBidPlaced(ctx context.Context, event models.BidPlacedEvent) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }

// Config описывает выбор и параметры транспорта событий.
type Config struct {
	Driver       string
	NatsURL      string
	NatsSubject  string
	KafkaBrokers string
	KafkaTopic   string
}

// New создает Publisher по имени драйвера: none, nats или kafka.
func New(cfg Config) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "none":
		return NoopPublisher{}, nil
	case "nats":
		p, err := NewNATSPublisher(cfg.NatsURL, cfg.NatsSubject)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "kafka":
		p, err := NewKafkaPublisher(KafkaConfig{
			Brokers: splitList(cfg.KafkaBrokers),
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

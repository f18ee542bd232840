package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/senyabanana/sealed-bid-service/internal/models"

	"github.com/nats-io/nats.go"
)

const defaultNatsSubject = "bids.placed"

// NATSPublisher публикует события в NATS. Тема: <subject>.<auctionId>.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher подключается к NATS по url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if subject == "" {
		subject = defaultNatsSubject
	}
	conn, err := nats.Connect(url, nats.Name("sealed-bid-service"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// PublishBidPlaced отправляет событие и дожидается сброса буфера соединения.
func (p *NATSPublisher) PublishBidPlaced(ctx context.Context, event models.BidPlacedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(Subject(p.subject, event.AuctionID), data); err != nil {
		return fmt.Errorf("failed to publish bid event to NATS: %w", err)
	}
	return p.conn.FlushWithContext(ctx)
}

// Close закрывает соединение, предварительно отправив буфер.
func (p *NATSPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// Subject строит тему NATS для аукциона.
func Subject(base, auctionID string) string {
	return fmt.Sprintf("%s.%s", base, auctionID)
}

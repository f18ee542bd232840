package services

import (
	"context"
	"fmt"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/clock"
	"github.com/senyabanana/sealed-bid-service/internal/events"
	"github.com/senyabanana/sealed-bid-service/internal/models"
	"github.com/senyabanana/sealed-bid-service/internal/repository"
	"github.com/senyabanana/sealed-bid-service/internal/sealing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Receipt - подтверждение приёма ставки внешним получателем.
type Receipt struct {
	BidID      string
	AcceptedAt time.Time
}

// Submitter принимает зашифрованную ставку. Ядро смотрит только на успех или ошибку.
type Submitter interface {
	Submit(ctx context.Context, auctionId string, commitment sealing.Commitment, attestation sealing.Attestation, bidder string) (*Receipt, error)
	// Withdraw отзывает принятую, но не учтённую ставку. Учтённая ставка не трогается.
	Withdraw(ctx context.Context, auctionId, bidId string) error
}

// LedgerSubmitter сохраняет ставку в хранилище и рассылает событие BidPlaced.
type LedgerSubmitter struct {
	Bids      repository.BidRepository
	Publisher events.Publisher
	Clock     clock.Clock
	Latency   time.Duration
	Logger    *log.Logger
}

// NewLedgerSubmitter создает LedgerSubmitter. latency имитирует подтверждение в сети.
func NewLedgerSubmitter(bids repository.BidRepository, publisher events.Publisher, latency time.Duration, logger *log.Logger) *LedgerSubmitter {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LedgerSubmitter{
		Bids:      bids,
		Publisher: publisher,
		Clock:     clock.SystemClock{},
		Latency:   latency,
		Logger:    logger,
	}
}

// Submit проверяет аттестацию, сохраняет ставку и публикует событие.
// Ошибка публикации не отменяет принятую ставку.
func (s *LedgerSubmitter) Submit(ctx context.Context, auctionId string, commitment sealing.Commitment, attestation sealing.Attestation, bidder string) (*Receipt, error) {
	if !sealing.VerifyAttestation(commitment, attestation) {
		return nil, fmt.Errorf("attestation does not match commitment")
	}

	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	bid := models.EncryptedBid{
		ID:              uuid.New().String(),
		AuctionID:       auctionId,
		Bidder:          bidder,
		EncryptedAmount: string(commitment),
		ProofData:       string(attestation),
		Timestamp:       s.Clock.Now().UTC(),
	}
	if _, err := s.Bids.CreateBid(ctx, bid); err != nil {
		return nil, fmt.Errorf("store bid: %w", err)
	}

	event := models.BidPlacedEvent{
		EventID:     uuid.New().String(),
		AuctionID:   auctionId,
		BidID:       bid.ID,
		Bidder:      bidder,
		Fingerprint: sealing.Fingerprint(commitment),
		Timestamp:   bid.Timestamp,
	}
	if err := s.Publisher.PublishBidPlaced(ctx, event); err != nil {
		s.Logger.Warn("failed to publish bid event", "auction", auctionId, "bid", bid.ID, "err", err)
	}

	return &Receipt{BidID: bid.ID, AcceptedAt: bid.Timestamp}, nil
}

// Withdraw удаляет ставку, пока она в статусе pending.
func (s *LedgerSubmitter) Withdraw(ctx context.Context, auctionId, bidId string) error {
	if err := s.Bids.DeletePendingBid(ctx, bidId); err != nil {
		s.Logger.Error("failed to withdraw pending bid", "auction", auctionId, "bid", bidId, "err", err)
		return fmt.Errorf("withdraw bid: %w", err)
	}
	s.Logger.Info("pending bid withdrawn", "auction", auctionId, "bid", bidId)
	return nil
}

package services

import (
	"context"
	"strings"

	"github.com/senyabanana/sealed-bid-service/internal/clock"
	"github.com/senyabanana/sealed-bid-service/internal/models"
	"github.com/senyabanana/sealed-bid-service/internal/repository"
	"github.com/senyabanana/sealed-bid-service/internal/sealing"
	"github.com/senyabanana/sealed-bid-service/internal/utils"
)

// AuctionService - каталог аукционов. Только читает, счётчики меняет лишь сессия ставки.
type AuctionService struct {
	Repo  repository.AuctionRepository
	Bids  repository.BidRepository
	Clock clock.Clock
}

// NewAuctionService создаёт новый экземпляр AuctionService.
func NewAuctionService(repo repository.AuctionRepository, bids repository.BidRepository, clk clock.Clock) *AuctionService {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &AuctionService{Repo: repo, Bids: bids, Clock: clk}
}

// ListAuctions возвращает отфильтрованный каталог с вычисленными статусами.
func (s *AuctionService) ListAuctions(ctx context.Context, searchText, statusStr string, categories []string) ([]models.AuctionView, error) {
	status, err := ParseStatusFilter(statusStr)
	if err != nil {
		return nil, err
	}

	auctions, err := s.Repo.ListAuctions(ctx, trimAll(categories))
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	filtered := FilterAuctions(auctions, searchText, status, now)
	views := make([]models.AuctionView, 0, len(filtered))
	for _, a := range filtered {
		views = append(views, clock.View(a, now))
	}
	return views, nil
}

// GetAuction возвращает аукцион с вычисленным статусом.
func (s *AuctionService) GetAuction(ctx context.Context, auctionId string) (*models.AuctionView, error) {
	a, err := s.Repo.GetAuction(ctx, auctionId)
	if err != nil {
		return nil, err
	}
	view := clock.View(*a, s.Clock.Now())
	return &view, nil
}

// Project возвращает текущую проекцию обратного отсчёта.
func (s *AuctionService) Project(ctx context.Context, auctionId string) (clock.Projection, error) {
	a, err := s.Repo.GetAuction(ctx, auctionId)
	if err != nil {
		return clock.Projection{}, err
	}
	return clock.Project(*a, s.Clock.Now()), nil
}

// GetAuctionBids возвращает ставки аукциона только в отображаемой форме.
func (s *AuctionService) GetAuctionBids(ctx context.Context, auctionId, limitStr, offsetStr string) ([]models.EncryptedBidView, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewValidationError(models.BadFilter, "%s", err.Error())
	}
	if _, err := s.Repo.GetAuction(ctx, auctionId); err != nil {
		return nil, err
	}

	bids, err := s.Bids.GetAuctionBids(ctx, auctionId, limit, offset)
	if err != nil {
		return nil, err
	}
	views := make([]models.EncryptedBidView, 0, len(bids))
	for _, b := range bids {
		c := sealing.Commitment(b.EncryptedAmount)
		views = append(views, models.EncryptedBidView{
			ID:          b.ID,
			AuctionID:   b.AuctionID,
			Bidder:      b.Bidder,
			Display:     sealing.DisplayCommitment(c),
			Fingerprint: sealing.Fingerprint(c),
			Timestamp:   b.Timestamp,
		})
	}
	return views, nil
}

// GetUserBids возвращает историю ставок участника.
func (s *AuctionService) GetUserBids(ctx context.Context, bidder, limitStr, offsetStr string) ([]models.BidHistoryItem, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewValidationError(models.BadFilter, "%s", err.Error())
	}
	return s.Bids.GetUserBids(ctx, bidder, limit, offset)
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

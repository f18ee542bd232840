package repository

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/senyabanana/sealed-bid-service/internal/models"
)

// MemoryStore хранит каталог и ставки в памяти процесса. Реализует AuctionRepository и BidRepository.
type MemoryStore struct {
	mu       sync.RWMutex
	auctions []*models.Auction
	byID     map[string]*models.Auction
	bids     []memoryBid
}

type memoryBid struct {
	bid    models.EncryptedBid
	status models.BidHistoryStatus
}

// NewMemoryStore создает пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*models.Auction)}
}

func cloneAuction(a *models.Auction) models.Auction {
	out := *a
	if a.CurrentHighestBid != nil {
		v := *a.CurrentHighestBid
		out.CurrentHighestBid = &v
	}
	if a.Winner != nil {
		v := *a.Winner
		out.Winner = &v
	}
	return out
}

// ListAuctions возвращает копии аукционов в порядке добавления.
func (s *MemoryStore) ListAuctions(ctx context.Context, categories []string) ([]models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auctions := make([]models.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		if len(categories) > 0 && !slices.Contains(categories, a.Category) {
			continue
		}
		auctions = append(auctions, cloneAuction(a))
	}
	return auctions, nil
}

// GetAuction возвращает копию аукциона по ID.
func (s *MemoryStore) GetAuction(ctx context.Context, auctionId string) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[auctionId]
	if !ok {
		return nil, models.ErrAuctionNotFound
	}
	out := cloneAuction(a)
	return &out, nil
}

// CreateAuction добавляет аукцион в конец каталога.
func (s *MemoryStore) CreateAuction(ctx context.Context, auctionReq models.AuctionRequest) (*models.Auction, error) {
	if err := auctionReq.Validate(); err != nil {
		return nil, err
	}
	a := newAuction(auctionReq)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions = append(s.auctions, a)
	s.byID[a.ID] = a

	out := cloneAuction(a)
	return &out, nil
}

// CountAuctions возвращает количество аукционов.
func (s *MemoryStore) CountAuctions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.auctions), nil
}

// IncrementEncryptedBids увеличивает счётчик под мьютексом.
func (s *MemoryStore) IncrementEncryptedBids(ctx context.Context, auctionId, bidId string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[auctionId]
	if !ok {
		return 0, models.ErrAuctionNotFound
	}
	a.EncryptedBidsCount++

	for i := range s.bids {
		if s.bids[i].bid.ID == bidId && s.bids[i].bid.AuctionID == auctionId {
			s.bids[i].status = models.ConfirmedBid
			break
		}
	}
	return a.EncryptedBidsCount, nil
}

// CreateBid сохраняет ставку в статусе pending.
func (s *MemoryStore) CreateBid(ctx context.Context, bid models.EncryptedBid) (*models.EncryptedBid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[bid.AuctionID]; !ok {
		return nil, models.ErrAuctionNotFound
	}
	s.bids = append(s.bids, memoryBid{bid: bid, status: models.PendingBid})
	return &bid, nil
}

// GetAuctionBids возвращает подтверждённые ставки аукциона, старые первыми.
func (s *MemoryStore) GetAuctionBids(ctx context.Context, auctionId string, limit, offset int) ([]models.EncryptedBid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bids []models.EncryptedBid
	for _, b := range s.bids {
		if b.bid.AuctionID == auctionId && b.status != models.PendingBid {
			bids = append(bids, b.bid)
		}
	}
	sort.SliceStable(bids, func(i, j int) bool { return bids[i].Timestamp.Before(bids[j].Timestamp) })
	return page(bids, limit, offset), nil
}

// GetUserBids возвращает историю ставок участника, новые первыми.
func (s *MemoryStore) GetUserBids(ctx context.Context, bidder string, limit, offset int) ([]models.BidHistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var history []models.BidHistoryItem
	for _, b := range s.bids {
		if b.bid.Bidder != bidder {
			continue
		}
		history = append(history, models.BidHistoryItem{
			ID:        b.bid.ID,
			AuctionID: b.bid.AuctionID,
			Bidder:    b.bid.Bidder,
			Timestamp: b.bid.Timestamp,
			Status:    b.status,
		})
	}
	sort.SliceStable(history, func(i, j int) bool { return history[i].Timestamp.After(history[j].Timestamp) })
	return page(history, limit, offset), nil
}

// DeletePendingBid удаляет неподтверждённую ставку.
func (s *MemoryStore) DeletePendingBid(ctx context.Context, bidId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bids = slices.DeleteFunc(s.bids, func(b memoryBid) bool {
		return b.bid.ID == bidId && b.status == models.PendingBid
	})
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

package repository

import (
	"context"
	"fmt"

	"github.com/senyabanana/sealed-bid-service/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BidRepository - интерфейс для работы с зашифрованными ставками.
type BidRepository interface {
	CreateBid(ctx context.Context, bid models.EncryptedBid) (*models.EncryptedBid, error)
	GetAuctionBids(ctx context.Context, auctionId string, limit, offset int) ([]models.EncryptedBid, error)
	GetUserBids(ctx context.Context, bidder string, limit, offset int) ([]models.BidHistoryItem, error)
	// DeletePendingBid удаляет ставку, если она ещё не подтверждена.
	DeletePendingBid(ctx context.Context, bidId string) error
}

// PostgresBidRepository - реализация BidRepository для базы данных.
type PostgresBidRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresBidRepository создает новый экземпляр PostgresBidRepository.
func NewPostgresBidRepository(db *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{DB: db}
}

// CreateBid сохраняет ставку в статусе pending. Подтверждает её IncrementEncryptedBids.
func (r *PostgresBidRepository) CreateBid(ctx context.Context, bid models.EncryptedBid) (*models.EncryptedBid, error) {
	insertQuery := `INSERT INTO encrypted_bid (id, auction_id, bidder, encrypted_amount, proof_data, status, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		bid.ID,
		bid.AuctionID,
		bid.Bidder,
		bid.EncryptedAmount,
		bid.ProofData,
		models.PendingBid,
		bid.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bid: %w", err)
	}
	return &bid, nil
}

// GetAuctionBids возвращает подтверждённые ставки аукциона, старые первыми.
func (r *PostgresBidRepository) GetAuctionBids(ctx context.Context, auctionId string, limit, offset int) ([]models.EncryptedBid, error) {
	query := `
		SELECT id, auction_id, bidder, encrypted_amount, proof_data, created_at
		FROM encrypted_bid
		WHERE auction_id = $1 AND status <> $2
		ORDER BY created_at
		LIMIT $3 OFFSET $4`
	rows, err := r.DB.Query(ctx, query, auctionId, models.PendingBid, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []models.EncryptedBid
	for rows.Next() {
		var bid models.EncryptedBid
		if err := rows.Scan(
			&bid.ID,
			&bid.AuctionID,
			&bid.Bidder,
			&bid.EncryptedAmount,
			&bid.ProofData,
			&bid.Timestamp); err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

// GetUserBids возвращает историю ставок участника, новые первыми.
func (r *PostgresBidRepository) GetUserBids(ctx context.Context, bidder string, limit, offset int) ([]models.BidHistoryItem, error) {
	query := `
		SELECT id, auction_id, bidder, created_at, status
		FROM encrypted_bid
		WHERE bidder = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, bidder, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.BidHistoryItem
	for rows.Next() {
		var item models.BidHistoryItem
		if err := rows.Scan(
			&item.ID,
			&item.AuctionID,
			&item.Bidder,
			&item.Timestamp,
			&item.Status); err != nil {
			return nil, err
		}
		history = append(history, item)
	}
	return history, rows.Err()
}

// DeletePendingBid удаляет неподтверждённую ставку. Подтверждённые ставки не удаляются.
func (r *PostgresBidRepository) DeletePendingBid(ctx context.Context, bidId string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM encrypted_bid WHERE id = $1 AND status = $2`, bidId, models.PendingBid)
	if err != nil {
		return fmt.Errorf("failed to delete pending bid: %w", err)
	}
	return nil
}

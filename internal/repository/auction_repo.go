package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// AuctionRepository - интерфейс для работы с каталогом аукционов.
type AuctionRepository interface {
	ListAuctions(ctx context.Context, categories []string) ([]models.Auction, error)
	GetAuction(ctx context.Context, auctionId string) (*models.Auction, error)
	CreateAuction(ctx context.Context, auctionReq models.AuctionRequest) (*models.Auction, error)
	CountAuctions(ctx context.Context) (int, error)
	// IncrementEncryptedBids атомарно увеличивает счётчик ставок на 1 и подтверждает ставку bidId, если она задана.
	IncrementEncryptedBids(ctx context.Context, auctionId, bidId string) (int, error)
}

// PostgresAuctionRepository - реализация AuctionRepository для базы данных.
type PostgresAuctionRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresAuctionRepository создаёт новый экземпляр PostgresAuctionRepository.
func NewPostgresAuctionRepository(db *pgxpool.Pool) *PostgresAuctionRepository {
	return &PostgresAuctionRepository{DB: db}
}

const auctionColumns = `id, title, description, image_url, category, starting_bid, current_highest_bid,
	encrypted_bids_count, start_time, end_time, winner`

func scanAuction(row pgx.Row) (*models.Auction, error) {
	var a models.Auction
	if err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.ImageURL,
		&a.Category,
		&a.StartingBid,
		&a.CurrentHighestBid,
		&a.EncryptedBidsCount,
		&a.StartTime,
		&a.EndTime,
		&a.Winner); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAuctions возвращает аукционы в порядке добавления в каталог.
func (r *PostgresAuctionRepository) ListAuctions(ctx context.Context, categories []string) ([]models.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auction`
	var args []interface{}
	if len(categories) > 0 {
		query += ` WHERE category = ANY($1)`
		args = append(args, pq.Array(categories))
	}
	query += ` ORDER BY position`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auctions []models.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, *a)
	}
	return auctions, rows.Err()
}

// GetAuction возвращает аукцион по ID.
func (r *PostgresAuctionRepository) GetAuction(ctx context.Context, auctionId string) (*models.Auction, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auction WHERE id = $1`, auctionId)
	a, err := scanAuction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrAuctionNotFound
	}
	return a, err
}

// CreateAuction добавляет аукцион в каталог.
func (r *PostgresAuctionRepository) CreateAuction(ctx context.Context, auctionReq models.AuctionRequest) (*models.Auction, error) {
	if err := auctionReq.Validate(); err != nil {
		return nil, err
	}
	newAuction := newAuction(auctionReq)
	_, err := r.DB.Exec(ctx, `
       INSERT INTO auction (id, title, description, image_url, category, starting_bid, encrypted_bids_count, start_time, end_time, created_at)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
   `,
		newAuction.ID,
		newAuction.Title,
		newAuction.Description,
		newAuction.ImageURL,
		newAuction.Category,
		newAuction.StartingBid,
		newAuction.EncryptedBidsCount,
		newAuction.StartTime,
		newAuction.EndTime,
		time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert auction: %w", err)
	}
	return newAuction, nil
}

// CountAuctions возвращает количество аукционов в каталоге.
func (r *PostgresAuctionRepository) CountAuctions(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM auction`).Scan(&count)
	return count, err
}

// IncrementEncryptedBids увеличивает счётчик одним UPDATE, поэтому параллельные участники не теряют обновления.
func (r *PostgresAuctionRepository) IncrementEncryptedBids(ctx context.Context, auctionId, bidId string) (int, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int
	err = tx.QueryRow(ctx,
		`UPDATE auction SET encrypted_bids_count = encrypted_bids_count + 1 WHERE id = $1 RETURNING encrypted_bids_count`,
		auctionId).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrAuctionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment encrypted bids: %w", err)
	}

	if bidId != "" {
		if _, err := tx.Exec(ctx,
			`UPDATE encrypted_bid SET status = $1 WHERE id = $2 AND auction_id = $3`,
			models.ConfirmedBid, bidId, auctionId); err != nil {
			return 0, fmt.Errorf("confirm bid: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return count, nil
}

func newAuction(req models.AuctionRequest) *models.Auction {
	return &models.Auction{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		StartingBid: req.StartingBid,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
	}
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/models"
)

// SeedAuctions возвращает статический каталог, отсчитанный от момента now.
func SeedAuctions(now time.Time) []models.AuctionRequest {
	now = now.UTC().Truncate(time.Second)
	return []models.AuctionRequest{
		{
			Title:       "Genesis Cipher #001",
			Description: "First edition generative art piece minted from an encrypted seed.",
			ImageURL:    "https://images.example.com/auctions/genesis-cipher.png",
			Category:    "Digital Art",
			StartingBid: 0.5,
			StartTime:   now.Add(-2 * time.Hour),
			EndTime:     now.Add(6 * time.Hour),
		},
		{
			Title:       "Vintage Chronograph 1968",
			Description: "Restored mechanical chronograph with original dial and papers.",
			ImageURL:    "https://images.example.com/auctions/chronograph.png",
			Category:    "Collectibles",
			StartingBid: 2.0,
			StartTime:   now.Add(-30 * time.Minute),
			EndTime:     now.Add(3 * time.Hour),
		},
		{
			Title:       "Quantum Garden",
			Description: "Immersive 3D artwork exploring privacy through light and shadow.",
			ImageURL:    "https://images.example.com/auctions/quantum-garden.png",
			Category:    "Digital Art",
			StartingBid: 1.2,
			StartTime:   now.Add(4 * time.Hour),
			EndTime:     now.Add(28 * time.Hour),
		},
		{
			Title:       "Founders Pass",
			Description: "Lifetime membership pass with governance rights in the sealed-bid DAO.",
			ImageURL:    "https://images.example.com/auctions/founders-pass.png",
			Category:    "Membership",
			StartingBid: 0.8,
			StartTime:   now.Add(-1 * time.Hour),
			EndTime:     now.Add(12 * time.Hour),
		},
		{
			Title:       "Midnight Sketchbook",
			Description: "Collection of 24 hand-drawn sketches, scanned and signed.",
			ImageURL:    "https://images.example.com/auctions/midnight-sketchbook.png",
			Category:    "Art",
			StartingBid: 0.3,
			StartTime:   now.Add(-48 * time.Hour),
			EndTime:     now.Add(-1 * time.Hour),
		},
		{
			Title:       "Encrypted Domain: secret.eth",
			Description: "Premium short ENS domain transferred to the winning bidder.",
			ImageURL:    "https://images.example.com/auctions/secret-eth.png",
			Category:    "Domains",
			StartingBid: 5.0,
			StartTime:   now.Add(1 * time.Hour),
			EndTime:     now.Add(25 * time.Hour),
		},
	}
}

// Seed заполняет пустой каталог статическим списком. Непустой каталог не трогается.
func Seed(ctx context.Context, repo AuctionRepository, now time.Time) (int, error) {
	count, err := repo.CountAuctions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count auctions: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	seeded := 0
	for _, req := range SeedAuctions(now) {
		if _, err := repo.CreateAuction(ctx, req); err != nil {
			return seeded, fmt.Errorf("seed auction %q: %w", req.Title, err)
		}
		seeded++
	}
	return seeded, nil
}

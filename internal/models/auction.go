package models

import (
	"fmt"
	"time"
)

type (
	AuctionStatus string // Статус аукциона, вычисляется по времени
	StatusFilter  string // Фильтр каталога по статусу
)

const (
	UpcomingAuction AuctionStatus = "upcoming" // Аукцион ещё не начался
	ActiveAuction   AuctionStatus = "active"   // Аукцион принимает ставки
	EndedAuction    AuctionStatus = "ended"    // Аукцион завершён

	AllStatuses      StatusFilter = "all"
	UpcomingStatuses StatusFilter = "upcoming"
	ActiveStatuses   StatusFilter = "active"
	EndedStatuses    StatusFilter = "ended"
)

// Auction представляет модель аукциона. Статус не хранится, а вычисляется из StartTime и EndTime.
type Auction struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	ImageURL           string    `json:"imageUrl"`
	Category           string    `json:"category"`
	StartingBid        float64   `json:"startingBid"`
	CurrentHighestBid  *float64  `json:"currentHighestBid"`
	EncryptedBidsCount int       `json:"encryptedBidsCount"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	Winner             *string   `json:"winner,omitempty"`
}

// AuctionRequest представляет структуру запроса для создания аукциона.
type AuctionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Category    string    `json:"category"`
	StartingBid float64   `json:"startingBid"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
}

// Validate проверяет инварианты аукциона: положительная стартовая ставка и StartTime < EndTime.
func (r AuctionRequest) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("auction title is required")
	}
	if !(r.StartingBid > 0) {
		return fmt.Errorf("starting bid must be positive, got %v", r.StartingBid)
	}
	if !r.StartTime.Before(r.EndTime) {
		return fmt.Errorf("auction %q: start time must be before end time", r.Title)
	}
	return nil
}

// StatusAt возвращает статус аукциона на момент now.
func (a Auction) StatusAt(now time.Time) AuctionStatus {
	switch {
	case now.Before(a.StartTime):
		return UpcomingAuction
	case now.Before(a.EndTime):
		return ActiveAuction
	default:
		return EndedAuction
	}
}

// AuctionView - проекция аукциона для клиента со статусом и обратным отсчётом.
type AuctionView struct {
	Auction
	Status    AuctionStatus `json:"status"`
	Remaining int64         `json:"remainingSeconds"`
	TimeLeft  string        `json:"timeLeft"`
	Caption   string        `json:"caption"`
	CanBid    bool          `json:"canBid"`
}

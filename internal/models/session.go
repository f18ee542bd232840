package models

import "time"

type SessionState string // Состояние сессии отправки ставки

const (
	IdleSession       SessionState = "idle"
	EncryptingSession SessionState = "encrypting"
	EncryptedSession  SessionState = "encrypted"
	SubmittingSession SessionState = "submitting"
	SubmittedSession  SessionState = "submitted"
	FailedSession     SessionState = "failed"
	ClosedSession     SessionState = "closed"
)

// SessionView - то, что клиент видит о своей сессии. Полные артефакты наружу не отдаются.
type SessionView struct {
	ID             string       `json:"id"`
	AuctionID      string       `json:"auctionId"`
	Bidder         string       `json:"bidder"`
	State          SessionState `json:"state"`
	Amount         string       `json:"amount,omitempty"`
	AmountEditable bool         `json:"amountEditable"`
	Commitment     string       `json:"commitment,omitempty"`
	Error          string       `json:"error,omitempty"`
	BidID          string       `json:"bidId,omitempty"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

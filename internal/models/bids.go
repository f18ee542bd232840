package models

import (
	"bytes"
	"encoding/json"
	"time"
)

type BidHistoryStatus string // Статус ставки в истории участника

const (
	PendingBid   BidHistoryStatus = "pending"   // Ставка отправлена, подтверждения ещё нет
	ConfirmedBid BidHistoryStatus = "confirmed" // Ставка принята и учтена
	RevealedBid  BidHistoryStatus = "revealed"  // Ставка раскрыта после окончания аукциона
)

// EncryptedBid представляет зашифрованную ставку, принятую к учёту.
type EncryptedBid struct {
	ID              string    `json:"id"`
	AuctionID       string    `json:"auctionId"`
	Bidder          string    `json:"bidder"`
	EncryptedAmount string    `json:"encryptedAmount"`
	ProofData       string    `json:"proofData"`
	Timestamp       time.Time `json:"timestamp"`
}

// BidHistoryItem представляет запись истории ставок участника.
type BidHistoryItem struct {
	ID        string           `json:"id"`
	AuctionID string           `json:"auctionId"`
	Bidder    string           `json:"bidder"`
	Timestamp time.Time        `json:"timestamp"`
	Status    BidHistoryStatus `json:"status"`
}

// EncryptedBidView - отображаемая форма ставки без полного артефакта.
type EncryptedBidView struct {
	ID          string    `json:"id"`
	AuctionID   string    `json:"auctionId"`
	Bidder      string    `json:"bidder"`
	Display     string    `json:"display"`
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
}

// EncryptRequest представляет тело запроса на шифрование ставки.
type EncryptRequest struct {
	Amount AmountInput `json:"amount"`
}

// AmountInput - сумма в том виде, в каком её ввёл пользователь. Принимает JSON-строку или число.
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = AmountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return NewValidationError(NonNumeric, "please enter a valid bid amount")
	}
	*a = AmountInput(n.String())
	return nil
}

// VerifyRequest представляет тело запроса на проверку аттестации.
type VerifyRequest struct {
	Commitment  string `json:"commitment"`
	Attestation string `json:"attestation"`
}

// VerifyResponse - результат структурной проверки аттестации.
type VerifyResponse struct {
	Valid     bool      `json:"valid"`
	Identity  string    `json:"identity,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// BidPlacedEvent публикуется после того, как ставка принята.
type BidPlacedEvent struct {
	EventID     string    `json:"eventId"`
	AuctionID   string    `json:"auctionId"`
	BidID       string    `json:"bidId"`
	Bidder      string    `json:"bidder"`
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
}

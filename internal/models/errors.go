package models

import (
	"errors"
	"fmt"
)

var (
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrSessionNotFound  = errors.New("bid session not found")
	ErrSessionExists    = errors.New("bid session already open for this auction")
	ErrAuctionNotActive = errors.New("auction is not accepting bids")
	ErrSubmitInFlight   = errors.New("bid submission already in progress")
	ErrSessionClosed    = errors.New("bid session closed")
)

type Constraint string // Нарушенное ограничение на сумму ставки

const (
	NonNumeric  Constraint = "non_numeric"
	NonPositive Constraint = "non_positive"
	BelowFloor  Constraint = "below_floor"
	BadFilter   Constraint = "bad_filter"
)

// ValidationError - некорректный ввод, пользователь исправляет его и повторяет тот же шаг.
type ValidationError struct {
	Constraint Constraint
	Message    string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError создает ValidationError с форматированным сообщением.
func NewValidationError(c Constraint, format string, args ...any) *ValidationError {
	return &ValidationError{Constraint: c, Message: fmt.Sprintf(format, args...)}
}

// AttestationError - отсутствует или некорректна личность участника.
type AttestationError struct {
	Message string
	Err     error
}

func (e *AttestationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AttestationError) Unwrap() error { return e.Err }

// StateError - операция вызвана в неподходящем состоянии сессии. Это ошибка вызывающего.
type StateError struct {
	Op    string
	State SessionState
	Err   error
}

func (e *StateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not allowed in state %s: %v", e.Op, e.State, e.Err)
	}
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.State)
}

func (e *StateError) Unwrap() error { return e.Err }

// SubmissionError - внешний получатель ставки отказал или недоступен. Артефакты сохраняются.
type SubmissionError struct {
	AuctionID string
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit bid for auction %s: %v", e.AuctionID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

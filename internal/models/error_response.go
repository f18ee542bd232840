package models

import (
	"errors"
	"net/http"
)

// ErrorResponse описывает ошибку с кодом и сообщением.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Message    string `json:"reason"`
}

// NewErrorResponse создает новую ошибку с кодом и сообщением.
func NewErrorResponse(statusCode int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Message:    message}
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ErrorResponse) Error() string {
	return e.Message
}

// AsErrorResponse переводит доменную ошибку в HTTP-ответ. Неизвестные ошибки возвращают nil.
func AsErrorResponse(err error) *ErrorResponse {
	var (
		errResp    *ErrorResponse
		validation *ValidationError
		attest     *AttestationError
		state      *StateError
		submission *SubmissionError
	)
	switch {
	case errors.As(err, &errResp):
		return errResp
	case errors.As(err, &validation):
		return NewErrorResponse(http.StatusBadRequest, validation.Message)
	case errors.As(err, &attest):
		return NewErrorResponse(http.StatusBadRequest, attest.Error())
	case errors.Is(err, ErrAuctionNotFound), errors.Is(err, ErrSessionNotFound):
		return NewErrorResponse(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSessionClosed):
		return NewErrorResponse(http.StatusGone, ErrSessionClosed.Error())
	case errors.Is(err, ErrSessionExists), errors.Is(err, ErrSubmitInFlight):
		return NewErrorResponse(http.StatusConflict, err.Error())
	case errors.As(err, &state):
		return NewErrorResponse(http.StatusConflict, state.Error())
	case errors.As(err, &submission):
		return NewErrorResponse(http.StatusBadGateway, "failed to submit bid, please try again")
	}
	return nil
}

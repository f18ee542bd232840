package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/auth"
	"github.com/senyabanana/sealed-bid-service/internal/models"
	"github.com/senyabanana/sealed-bid-service/internal/sealing"
	"github.com/senyabanana/sealed-bid-service/internal/services"
	"github.com/senyabanana/sealed-bid-service/internal/utils"

	"github.com/charmbracelet/log"
)

// BidHandler - структура для обработки HTTP-запросов сессий ставок.
type BidHandler struct {
	Sessions *services.SessionService
	Auctions *services.AuctionService
	Logger   *log.Logger
	Timeout  time.Duration
}

// NewBidHandler создает новый экземпляр BidHandler.
func NewBidHandler(sessions *services.SessionService, auctions *services.AuctionService, logger *log.Logger, timeout time.Duration) *BidHandler {
	return &BidHandler{
		Sessions: sessions,
		Auctions: auctions,
		Logger:   logger,
		Timeout:  timeout,
	}
}

// OpenSession обрабатывает запросы на открытие сессии ставки.
func (h *BidHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	session, err := h.Sessions.OpenSession(ctx, r.PathValue("auctionId"), auth.IdentityFrom(r.Context()))
	if err != nil {
		sendError(w, h.Logger, err, "failed to open bid session")
		return
	}
	utils.SendJSON(w, http.StatusCreated, session)
}

// GetSession обрабатывает запросы на получение состояния сессии.
func (h *BidHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.Sessions.GetSession(r.Context(), r.PathValue("sessionId"), auth.IdentityFrom(r.Context()))
	if err != nil {
		sendError(w, h.Logger, err, "failed to fetch bid session")
		return
	}
	utils.SendJSON(w, http.StatusOK, session)
}

// EncryptBid обрабатывает запросы на шифрование ставки.
func (h *BidHandler) EncryptBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.EncryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			sendError(w, h.Logger, validation, "invalid bid amount")
			return
		}
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.Sessions.EncryptBid(ctx, r.PathValue("sessionId"), auth.IdentityFrom(r.Context()), string(req.Amount))
	if err != nil {
		sendError(w, h.Logger, err, "failed to encrypt bid")
		return
	}
	utils.SendJSON(w, http.StatusOK, session)
}

// SubmitBid обрабатывает запросы на отправку зашифрованной ставки.
func (h *BidHandler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	session, err := h.Sessions.SubmitBid(ctx, r.PathValue("sessionId"), auth.IdentityFrom(r.Context()))
	if err != nil {
		sendError(w, h.Logger, err, "failed to submit bid")
		return
	}
	utils.SendJSON(w, http.StatusOK, session)
}

// CloseSession обрабатывает запросы на отмену сессии.
func (h *BidHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.CloseSession(r.Context(), r.PathValue("sessionId"), auth.IdentityFrom(r.Context())); err != nil {
		sendError(w, h.Logger, err, "failed to close bid session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUserBids обрабатывает запросы для получения истории ставок участника.
func (h *BidHandler) GetUserBids(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	bids, err := h.Auctions.GetUserBids(ctx, auth.IdentityFrom(r.Context()), limitStr, offsetStr)
	if err != nil {
		sendError(w, h.Logger, err, "failed to fetch bids")
		return
	}
	utils.SendJSON(w, http.StatusOK, bids)
}

// VerifyBid обрабатывает запросы на структурную проверку аттестации.
func (h *BidHandler) VerifyBid(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	commitment := sealing.Commitment(req.Commitment)
	attestation := sealing.Attestation(req.Attestation)
	resp := models.VerifyResponse{Valid: sealing.VerifyAttestation(commitment, attestation)}
	if resp.Valid {
		if claims, err := sealing.ParseAttestation(attestation); err == nil {
			resp.Identity = claims.Identity
			resp.Timestamp = claims.Time()
		}
	}
	utils.SendJSON(w, http.StatusOK, resp)
}

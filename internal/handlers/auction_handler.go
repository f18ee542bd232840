package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/services"
	"github.com/senyabanana/sealed-bid-service/internal/utils"

	"github.com/charmbracelet/log"
)

// AuctionHandler - структура для обработки HTTP-запросов каталога.
type AuctionHandler struct {
	Service *services.AuctionService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewAuctionHandler создаёт новый экземпляр AuctionHandler.
func NewAuctionHandler(service *services.AuctionService, logger *log.Logger, timeout time.Duration) *AuctionHandler {
	return &AuctionHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetAuctions обрабатывает запросы для получения каталога с поиском и фильтром статуса.
func (h *AuctionHandler) GetAuctions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	search := r.URL.Query().Get("search")
	status := r.URL.Query().Get("status")
	categories := r.URL.Query()["category"]

	auctions, err := h.Service.ListAuctions(ctx, search, status, categories)
	if err != nil {
		sendError(w, h.Logger, err, "failed to fetch auctions")
		return
	}
	utils.SendJSON(w, http.StatusOK, auctions)
}

// GetAuction обрабатывает запросы для получения одного аукциона.
func (h *AuctionHandler) GetAuction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	auction, err := h.Service.GetAuction(ctx, r.PathValue("auctionId"))
	if err != nil {
		sendError(w, h.Logger, err, "failed to fetch auction")
		return
	}
	utils.SendJSON(w, http.StatusOK, auction)
}

// GetAuctionBids обрабатывает запросы для получения ставок аукциона в отображаемой форме.
func (h *AuctionHandler) GetAuctionBids(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	bids, err := h.Service.GetAuctionBids(ctx, r.PathValue("auctionId"), limitStr, offsetStr)
	if err != nil {
		sendError(w, h.Logger, err, "failed to fetch bids")
		return
	}
	utils.SendJSON(w, http.StatusOK, bids)
}

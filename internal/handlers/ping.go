package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/repository"
	"github.com/senyabanana/sealed-bid-service/internal/utils"

	"github.com/charmbracelet/log"
)

// PingHandler отвечает "ok", если хранилище каталога доступно.
type PingHandler struct {
	Repo    repository.AuctionRepository
	Logger  *log.Logger
	Timeout time.Duration
}

// NewPingHandler создает новый экземпляр PingHandler.
func NewPingHandler(repo repository.AuctionRepository, logger *log.Logger) *PingHandler {
	return &PingHandler{Repo: repo, Logger: logger, Timeout: 2 * time.Second}
}

// Ping обрабатывает GET запрос к /api/ping
func (h *PingHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()
	if _, err := h.Repo.CountAuctions(ctx); err != nil {
		h.Logger.Error("storage is unavailable", "err", err)
		utils.SendErrorResponse(w, http.StatusServiceUnavailable, "storage is unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, "ok"); err != nil {
		h.Logger.Error("write ping response", "err", err)
	}
}

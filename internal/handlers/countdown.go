package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/clock"
	"github.com/senyabanana/sealed-bid-service/internal/services"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// CountdownHandler раз в секунду отправляет клиенту статус аукциона и остаток времени.
// Таймер живёт, пока открыто соединение, и останавливается при его закрытии или окончании аукциона.
type CountdownHandler struct {
	Service  *services.AuctionService
	Logger   *log.Logger
	Interval time.Duration
	upgrader websocket.Upgrader
}

// NewCountdownHandler создает новый экземпляр CountdownHandler.
func NewCountdownHandler(service *services.AuctionService, logger *log.Logger) *CountdownHandler {
	return &CountdownHandler{
		Service:  service,
		Logger:   logger,
		Interval: time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream обрабатывает WebSocket-подписку на обратный отсчёт.
func (h *CountdownHandler) Stream(w http.ResponseWriter, r *http.Request) {
	auctionId := r.PathValue("auctionId")
	if _, err := h.Service.Project(r.Context(), auctionId); err != nil {
		sendError(w, h.Logger, err, "failed to fetch auction")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("websocket upgrade failed", "auction", auctionId, "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Чтение нужно только чтобы заметить закрытие соединения клиентом.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	clock.Every(ctx, h.Interval, func(time.Time) bool {
		projection, err := h.Service.Project(ctx, auctionId)
		if err != nil {
			h.Logger.Warn("countdown projection failed", "auction", auctionId, "err", err)
			return false
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(projection); err != nil {
			return false
		}
		return !projection.Ended
	})

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

package handlers

import (
	"net/http"

	"github.com/senyabanana/sealed-bid-service/internal/models"
	"github.com/senyabanana/sealed-bid-service/internal/utils"

	"github.com/charmbracelet/log"
)

// sendError переводит ошибку сервиса в JSON-ответ. Неизвестные ошибки скрываются за fallback.
func sendError(w http.ResponseWriter, logger *log.Logger, err error, fallback string) {
	if errorResponse := models.AsErrorResponse(err); errorResponse != nil {
		logger.Debug(fallback, "status", errorResponse.StatusCode, "err", err)
		utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Message)
		return
	}
	logger.Error(fallback, "err", err)
	utils.SendErrorResponse(w, http.StatusInternalServerError, fallback)
}

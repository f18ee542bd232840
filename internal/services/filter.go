package services

import (
	"strings"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/models"
)

// ParseStatusFilter разбирает фильтр статуса. Пустая строка означает all.
func ParseStatusFilter(raw string) (models.StatusFilter, error) {
	switch f := models.StatusFilter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return models.AllStatuses, nil
	case models.AllStatuses, models.UpcomingStatuses, models.ActiveStatuses, models.EndedStatuses:
		return f, nil
	default:
		return "", models.NewValidationError(models.BadFilter, "invalid status filter %q, must be one of all, upcoming, active, ended", raw)
	}
}

// FilterAuctions оставляет аукционы, подходящие под поиск и статус, сохраняя исходный порядок.
// Поиск регистронезависимый по названию или описанию. Пустой поиск и фильтр all ничего не отсекают.
func FilterAuctions(auctions []models.Auction, searchText string, status models.StatusFilter, now time.Time) []models.Auction {
	query := strings.ToLower(searchText)
	filtered := make([]models.Auction, 0, len(auctions))
	for _, a := range auctions {
		if query != "" &&
			!strings.Contains(strings.ToLower(a.Title), query) &&
			!strings.Contains(strings.ToLower(a.Description), query) {
			continue
		}
		if status != models.AllStatuses && status != "" && models.StatusFilter(a.StatusAt(now)) != status {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

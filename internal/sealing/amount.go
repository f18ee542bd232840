package sealing

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/senyabanana/sealed-bid-service/internal/models"
)

// decimalAmount - только десятичная запись: без hex, подчёркиваний, NaN и Inf.
var decimalAmount = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseAmount разбирает введённую сумму ставки. Пустая строка и не-числа отклоняются.
func ParseAmount(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if !decimalAmount.MatchString(raw) {
		return 0, models.NewValidationError(models.NonNumeric, "please enter a valid bid amount")
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, models.NewValidationError(models.NonNumeric, "please enter a valid bid amount")
	}
	return amount, nil
}

// ValidateAmount проверяет, что сумма конечна, положительна и не меньше стартовой ставки.
func ValidateAmount(amount, startingBid float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.NewValidationError(models.NonNumeric, "please enter a valid bid amount")
	}
	if amount <= 0 {
		return models.NewValidationError(models.NonPositive, "bid amount must be positive")
	}
	if amount < startingBid {
		return models.NewValidationError(models.BelowFloor, "bid must be at least %s ETH", FormatAmount(startingBid))
	}
	return nil
}

// FormatAmount печатает сумму без лишних нулей.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

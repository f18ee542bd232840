package clock

import (
	"fmt"
	"sync"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/models"
)

// EndedLabel показывается вместо отрицательного остатка времени.
const EndedLabel = "Ended"

// Clock - источник текущего времени.
type Clock interface {
	Now() time.Time
}

// SystemClock возвращает системное время.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock возвращает заданное время, пока его не сдвинут.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixedClock создает FixedClock на момент t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance сдвигает часы вперёд на d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// StatusAt вычисляет статус по границам: now == start даёт active, now == end даёт ended.
func StatusAt(start, end, now time.Time) models.AuctionStatus {
	return models.Auction{StartTime: start, EndTime: end}.StatusAt(now)
}

// Projection - состояние обратного отсчёта для карточки аукциона.
type Projection struct {
	AuctionID string               `json:"auctionId"`
	Status    models.AuctionStatus `json:"status"`
	Remaining time.Duration        `json:"-"`
	Seconds   int64                `json:"remainingSeconds"`
	Label     string               `json:"timeLeft"`
	Caption   string               `json:"caption"`
	Ended     bool                 `json:"ended"`
}

// Project вычисляет статус и остаток времени до ближайшей границы аукциона.
func Project(a models.Auction, now time.Time) Projection {
	status := a.StatusAt(now)
	target := a.EndTime
	caption := "Ends in"
	if status == models.UpcomingAuction {
		target = a.StartTime
		caption = "Starts in"
	}

	p := Projection{AuctionID: a.ID, Status: status, Caption: caption}
	remaining := target.Sub(now)
	if status == models.EndedAuction || remaining < 0 {
		p.Status = models.EndedAuction
		p.Label = EndedLabel
		p.Ended = true
		return p
	}

	p.Remaining = remaining
	p.Seconds = int64(remaining / time.Second)
	p.Label = FormatRemaining(remaining)
	return p
}

// FormatRemaining форматирует длительность как "Xh Ym Zs". Часы берутся по модулю суток.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return EndedLabel
	}
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60
	seconds := int(d/time.Second) % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// View строит клиентскую проекцию аукциона.
func View(a models.Auction, now time.Time) models.AuctionView {
	p := Project(a, now)
	return models.AuctionView{
		Auction:   a,
		Status:    p.Status,
		Remaining: p.Seconds,
		TimeLeft:  p.Label,
		Caption:   p.Caption,
		CanBid:    p.Status == models.ActiveAuction,
	}
}

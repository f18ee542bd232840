package clock

import (
	"context"
	"time"
)

// Every запускает fn сразу и затем каждые interval, пока ctx не отменён или fn не вернёт false.
// Возвращается после остановки таймера, так что утечек нет.
func Every(ctx context.Context, interval time.Duration, fn func(now time.Time) bool) {
	if !fn(time.Now()) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !fn(now) {
				return
			}
		}
	}
}

package metrics

import (
	"context"
	"log/slog"
	"time"
)

// StatusCounter reports the current number of reports in each lifecycle
// status. Implemented by the service layer; the gauge worker stays
// decoupled from storage.
type StatusCounter func(ctx context.Context) (map[string]int, error)

// RunStatusWorker refreshes the ReportsByStatus gauge on a fixed interval
// until the context is cancelled. Runs outside the approval engine; the
// engine itself holds no background goroutines.
func RunStatusWorker(ctx context.Context, interval time.Duration, count StatusCounter, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh := func() {
		counts, err := count(ctx)
		if err != nil {
			logger.Warn("failed to refresh report status gauge", "error", err)
			return
		}
		for status, n := range counts {
			ReportsByStatus.WithLabelValues(status).Set(float64(n))
		}
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

package merge

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/config"
)

// withRetry runs fn up to settings.Attempts times with a fixed delay between
// attempts, logging each failure and the final exhaustion.
//
// Transient and permanent failures are deliberately not distinguished: a
// permanent failure simply burns through its attempts before being reported.
// Exhaustion is an error for this file only; callers continue with the next
// file.
func withRetry(log *slog.Logger, settings config.RetrySettings, src string, fn func() (int, error)) (int, error) {
	var lastErr error

	for attempt := 1; attempt <= settings.Attempts; attempt++ {
		rows, err := fn()
		if err == nil {
			return rows, nil
		}
		lastErr = err

		log.Warn("attempt failed",
			"file", src,
			"attempt", attempt,
			"max_attempts", settings.Attempts,
			"error", err)

		if attempt < settings.Attempts {
			time.Sleep(settings.Delay.Value())
		}
	}

	log.Error("giving up on file",
		"file", src,
		"attempts", settings.Attempts,
		"error", lastErr)

	return 0, fmt.Errorf("failed after %d attempts: %w", settings.Attempts, lastErr)
}

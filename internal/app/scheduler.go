package app

import (
	"context"
	"log/slog"
	"time"

	auditusecase "github.com/otpgate/otpgate/internal/audit/usecase"
)

// initSchedulers starts the background sweeps. The OTP sweep removes codes
// that expired without ever being verified, the audit sweep enforces the
// retention window on log entries.
func (a *App) initSchedulers() {
	if a.otpUC != nil {
		interval := a.config.GetMinute("modules.otp.cleanup_interval_minutes")
		if interval <= 0 {
			interval = 10 * time.Minute
		}
		a.runEvery("otp cleanup", interval, func(ctx context.Context) error {
			_, err := a.otpUC.CleanupExpired(ctx)

			return err
		})
	}

	if a.auditUC != nil {
		interval := a.config.GetHour("modules.audit.purge_interval_hours")
		if interval <= 0 {
			interval = 24 * time.Hour
		}
		a.runEvery("audit purge", interval, func(ctx context.Context) error {
			_, err := a.auditUC.Purge(ctx, auditusecase.PurgeInput{})

			return err
		})
	}
}

func (a *App) runEvery(name string, interval time.Duration, fn func(ctx context.Context) error) {
	a.goroutine.Go(a.ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					slog.ErrorContext(ctx, "scheduled job failed", "job", name, "error", err)
				}
			}
		}
	})
}

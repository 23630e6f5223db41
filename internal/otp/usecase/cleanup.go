package usecase

import (
	"context"
	"log/slog"

	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

// CleanupExpired deletes passcode records whose expiry has passed and
// returns the number removed. It is safe to run repeatedly; a sweep that
// finds nothing is not an error.
func (s *Usecase) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "CleanupExpired")
	defer span.End()

	removed, err := s.repoDB.CleanupExpired(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to clean up expired passcodes", "error", err)
		return 0, goerror.NewServer(err)
	}

	if removed > 0 {
		slog.InfoContext(ctx, "cleaned up expired passcodes", "removed", removed)
	}

	return removed, nil
}

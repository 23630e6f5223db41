package usecase

import (
	"context"
	"log/slog"

	"github.com/otpgate/otpgate/internal/audit/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type StatsOutput struct {
	Stats *entity.Stats
}

// Stats returns an aggregate snapshot of the audit trail.
func (s *Usecase) Stats(ctx context.Context) (*StatsOutput, error) {
	ctx, span := s.startSpan(ctx, "Stats")
	defer span.End()

	stats, err := s.repoDB.Stats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo aggregate audit stats", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &StatsOutput{Stats: stats}, nil
}

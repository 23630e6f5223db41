package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type PurgeInput struct {
	// OlderThanDays overrides the configured retention when positive.
	OlderThanDays int32
	// IDs removes specific entries instead of an age-based sweep.
	IDs []int64
}

type PurgeOutput struct {
	Removed int64
}

// Purge removes audit entries, either the given IDs or everything older
// than the retention cutoff.
func (s *Usecase) Purge(ctx context.Context, in PurgeInput) (*PurgeOutput, error) {
	ctx, span := s.startSpan(ctx, "Purge")
	defer span.End()

	if len(in.IDs) > 0 {
		removed, err := s.repoDB.DeleteByIDs(ctx, in.IDs)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo delete audit entries", "ids", len(in.IDs), "error", err)
			return nil, goerror.NewServer(err)
		}
		return &PurgeOutput{Removed: removed}, nil
	}

	retention := s.retention()
	if in.OlderThanDays > 0 {
		retention = time.Duration(in.OlderThanDays) * 24 * time.Hour
	}

	removed, err := s.repoDB.Purge(ctx, s.clock.Now().Add(-retention))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo purge audit entries", "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "purged audit entries", "removed", removed, "retention", retention.String())
	return &PurgeOutput{Removed: removed}, nil
}

func (s *Usecase) retention() time.Duration {
	retention := s.cfg.GetDay("modules.audit.retention_days")
	if retention == 0 {
		retention = 90 * 24 * time.Hour
	}
	return retention
}

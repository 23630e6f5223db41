package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/otpgate/otpgate/internal/audit/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/idempotency"
)

type RecordInput struct {
	EventID   int64
	EventType string `validate:"required,max=50"`
	Subject   string `validate:"required,max=50"`
	Contact   string `validate:"required,max=255"`
	Channel   string `validate:"max=20"`
	Message   string
	UserID    int64
	At        time.Time
}

// Record appends one lifecycle event to the trail. Consumption is
// at-least-once, so the write is guarded by an idempotency key on the
// publisher-assigned event ID; a redelivered message becomes a no-op.
// Messages predating event IDs fall back to a composite key.
func (s *Usecase) Record(ctx context.Context, in RecordInput) error {
	ctx, span := s.startSpan(ctx, "Record")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	key := fmt.Sprintf("audit:record:%d", in.EventID)
	if in.EventID == 0 {
		key = fmt.Sprintf("audit:record:%s:%s:%d", in.Subject, in.Contact, in.At.Unix())
	}

	err := s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		createdAt := in.At
		if createdAt.IsZero() {
			createdAt = s.clock.Now()
		}

		return s.repoDB.Insert(ctx, entity.NewEntry{
			ID:        int64(s.uid.Generate()),
			EventType: in.EventType,
			Subject:   in.Subject,
			Contact:   in.Contact,
			Message:   in.Message,
			Channel:   in.Channel,
			UserID:    in.UserID,
			CreatedAt: createdAt,
		})
	})
	if errors.Is(err, idempotency.ErrAlreadyCompleted) || errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.InfoContext(ctx, "skipping duplicate audit entry", "key", key)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to record audit entry",
			"event_type", in.EventType, "contact", in.Contact, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

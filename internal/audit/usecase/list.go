package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/otpgate/otpgate/internal/audit/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

const (
	listDefaultPageSize int32 = 20
	listMaxPageSize     int32 = 200
)

type ListInput struct {
	Contact   string
	Channel   string
	EventType string
	Subject   string
	UserID    int64
	From      time.Time
	To        time.Time
	Page      int32
	PageSize  int32
	OrderAsc  bool
}

type ListOutput struct {
	Entries  []entity.Entry
	Total    int64
	Page     int32
	PageSize int32
}

// List returns a page of the audit trail, newest first unless asked
// otherwise.
func (s *Usecase) List(ctx context.Context, in ListInput) (*ListOutput, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	if in.Page < 1 {
		in.Page = 1
	}
	if in.PageSize < 1 {
		in.PageSize = listDefaultPageSize
	}
	if in.PageSize > listMaxPageSize {
		in.PageSize = listMaxPageSize
	}

	entries, total, err := s.repoDB.List(ctx, entity.ListFilter{
		Contact:   in.Contact,
		Channel:   in.Channel,
		EventType: in.EventType,
		Subject:   in.Subject,
		UserID:    in.UserID,
		From:      in.From,
		To:        in.To,
		Limit:     in.PageSize,
		Offset:    (in.Page - 1) * in.PageSize,
		OrderAsc:  in.OrderAsc,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list audit entries", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListOutput{
		Entries:  entries,
		Total:    total,
		Page:     in.Page,
		PageSize: in.PageSize,
	}, nil
}

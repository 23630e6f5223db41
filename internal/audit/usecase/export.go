package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/otpgate/otpgate/internal/audit/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/storage"
	"github.com/samber/lo"
)

const exportPageSize int32 = 1_000

type ExportInput struct {
	Contact   string
	Channel   string
	EventType string
	Subject   string
	UserID    int64
	From      time.Time
	To        time.Time
}

type ExportOutput struct {
	ObjectKey   string
	DownloadURL string
	Rows        int64
}

// Export writes the matching slice of the trail as a CSV object and
// returns a presigned download link.
func (s *Usecase) Export(ctx context.Context, in ExportInput) (*ExportOutput, error) {
	ctx, span := s.startSpan(ctx, "Export")
	defer span.End()

	filter := entity.ListFilter{
		Contact:   in.Contact,
		Channel:   in.Channel,
		EventType: in.EventType,
		Subject:   in.Subject,
		UserID:    in.UserID,
		From:      in.From,
		To:        in.To,
		Limit:     exportPageSize,
		OrderAsc:  true,
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "event_type", "subject", "contact", "message", "channel", "user_id", "created_at"}); err != nil {
		return nil, goerror.NewServer(err)
	}

	var rows int64
	for {
		entries, _, err := s.repoDB.List(ctx, filter)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo list audit entries for export", "error", err)
			return nil, goerror.NewServer(err)
		}
		if len(entries) == 0 {
			break
		}

		records := lo.Map(entries, func(e entity.Entry, _ int) []string {
			return []string{
				strconv.FormatInt(e.ID, 10),
				e.EventType,
				e.Subject,
				e.Contact,
				e.Message,
				e.Channel,
				strconv.FormatInt(e.UserID, 10),
				e.CreatedAt.UTC().Format(time.RFC3339),
			}
		})
		if err := w.WriteAll(records); err != nil {
			return nil, goerror.NewServer(err)
		}

		rows += int64(len(entries))
		if int32(len(entries)) < exportPageSize {
			break
		}
		filter.Offset += exportPageSize
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, goerror.NewServer(err)
	}

	bucket := s.cfg.GetString("modules.audit.export_bucket")
	key := fmt.Sprintf("audit-exports/%s-%d.csv", s.clock.Now().UTC().Format("20060102T150405Z"), s.uid.Generate())

	if _, err := s.store.PutObject(ctx, bucket, key, &buf, storage.PutOptions{
		Size:        int64(buf.Len()),
		ContentType: "text/csv",
	}); err != nil {
		slog.ErrorContext(ctx, "failed to store audit export", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	url, err := s.store.PresignGet(ctx, bucket, key, s.exportLinkTTL())
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign audit export", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ExportOutput{ObjectKey: key, DownloadURL: url, Rows: rows}, nil
}

func (s *Usecase) exportLinkTTL() time.Duration {
	ttl := s.cfg.GetHour("modules.audit.export_link_ttl_hours")
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return ttl
}

package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otpgate/otpgate/internal/audit/entity"
)

// Insert appends one entry to the trail.
func (s *DB) Insert(ctx context.Context, in entity.NewEntry) (err error) {
	ctx, span := s.startSpan(ctx, "Insert")
	defer func() { s.endSpan(span, err) }()

	const q = `
		INSERT INTO otp_logs (id, event_type, subject, contact, message, channel, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = s.conn.Exec(ctx, q,
		in.ID, in.EventType, in.Subject, in.Contact, in.Message, in.Channel, in.UserID, in.CreatedAt,
	)
	err = s.mapError(err)
	return err
}

// whereClause renders the filter into a WHERE fragment and its bind
// arguments. An empty filter yields an empty fragment.
func whereClause(f entity.ListFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Contact != "" {
		add("contact LIKE $%d", "%"+f.Contact+"%")
	}
	if f.Channel != "" {
		add("channel = $%d", f.Channel)
	}
	if f.EventType != "" {
		add("event_type = $%d", f.EventType)
	}
	if f.Subject != "" {
		add("subject = $%d", f.Subject)
	}
	if f.UserID != 0 {
		add("user_id = $%d", f.UserID)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at <= $%d", f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns a page of entries matching the filter and the total match
// count before paging.
func (s *DB) List(ctx context.Context, f entity.ListFilter) (_ []entity.Entry, total int64, err error) {
	ctx, span := s.startSpan(ctx, "List")
	defer func() { s.endSpan(span, err) }()

	where, args := whereClause(f)

	if err = s.conn.QueryRow(ctx, "SELECT count(*) FROM otp_logs"+where, args...).Scan(&total); err != nil {
		err = s.mapError(err)
		return nil, 0, err
	}

	order := "DESC"
	if f.OrderAsc {
		order = "ASC"
	}
	q := fmt.Sprintf(
		"SELECT id, event_type, subject, contact, message, channel, user_id, created_at FROM otp_logs%s ORDER BY created_at %s, id %s LIMIT $%d OFFSET $%d",
		where, order, order, len(args)+1, len(args)+2,
	)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.conn.Query(ctx, q, args...)
	if err != nil {
		err = s.mapError(err)
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]entity.Entry, 0, f.Limit)
	for rows.Next() {
		var e entity.Entry
		if err = rows.Scan(
			&e.ID, &e.EventType, &e.Subject, &e.Contact, &e.Message, &e.Channel, &e.UserID, &e.CreatedAt,
		); err != nil {
			err = s.mapError(err)
			return nil, 0, err
		}
		items = append(items, e)
	}
	if err = rows.Err(); err != nil {
		err = s.mapError(err)
		return nil, 0, err
	}

	return items, total, nil
}

// Stats aggregates the trail: total rows, rows in the trailing 24 hours,
// and breakdowns per event type and channel.
func (s *DB) Stats(ctx context.Context) (_ *entity.Stats, err error) {
	ctx, span := s.startSpan(ctx, "Stats")
	defer func() { s.endSpan(span, err) }()

	out := &entity.Stats{
		ByEventType: make(map[string]int64),
		BySubject:   make(map[string]int64),
		ByChannel:   make(map[string]int64),
	}

	const qTotals = `
		SELECT count(*), count(*) FILTER (WHERE created_at >= now() - interval '24 hours')
		FROM otp_logs`
	if err = s.conn.QueryRow(ctx, qTotals).Scan(&out.Total, &out.Last24Hours); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	groups := []struct {
		query string
		dst   map[string]int64
	}{
		{`SELECT event_type, count(*) FROM otp_logs GROUP BY event_type`, out.ByEventType},
		{`SELECT subject, count(*) FROM otp_logs GROUP BY subject`, out.BySubject},
		{`SELECT channel, count(*) FROM otp_logs WHERE channel <> '' GROUP BY channel`, out.ByChannel},
	}
	for _, g := range groups {
		if err = s.groupCount(ctx, g.query, g.dst); err != nil {
			err = s.mapError(err)
			return nil, err
		}
	}

	return out, nil
}

func (s *DB) groupCount(ctx context.Context, q string, dst map[string]int64) error {
	rows, err := s.conn.Query(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		dst[key] = n
	}
	return rows.Err()
}

// Purge removes entries created before the cutoff and returns the number
// removed.
func (s *DB) Purge(ctx context.Context, before time.Time) (count int64, err error) {
	ctx, span := s.startSpan(ctx, "Purge")
	defer func() { s.endSpan(span, err) }()

	const q = `DELETE FROM otp_logs WHERE created_at < $1`

	tag, err := s.conn.Exec(ctx, q, before)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// DeleteByIDs removes specific entries and returns the number removed.
func (s *DB) DeleteByIDs(ctx context.Context, ids []int64) (count int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteByIDs")
	defer func() { s.endSpan(span, err) }()

	const q = `DELETE FROM otp_logs WHERE id = ANY($1)`

	tag, err := s.conn.Exec(ctx, q, ids)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}

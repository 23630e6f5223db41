package db

import (
	"context"
	"unicode/utf8"

	"github.com/otpgate/otpgate/internal/otp/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

// otp_codes.contact is VARCHAR(255); anything longer can only be garbage.
const maxContactLen = 255

func validateContact(contact string) error {
	if contact == "" {
		return goerror.NewInvalidFormat("contact must not be empty")
	}
	if utf8.RuneCountInString(contact) > maxContactLen {
		return goerror.NewInvalidFormat("contact exceeds 255 characters")
	}
	return nil
}

// SaveCode issues or reissues the passcode record for a contact. The
// single-statement upsert keeps concurrent sends for the same contact
// from double-inserting: whichever statement commits last wins, and the
// record always ends up pending with zero attempts.
func (s *DB) SaveCode(ctx context.Context, in entity.NewRecord) (err error) {
	ctx, span := s.startSpan(ctx, "SaveCode")
	defer func() { s.endSpan(span, err) }()

	if err = validateContact(in.Contact); err != nil {
		return err
	}

	const q = `
		INSERT INTO otp_codes (id, contact, code_hash, expires_at, attempts, status, created_at)
		VALUES ($1, $2, $3, $4, 0, 'pending', now())
		ON CONFLICT (contact) DO UPDATE SET
			code_hash  = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at,
			attempts   = 0,
			status     = 'pending',
			created_at = now()`

	_, err = s.conn.Exec(ctx, q, in.ID, in.Contact, in.CodeHash, in.ExpiresAt)
	err = s.mapError(err)
	return err
}

// GetByContact returns the passcode record for a contact, or
// goerror.ErrNotFound when none exists.
func (s *DB) GetByContact(ctx context.Context, contact string) (rec *entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "GetByContact")
	defer func() { s.endSpan(span, err) }()

	if err = validateContact(contact); err != nil {
		return nil, err
	}

	const q = `
		SELECT id, contact, code_hash, expires_at, attempts, status, created_at
		FROM otp_codes
		WHERE contact = $1`

	var out entity.Record
	var status string
	err = s.conn.QueryRow(ctx, q, contact).Scan(
		&out.ID, &out.Contact, &out.CodeHash, &out.ExpiresAt, &out.Attempts, &status, &out.CreatedAt,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	out.Status = entity.StatusFromString(status)
	return &out, nil
}

// UpdateStatus transitions the record for contact from pending to the
// given terminal status. The status guard makes the transition a
// compare-and-swap: it reports false when another caller already moved
// the record out of pending.
func (s *DB) UpdateStatus(ctx context.Context, contact string, to entity.Status) (updated bool, err error) {
	ctx, span := s.startSpan(ctx, "UpdateStatus")
	defer func() { s.endSpan(span, err) }()

	if err = validateContact(contact); err != nil {
		return false, err
	}
	if !to.Valid() || to == entity.StatusPending {
		return false, goerror.NewInvalidFormat("invalid status transition")
	}

	const q = `
		UPDATE otp_codes
		SET status = $2
		WHERE contact = $1 AND status = 'pending'`

	tag, err := s.conn.Exec(ctx, q, contact, to.String())
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// IncrementAttempts bumps the failed-attempt counter server-side and
// returns the new value. Only pending records are counted.
func (s *DB) IncrementAttempts(ctx context.Context, contact string) (attempts int32, err error) {
	ctx, span := s.startSpan(ctx, "IncrementAttempts")
	defer func() { s.endSpan(span, err) }()

	if err = validateContact(contact); err != nil {
		return 0, err
	}

	const q = `
		UPDATE otp_codes
		SET attempts = attempts + 1
		WHERE contact = $1 AND status = 'pending'
		RETURNING attempts`

	err = s.conn.QueryRow(ctx, q, contact).Scan(&attempts)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return attempts, nil
}

// CleanupExpired deletes records whose expiry has passed. Safe to run
// repeatedly; returns the number of rows removed.
func (s *DB) CleanupExpired(ctx context.Context) (count int64, err error) {
	ctx, span := s.startSpan(ctx, "CleanupExpired")
	defer func() { s.endSpan(span, err) }()

	const q = `DELETE FROM otp_codes WHERE expires_at < now()`

	tag, err := s.conn.Exec(ctx, q)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}

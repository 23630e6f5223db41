package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/otpgate/otpgate/internal/account/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

// InsertRefreshToken stores a new refresh credential hash.
func (s *DB) InsertRefreshToken(ctx context.Context, in entity.NewRefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "InsertRefreshToken")
	defer func() { s.endSpan(span, err) }()

	const q = `
		INSERT INTO account_refresh_tokens (id, account_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, false, now())`

	_, err = s.conn.Exec(ctx, q, in.ID, in.AccountID, in.TokenHash, in.ExpiresAt)
	err = s.mapError(err)
	return err
}

// GetRefreshToken looks up a refresh credential by its hash, joined with
// its account.
func (s *DB) GetRefreshToken(ctx context.Context, tokenHash string) (_ *entity.RefreshToken, err error) {
	ctx, span := s.startSpan(ctx, "GetRefreshToken")
	defer func() { s.endSpan(span, err) }()

	const q = `
		SELECT t.id, t.account_id, a.username, a.contact, t.token_hash, t.expires_at, t.revoked, t.replaced_by_id
		FROM account_refresh_tokens t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.token_hash = $1`

	var out entity.RefreshToken
	err = s.conn.QueryRow(ctx, q, tokenHash).Scan(
		&out.ID, &out.AccountID, &out.Username, &out.Contact,
		&out.TokenHash, &out.ExpiresAt, &out.Revoked, &out.ReplacedByID,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &out, nil
}

// RotateRefreshToken revokes the old credential and inserts its
// replacement in one transaction. The revoke is guarded on the token
// still being live, so a concurrent rotation of the same token maps to
// goerror.ErrNotFound.
func (s *DB) RotateRefreshToken(ctx context.Context, in entity.RotateRefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "RotateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		err = s.mapError(err)
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const qRevoke = `
		UPDATE account_refresh_tokens
		SET revoked = true, replaced_by_id = $2
		WHERE id = $1 AND revoked = false`

	tag, err := tx.Exec(ctx, qRevoke, in.OldID, in.NewID)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	const qInsert = `
		INSERT INTO account_refresh_tokens (id, account_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, false, now())`

	if _, err = tx.Exec(ctx, qInsert, in.NewID, in.AccountID, in.NewTokenHash, in.NewExpiresAt); err != nil {
		err = s.mapError(err)
		return err
	}

	err = tx.Commit(ctx)
	err = s.mapError(err)
	return err
}

// RevokeAllRefreshTokens revokes every live credential for an account.
func (s *DB) RevokeAllRefreshTokens(ctx context.Context, accountID int64) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeAllRefreshTokens")
	defer func() { s.endSpan(span, err) }()

	const q = `
		UPDATE account_refresh_tokens
		SET revoked = true
		WHERE account_id = $1 AND revoked = false`

	_, err = s.conn.Exec(ctx, q, accountID)
	err = s.mapError(err)
	return err
}

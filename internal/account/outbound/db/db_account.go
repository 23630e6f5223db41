package db

import (
	"context"

	"github.com/otpgate/otpgate/internal/account/entity"
)

// GetByContact returns the account bound to a contact, or
// goerror.ErrNotFound when none exists.
func (s *DB) GetByContact(ctx context.Context, contact string) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetByContact")
	defer func() { s.endSpan(span, err) }()

	const q = `
		SELECT id, username, contact, created_at
		FROM accounts
		WHERE contact = $1`

	var out entity.Account
	err = s.conn.QueryRow(ctx, q, contact).Scan(&out.ID, &out.Username, &out.Contact, &out.CreatedAt)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &out, nil
}

// UsernameExists reports whether the username is already taken.
func (s *DB) UsernameExists(ctx context.Context, username string) (exists bool, err error) {
	ctx, span := s.startSpan(ctx, "UsernameExists")
	defer func() { s.endSpan(span, err) }()

	const q = `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`

	err = s.conn.QueryRow(ctx, q, username).Scan(&exists)
	err = s.mapError(err)
	return exists, err
}

// Create inserts a new account. A unique violation on contact or
// username maps to goerror.ErrConflict.
func (s *DB) Create(ctx context.Context, in entity.NewAccount) (err error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer func() { s.endSpan(span, err) }()

	const q = `
		INSERT INTO accounts (id, username, contact, credential_hash, created_at)
		VALUES ($1, $2, $3, $4, now())`

	_, err = s.conn.Exec(ctx, q, in.ID, in.Username, in.Contact, in.CredentialHash)
	err = s.mapError(err)
	return err
}

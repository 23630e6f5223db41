// Package entity holds the account domain types.
package entity

import "time"

// Account is a user identity established through a verified contact.
type Account struct {
	ID        int64
	Username  string
	Contact   string
	CreatedAt time.Time
}

// NewAccount is the data needed to create an account.
type NewAccount struct {
	ID             int64
	Username       string
	Contact        string
	CredentialHash string
}

// RefreshToken is one stored refresh credential. Only its HMAC is
// persisted; the opaque token itself never touches the database.
type RefreshToken struct {
	ID        int64
	AccountID int64
	Username  string
	Contact   string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	// ReplacedByID is set when the token was rotated; its presence on a
	// revoked token marks reuse of a stolen credential.
	ReplacedByID *int64
}

// NewRefreshToken is the data needed to persist a refresh credential.
type NewRefreshToken struct {
	ID        int64
	AccountID int64
	TokenHash string
	ExpiresAt time.Time
}

// RotateRefreshToken swaps an old refresh credential for a new one.
type RotateRefreshToken struct {
	NewID        int64
	OldID        int64
	AccountID    int64
	NewTokenHash string
	NewExpiresAt time.Time
}

package entity

import (
	"strconv"
	"strings"
	"time"
)

// Record is one issued passcode bound to a contact. The contact is the
// natural key: at most one record exists per contact, and a new send
// overwrites it.
type Record struct {
	ID        int64
	Contact   string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int32
	Status    Status
	CreatedAt time.Time
}

// NewRecord is the data needed to issue (or reissue) a passcode record.
type NewRecord struct {
	ID        int64
	Contact   string
	CodeHash  string
	ExpiresAt time.Time
}

// Settings is an immutable per-call snapshot of the OTP policy. It is
// built from configuration at the start of each operation so a live
// config reload never changes policy mid-flow.
type Settings struct {
	Channels     []Channel
	CodeLength   int
	Expiry       time.Duration
	ResendLimit  int64
	ResendWindow time.Duration
	MaxAttempts  int32
	EmailSubject string
	EmailBody    string
	SMSMessage   string
}

// ChannelAllowed reports whether c is in the configured channel set.
func (s Settings) ChannelAllowed(c Channel) bool {
	for _, allowed := range s.Channels {
		if allowed == c {
			return true
		}
	}
	return false
}

// RenderTemplate substitutes the {OTP} and {MINUTES} placeholders into a
// message template.
func RenderTemplate(tpl, code string, expiry time.Duration) string {
	minutes := int(expiry.Minutes())
	return strings.NewReplacer(
		"{OTP}", code,
		"{MINUTES}", strconv.Itoa(minutes),
	).Replace(tpl)
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/otpgate/otpgate/internal/otp/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

func TestSendEmail(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	out, err := f.uc.Send(context.Background(), SendInput{Contact: "User@Example.com", Channel: "email"})

	// Assert
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if out.Code != entity.ReasonEmailSent {
		t.Fatalf("code = %q, want %q", out.Code, entity.ReasonEmailSent)
	}
	if len(f.email.sent) != 1 {
		t.Fatalf("email deliveries = %d, want 1", len(f.email.sent))
	}

	msg := f.email.sent[0]
	if msg.Contact != "user@example.com" {
		t.Fatalf("contact not normalized: %q", msg.Contact)
	}
	if msg.Subject != "Your OTP Code" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "5 minutes") {
		t.Fatalf("body template not rendered: %q", msg.Body)
	}
	if strings.Contains(msg.Body, "{OTP}") {
		t.Fatalf("placeholder left in body: %q", msg.Body)
	}

	if len(f.db.saved) != 1 {
		t.Fatalf("records saved = %d, want 1", len(f.db.saved))
	}
	if f.db.saved[0].CodeHash == "" || strings.Contains(msg.Body, f.db.saved[0].CodeHash) {
		t.Fatal("record must hold a hash, never the plaintext code")
	}
	if want := f.clock.now.Add(5 * time.Minute); !f.db.saved[0].ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", f.db.saved[0].ExpiresAt, want)
	}

	if f.cache.marked != 1 {
		t.Fatalf("resend counter bumps = %d, want 1", f.cache.marked)
	}
	if got := f.msg.subjects(); len(got) != 1 || got[0] != entity.ReasonEmailSent {
		t.Fatalf("events = %v, want [%s]", got, entity.ReasonEmailSent)
	}
}

func TestSendSMS(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	out, err := f.uc.Send(context.Background(), SendInput{Contact: "+628123456789", Channel: "sms"})

	// Assert
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if out.Code != entity.ReasonSMSSent {
		t.Fatalf("code = %q, want %q", out.Code, entity.ReasonSMSSent)
	}
	if len(f.sms.sent) != 1 || len(f.email.sent) != 0 {
		t.Fatalf("sms=%d email=%d, want sms only", len(f.sms.sent), len(f.email.sent))
	}
	if f.sms.sent[0].Subject != "" {
		t.Fatal("sms message must not carry a subject")
	}
}

func TestSendInvalidContact(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	_, err := f.uc.Send(context.Background(), SendInput{Contact: "not a contact", Channel: "email"})

	// Assert
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if len(f.db.saved) != 0 {
		t.Fatal("nothing must be persisted on invalid input")
	}
}

func TestSendInvalidChannel(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	_, err := f.uc.Send(context.Background(), SendInput{Contact: "user@example.com", Channel: "pigeon"})

	// Assert
	if got := reasonOf(t, err); got != entity.ReasonInvalidChannel {
		t.Fatalf("reason = %q, want %q", got, entity.ReasonInvalidChannel)
	}
	if got := f.msg.subjects(); len(got) != 1 || got[0] != entity.ReasonInvalidChannel {
		t.Fatalf("events = %v, want [%s]", got, entity.ReasonInvalidChannel)
	}
}

func TestSendRendersSubjectTemplate(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.cfg.strings["modules.otp.email_subject_template"] = "Code {OTP} expires in {MINUTES} minutes"

	// Act
	_, err := f.uc.Send(context.Background(), SendInput{Contact: "user@example.com", Channel: "email"})

	// Assert
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	subject := f.email.sent[0].Subject
	if strings.Contains(subject, "{OTP}") || strings.Contains(subject, "{MINUTES}") {
		t.Fatalf("placeholder left in subject: %q", subject)
	}
	if !strings.Contains(subject, "expires in 5 minutes") {
		t.Fatalf("subject template not rendered: %q", subject)
	}
}

func TestSendEventIdentity(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act: two sends in the same clock instant.
	for range 2 {
		if _, err := f.uc.Send(context.Background(), SendInput{Contact: "user@example.com", Channel: "email"}); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	// Assert: each event carries its own ID and a severity.
	if len(f.msg.events) != 2 {
		t.Fatalf("events = %d, want 2", len(f.msg.events))
	}
	first, second := f.msg.events[0], f.msg.events[1]
	if first.ID == 0 || second.ID == 0 || first.ID == second.ID {
		t.Fatalf("event IDs = %d, %d, want distinct and nonzero", first.ID, second.ID)
	}
	if first.EventType != entity.LevelInfo || first.Subject != entity.ReasonEmailSent {
		t.Fatalf("event type/subject = %q/%q, want %q/%q",
			first.EventType, first.Subject, entity.LevelInfo, entity.ReasonEmailSent)
	}
}

func TestSendResendLimit(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.cache.count = 3

	// Act
	_, err := f.uc.Send(context.Background(), SendInput{Contact: "user@example.com", Channel: "email"})

	// Assert
	if got := reasonOf(t, err); got != entity.ReasonResendLimit {
		t.Fatalf("reason = %q, want %q", got, entity.ReasonResendLimit)
	}
	if len(f.db.saved) != 0 {
		t.Fatal("no record must be written when throttled")
	}
	if got := f.msg.subjects(); len(got) != 1 || got[0] != entity.ReasonResendLimit {
		t.Fatalf("events = %v, want [%s]", got, entity.ReasonResendLimit)
	}
}

func TestSendSaveFailed(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.saveErr = errors.New("unique violation")

	// Act
	_, err := f.uc.Send(context.Background(), SendInput{Contact: "user@example.com", Channel: "email"})

	// Assert
	if got := reasonOf(t, err); got != entity.ReasonSaveFailed {
		t.Fatalf("reason = %q, want %q", got, entity.ReasonSaveFailed)
	}
	if len(f.email.sent) != 0 {
		t.Fatal("nothing must be delivered when the save fails")
	}
	if f.cache.marked != 0 {
		t.Fatal("a failed save must not consume a resend slot")
	}
}

func TestSendDeliveryFailed(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.email.err = errors.New("smtp refused")

	// Act
	_, err := f.uc.Send(context.Background(), SendInput{Contact: "user@example.com", Channel: "email"})

	// Assert
	if got := reasonOf(t, err); got != entity.ReasonEmailFailed {
		t.Fatalf("reason = %q, want %q", got, entity.ReasonEmailFailed)
	}
	// The record was already replaced, so the slot stays consumed.
	if len(f.db.saved) != 1 || f.cache.marked != 1 {
		t.Fatal("record and resend counter must survive a delivery failure")
	}
}

func TestSendOverwritesPrevious(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seed(t, "user@example.com", "111111", 2, f.clock.now.Add(time.Minute))

	// Act
	_, err := f.uc.Send(context.Background(), SendInput{Contact: "user@example.com", Channel: "email"})

	// Assert
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	rec, err := f.db.GetByContact(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Attempts != 0 {
		t.Fatalf("attempts = %d, want reset to 0", rec.Attempts)
	}
	if f.hasher.Verify(rec.CodeHash, "111111") {
		t.Fatal("old code must no longer verify after reissue")
	}
}

func TestSendServerErrorCarriesNoBusinessReason(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.cache.countEr = errors.New("redis down")

	// Act
	_, err := f.uc.Send(context.Background(), SendInput{Contact: "user@example.com", Channel: "email"})

	// Assert
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if goerror.ReasonOf(err) != "" {
		t.Fatalf("infrastructure failure must not map to a result code, got %q", goerror.ReasonOf(err))
	}
}

package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/otpgate/otpgate/internal/otp/entity"
)

func TestVerifyCorrectCode(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seed(t, "user@example.com", "482910", 0, f.clock.now.Add(5*time.Minute))

	// Act
	out, err := f.uc.Verify(context.Background(), VerifyInput{Contact: "user@example.com", Code: "482910"})

	// Assert
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if out.Code != entity.ReasonOtpVerified {
		t.Fatalf("code = %q, want %q", out.Code, entity.ReasonOtpVerified)
	}
	if f.db.records["user@example.com"].Status != entity.StatusVerified {
		t.Fatalf("status = %q, want verified", f.db.records["user@example.com"].Status)
	}
	if got := f.msg.subjects(); len(got) != 1 || got[0] != entity.ReasonOtpVerified {
		t.Fatalf("events = %v, want [%s]", got, entity.ReasonOtpVerified)
	}
}

func TestVerifyNoRecord(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	_, err := f.uc.Verify(context.Background(), VerifyInput{Contact: "user@example.com", Code: "482910"})

	// Assert
	if got := reasonOf(t, err); got != entity.ReasonNoOtpRecord {
		t.Fatalf("reason = %q, want %q", got, entity.ReasonNoOtpRecord)
	}
	if got := f.msg.subjects(); len(got) != 1 || got[0] != entity.ReasonNoOtpRecord {
		t.Fatalf("events = %v, want [%s]", got, entity.ReasonNoOtpRecord)
	}
}

func TestVerifyNotPending(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seed(t, "user@example.com", "482910", 0, f.clock.now.Add(5*time.Minute))
	f.db.records["user@example.com"].Status = entity.StatusVerified

	// Act
	_, err := f.uc.Verify(context.Background(), VerifyInput{Contact: "user@example.com", Code: "482910"})

	// Assert
	if got := reasonOf(t, err); got != entity.ReasonOtpNotPending {
		t.Fatalf("reason = %q, want %q", got, entity.ReasonOtpNotPending)
	}
	if got := f.msg.subjects(); len(got) != 1 || got[0] != entity.ReasonOtpNotPending {
		t.Fatalf("events = %v, want [%s]", got, entity.ReasonOtpNotPending)
	}
}

func TestVerifyExpired(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seed(t, "user@example.com", "482910", 0, f.clock.now.Add(-time.Second))

	// Act: the correct code is submitted, but too late.
	_, err := f.uc.Verify(context.Background(), VerifyInput{Contact: "user@example.com", Code: "482910"})

	// Assert
	if got := reasonOf(t, err); got != entity.ReasonOtpExpired {
		t.Fatalf("reason = %q, want %q", got, entity.ReasonOtpExpired)
	}
	if f.db.records["user@example.com"].Status != entity.StatusExpired {
		t.Fatalf("status = %q, want expired", f.db.records["user@example.com"].Status)
	}
}

func TestVerifyExpiryBeatsAttempts(t *testing.T) {
	// Arrange: both conditions hold; expiry must win.
	f := newFixture(t)
	f.seed(t, "user@example.com", "482910", 3, f.clock.now.Add(-time.Second))

	// Act
	_, err := f.uc.Verify(context.Background(), VerifyInput{Contact: "user@example.com", Code: "482910"})

	// Assert
	if got := reasonOf(t, err); got != entity.ReasonOtpExpired {
		t.Fatalf("reason = %q, want %q", got, entity.ReasonOtpExpired)
	}
}

func TestVerifyMaxAttempts(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seed(t, "user@example.com", "482910", 3, f.clock.now.Add(5*time.Minute))

	// Act: even the correct code is rejected once attempts are exhausted.
	_, err := f.uc.Verify(context.Background(), VerifyInput{Contact: "user@example.com", Code: "482910"})

	// Assert
	if got := reasonOf(t, err); got != entity.ReasonMaxAttempts {
		t.Fatalf("reason = %q, want %q", got, entity.ReasonMaxAttempts)
	}
	if f.db.records["user@example.com"].Status != entity.StatusExpired {
		t.Fatalf("status = %q, want expired", f.db.records["user@example.com"].Status)
	}
}

func TestVerifyIncorrectCode(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seed(t, "user@example.com", "482910", 0, f.clock.now.Add(5*time.Minute))

	// Act
	_, err := f.uc.Verify(context.Background(), VerifyInput{Contact: "user@example.com", Code: "000000"})

	// Assert
	if got := reasonOf(t, err); got != entity.ReasonOtpIncorrect {
		t.Fatalf("reason = %q, want %q", got, entity.ReasonOtpIncorrect)
	}
	if f.db.records["user@example.com"].Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", f.db.records["user@example.com"].Attempts)
	}
	if f.db.records["user@example.com"].Status != entity.StatusPending {
		t.Fatal("record must stay pending after a wrong guess")
	}
}

func TestVerifyAttemptExhaustionSequence(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seed(t, "user@example.com", "482910", 0, f.clock.now.Add(5*time.Minute))

	// Act: three wrong guesses, then the correct code.
	for range 3 {
		_, err := f.uc.Verify(context.Background(), VerifyInput{Contact: "user@example.com", Code: "000000"})
		if got := reasonOf(t, err); got != entity.ReasonOtpIncorrect {
			t.Fatalf("reason = %q, want %q", got, entity.ReasonOtpIncorrect)
		}
	}
	_, err := f.uc.Verify(context.Background(), VerifyInput{Contact: "user@example.com", Code: "482910"})

	// Assert
	if got := reasonOf(t, err); got != entity.ReasonMaxAttempts {
		t.Fatalf("reason = %q, want %q", got, entity.ReasonMaxAttempts)
	}
}

func TestVerifySecondAttemptRejected(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seed(t, "user@example.com", "482910", 0, f.clock.now.Add(5*time.Minute))

	// Act
	_, first := f.uc.Verify(context.Background(), VerifyInput{Contact: "user@example.com", Code: "482910"})
	_, second := f.uc.Verify(context.Background(), VerifyInput{Contact: "user@example.com", Code: "482910"})

	// Assert
	if first != nil {
		t.Fatalf("first verify failed: %v", first)
	}
	if got := reasonOf(t, second); got != entity.ReasonOtpNotPending {
		t.Fatalf("reason = %q, want %q", got, entity.ReasonOtpNotPending)
	}
}

func TestVerifyNormalizesContact(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seed(t, "user@example.com", "482910", 0, f.clock.now.Add(5*time.Minute))

	// Act
	_, err := f.uc.Verify(context.Background(), VerifyInput{Contact: "  User@Example.COM ", Code: "482910"})

	// Assert
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

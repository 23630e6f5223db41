package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/otpgate/otpgate/internal/otp/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type VerifyInput struct {
	Contact string `validate:"required,contact"`
	Code    string `validate:"required,min=4,max=10"`
}

type VerifyOutput struct {
	// Code is the machine-readable result, always "otp_verified" here
	// since every failure path returns an error instead.
	Code string
}

// Verify checks a submitted passcode against the stored record for the
// contact. The failure checks are ordered: missing record, non-pending
// status, expiry, exhausted attempts, then the hash comparison itself.
// Each failed comparison burns one attempt.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Contact = strings.TrimSpace(in.Contact)
	if strings.Contains(in.Contact, "@") {
		in.Contact = strings.ToLower(in.Contact)
	}
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	set := s.settings()

	rec, err := s.repoDB.GetByContact(ctx, in.Contact)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			s.logEvent(ctx, entity.ReasonNoOtpRecord, in.Contact, "", "OTP rejected: no record")
			return nil, goerror.NewBusinessReason("No OTP found for this contact",
				goerror.CodeNotFound, entity.ReasonNoOtpRecord)
		}
		slog.ErrorContext(ctx, "failed to get passcode record", "contact", in.Contact, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.Status != entity.StatusPending {
		s.logEvent(ctx, entity.ReasonOtpNotPending, in.Contact, "", "OTP rejected: not pending")
		return nil, goerror.NewBusinessReason("OTP is not pending verification",
			goerror.CodeConflict, entity.ReasonOtpNotPending)
	}

	if s.clock.Now().After(rec.ExpiresAt) {
		s.expireRecord(ctx, in.Contact)
		s.logEvent(ctx, entity.ReasonOtpExpired, in.Contact, "", "OTP rejected: expired")
		return nil, goerror.NewBusinessReason("OTP has expired",
			goerror.CodeInvalidInput, entity.ReasonOtpExpired)
	}

	if rec.Attempts >= set.MaxAttempts {
		s.expireRecord(ctx, in.Contact)
		s.logEvent(ctx, entity.ReasonMaxAttempts, in.Contact, "", "OTP rejected: attempts exhausted")
		return nil, goerror.NewBusinessReason("Maximum verification attempts reached",
			goerror.CodeTooManyRequest, entity.ReasonMaxAttempts)
	}

	if !s.bcrypt.Verify(rec.CodeHash, in.Code) {
		if _, err := s.repoDB.IncrementAttempts(ctx, in.Contact); err != nil {
			slog.ErrorContext(ctx, "failed to increment attempts", "contact", in.Contact, "error", err)
		}
		s.logEvent(ctx, entity.ReasonOtpIncorrect, in.Contact, "", "OTP rejected: incorrect code")
		return nil, goerror.NewBusinessReason("Incorrect OTP code",
			goerror.CodeInvalidInput, entity.ReasonOtpIncorrect)
	}

	// The status flip is conditional on the record still being pending, so
	// two concurrent verifies cannot both succeed.
	ok, err := s.repoDB.UpdateStatus(ctx, in.Contact, entity.StatusVerified)
	if err != nil {
		slog.ErrorContext(ctx, "failed to mark OTP verified", "contact", in.Contact, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		s.logEvent(ctx, entity.ReasonOtpNotPending, in.Contact, "", "OTP rejected: not pending")
		return nil, goerror.NewBusinessReason("OTP is not pending verification",
			goerror.CodeConflict, entity.ReasonOtpNotPending)
	}

	s.logEvent(ctx, entity.ReasonOtpVerified, in.Contact, "", "OTP verified")

	return &VerifyOutput{Code: entity.ReasonOtpVerified}, nil
}

// VerifyPasscode is a thin wrapper over Verify for callers that only
// need the pass/fail outcome.
func (s *Usecase) VerifyPasscode(ctx context.Context, contact, code string) error {
	_, err := s.Verify(ctx, VerifyInput{Contact: contact, Code: code})
	return err
}

func (s *Usecase) expireRecord(ctx context.Context, contact string) {
	if _, err := s.repoDB.UpdateStatus(ctx, contact, entity.StatusExpired); err != nil {
		slog.WarnContext(ctx, "failed to mark OTP expired", "contact", contact, "error", err)
	}
}

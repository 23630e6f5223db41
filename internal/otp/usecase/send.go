package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/otpgate/otpgate/internal/otp/entity"
	"github.com/otpgate/otpgate/internal/otp/outbound/delivery"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type SendInput struct {
	Contact string `validate:"required,contact"`
	Channel string `validate:"required"`
}

type SendOutput struct {
	// Code is the machine-readable result, e.g. "email_sent".
	Code string
	// ExpiresAt is when the issued passcode stops being accepted.
	ExpiresAt time.Time
}

// Send issues a passcode to a contact and delivers it over the requested
// channel. A contact holds at most one passcode at a time; sending again
// replaces the previous one and resets its attempt counter.
func (s *Usecase) Send(ctx context.Context, in SendInput) (*SendOutput, error) {
	ctx, span := s.startSpan(ctx, "Send")
	defer span.End()

	in.Contact = strings.TrimSpace(in.Contact)
	if strings.Contains(in.Contact, "@") {
		in.Contact = strings.ToLower(in.Contact)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	set := s.settings()

	channel := entity.ChannelFromString(in.Channel)
	if channel == entity.ChannelUnknown || !set.ChannelAllowed(channel) {
		s.logEvent(ctx, entity.ReasonInvalidChannel, in.Contact, in.Channel,
			"OTP send blocked: channel not allowed")
		return nil, goerror.NewBusinessReason("Requested channel is not enabled",
			goerror.CodeInvalidInput, entity.ReasonInvalidChannel)
	}

	count, err := s.repoCache.RecentIssueCount(ctx, in.Contact)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read resend counter", "contact", in.Contact, "error", err)
		return nil, goerror.NewServer(err)
	}
	if count >= set.ResendLimit {
		s.logEvent(ctx, entity.ReasonResendLimit, in.Contact, channel.String(),
			"OTP send blocked: resend limit reached")
		return nil, goerror.NewBusinessReason("Too many OTP requests, try again later",
			goerror.CodeTooManyRequest, entity.ReasonResendLimit)
	}

	gen, err := s.passcode(set.CodeLength)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build passcode generator", "length", set.CodeLength, "error", err)
		return nil, goerror.NewServer(err)
	}
	code, err := gen.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.bcrypt.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash passcode", "error", err)
		return nil, goerror.NewServer(err)
	}

	expiresAt := s.clock.Now().Add(set.Expiry)
	rec := entity.NewRecord{
		ID:        int64(s.uid.Generate()),
		Contact:   in.Contact,
		CodeHash:  string(codeHash),
		ExpiresAt: expiresAt,
	}
	if err := s.repoDB.SaveCode(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to save passcode record", "contact", in.Contact, "error", err)
		s.logEvent(ctx, entity.ReasonSaveFailed, in.Contact, channel.String(),
			"OTP send failed: could not persist code")
		return nil, goerror.NewServerReason(err, entity.ReasonSaveFailed)
	}

	// The counter ticks on every persisted issue, delivered or not: a
	// failed delivery still consumed this window's slot because the stored
	// code was already replaced.
	if err := s.repoCache.MarkIssued(ctx, in.Contact, set.ResendWindow); err != nil {
		slog.WarnContext(ctx, "failed to bump resend counter", "contact", in.Contact, "error", err)
	}

	msg := delivery.Message{Contact: in.Contact}
	switch channel {
	case entity.ChannelSMS:
		msg.Body = entity.RenderTemplate(set.SMSMessage, code, set.Expiry)
	default:
		msg.Subject = entity.RenderTemplate(set.EmailSubject, code, set.Expiry)
		msg.Body = entity.RenderTemplate(set.EmailBody, code, set.Expiry)
	}

	if err := s.senders[channel].Send(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to deliver passcode", "contact", in.Contact,
			"channel", channel.String(), "error", err)
		s.logEvent(ctx, entity.FailedReason(channel), in.Contact, channel.String(),
			"OTP delivery failed")
		return nil, goerror.NewServerReason(err, entity.FailedReason(channel))
	}

	s.logEvent(ctx, entity.SentReason(channel), in.Contact, channel.String(), "OTP sent")

	return &SendOutput{Code: entity.SentReason(channel), ExpiresAt: expiresAt}, nil
}

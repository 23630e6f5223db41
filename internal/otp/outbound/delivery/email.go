package delivery

import (
	"context"

	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

// Email delivers passcodes over SMTP.
type Email struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func NewEmail(client mail.Mail, ins instrument.Instrumentation) *Email {
	return &Email{client: client, ins: ins}
}

func (e *Email) Send(ctx context.Context, msg Message) error {
	ctx, span := e.ins.Tracer("otp.outbound.delivery").Start(ctx, "EmailSend")
	defer span.End()

	if err := e.client.Send(ctx, mail.Message{
		To:       []string{msg.Contact},
		Subject:  msg.Subject,
		TextBody: msg.Body,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

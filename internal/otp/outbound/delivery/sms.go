package delivery

import (
	"context"

	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/smsgate"
	"go.opentelemetry.io/otel/codes"
)

// SMS delivers passcodes through an SMS gateway.
type SMS struct {
	gateway smsgate.Gateway
	ins     instrument.Instrumentation
}

func NewSMS(gateway smsgate.Gateway, ins instrument.Instrumentation) *SMS {
	return &SMS{gateway: gateway, ins: ins}
}

func (s *SMS) Send(ctx context.Context, msg Message) error {
	ctx, span := s.ins.Tracer("otp.outbound.delivery").Start(ctx, "SMSSend")
	defer span.End()

	if err := s.gateway.Send(ctx, smsgate.Message{
		To:   msg.Contact,
		Body: msg.Body,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

package mq

import (
	"context"
	"encoding/json"

	"github.com/otpgate/otpgate/internal/otp/usecase"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/messaging"
	"github.com/otpgate/otpgate/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishLifecycle(ctx context.Context, msg usecase.LifecycleEvent) error {
	ctx, span := m.ins.Tracer("otp.outbound.mq").Start(ctx, "PublishLifecycle")
	defer span.End()

	body, err := json.Marshal(event.OtpLifecycleMessage{
		EventID:   msg.ID,
		EventType: msg.EventType,
		Subject:   msg.Subject,
		Contact:   msg.Contact,
		Channel:   msg.Channel,
		Message:   msg.Message,
		UserID:    msg.UserID,
		At:        msg.At.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.OtpLifecycleDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(msg.Contact),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

package inbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/otpgate/otpgate/internal/audit/usecase"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/messaging"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"github.com/otpgate/otpgate/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) OtpLifecycle(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("audit.inbound.mq").Start(ctx, "OtpLifecycle")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: otp lifecycle event", "msg_body", string(body))

	var payload event.OtpLifecycleMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp lifecycle event", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.Record(ctx, usecase.RecordInput{
		EventID:   payload.EventID,
		EventType: payload.EventType,
		Subject:   payload.Subject,
		Contact:   payload.Contact,
		Channel:   payload.Channel,
		Message:   payload.Message,
		UserID:    payload.UserID,
		At:        time.Unix(payload.At, 0),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp lifecycle event", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}

// Package smsgate provides an SMS delivery abstraction over XML-based
// SMS gateway providers.
//
// Business code should depend on the Gateway interface; the concrete
// nineteenSMS implementation talks to a 019-style HTTP API.
package smsgate

import (
	"context"
	"errors"
)

// ErrGatewayRejected indicates the provider accepted the request but
// reported a non-OK result.
var ErrGatewayRejected = errors.New("smsgate: gateway rejected message")

// Message is a single outbound SMS.
type Message struct {
	// To is the recipient phone number in E.164 or local format,
	// as required by the provider account.
	To string
	// Body is the message text.
	Body string
}

// Gateway sends SMS messages through a provider.
type Gateway interface {
	// Send delivers one message. A nil error means the provider
	// acknowledged the message.
	Send(ctx context.Context, msg Message) error
	// Balance returns the remaining message credits on the account.
	Balance(ctx context.Context) (int, error)
}

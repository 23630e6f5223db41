// Package delivery contains the transport adapters that carry a rendered
// passcode message to a contact. Adapters own transport concerns only;
// template rendering happens in the usecase so a config reload cannot
// change a message mid-send.
package delivery

import "context"

// Message is a fully rendered passcode message ready for transport.
type Message struct {
	// Contact is the destination address (email or phone).
	Contact string
	// Subject is used by channels that carry one (email).
	Subject string
	// Body is the rendered message text.
	Body string
}

// Sender delivers a rendered message over one transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

package event

const OtpLifecycleDestination string = "otp_lifecycle"
const OtpLifecycleConsumerAudit string = "otp_lifecycle_audit"

// OtpLifecycleMessage records one step of an OTP flow: a send, a
// delivery outcome, or a verification outcome. EventID is unique per
// published event so consumers can deduplicate redeliveries. EventType
// is the severity (info/warning/error); Subject is the result code.
type OtpLifecycleMessage struct {
	EventID   int64  `json:"event_id"`
	EventType string `json:"event_type"`
	Subject   string `json:"subject"`
	Contact   string `json:"contact"`
	Channel   string `json:"channel"`
	Message   string `json:"message"`
	UserID    int64  `json:"user_id,omitempty"`
	At        int64  `json:"at"`
}

package entity

// Machine-readable result codes returned to clients on every send and
// verify outcome. These are part of the API contract; clients branch on
// them, so the strings are stable.
const (
	ReasonEmailSent      = "email_sent"
	ReasonSMSSent        = "sms_sent"
	ReasonEmailFailed    = "email_failed"
	ReasonSMSFailed      = "sms_failed"
	ReasonInvalidChannel = "invalid_channel"
	ReasonResendLimit    = "resend_limit"
	ReasonSaveFailed     = "save_failed"

	ReasonNoOtpRecord   = "no_otp_record"
	ReasonOtpNotPending = "otp_not_pending"
	ReasonOtpExpired    = "otp_expired"
	ReasonMaxAttempts   = "max_attempts"
	ReasonOtpIncorrect  = "otp_incorrect"
	ReasonOtpVerified   = "otp_verified"
)

// Severity of a lifecycle event as recorded in the audit trail.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// LevelOf maps a result code to its audit severity: successes are info,
// infrastructure failures are errors, everything the user can cause is a
// warning.
func LevelOf(reason string) string {
	switch reason {
	case ReasonEmailSent, ReasonSMSSent, ReasonOtpVerified:
		return LevelInfo
	case ReasonEmailFailed, ReasonSMSFailed, ReasonSaveFailed:
		return LevelError
	default:
		return LevelWarning
	}
}

// SentReason returns the success result code for a delivery channel.
func SentReason(c Channel) string {
	if c == ChannelSMS {
		return ReasonSMSSent
	}
	return ReasonEmailSent
}

// FailedReason returns the delivery-failure result code for a channel.
func FailedReason(c Channel) string {
	if c == ChannelSMS {
		return ReasonSMSFailed
	}
	return ReasonEmailFailed
}

package entity

// Status is the lifecycle state of an issued passcode record.
type Status string

const (
	StatusUnknown  Status = ""
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusExpired  Status = "expired"
)

// StatusFromString parses s into a Status, returning StatusUnknown for
// unrecognized values.
func StatusFromString(s string) Status {
	switch s {
	case "pending":
		return StatusPending
	case "verified":
		return StatusVerified
	case "expired":
		return StatusExpired
	default:
		return StatusUnknown
	}
}

// String returns the storage representation of the status.
func (s Status) String() string {
	return string(s)
}

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusExpired:
		return true
	default:
		return false
	}
}

// Channel is the delivery mechanism used to transmit a passcode.
type Channel string

const (
	ChannelUnknown Channel = ""
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
)

// ChannelFromString parses s into a Channel, returning ChannelUnknown for
// unrecognized values.
func ChannelFromString(s string) Channel {
	switch s {
	case "email":
		return ChannelEmail
	case "sms":
		return ChannelSMS
	default:
		return ChannelUnknown
	}
}

// String returns the storage representation of the channel.
func (c Channel) String() string {
	return string(c)
}

package entity

import (
	"testing"
	"time"
)

func TestRenderTemplate(t *testing.T) {
	cases := []struct {
		name   string
		tpl    string
		code   string
		expiry time.Duration
		want   string
	}{
		{
			name:   "both placeholders",
			tpl:    "Your OTP code is {OTP}. It will expire in {MINUTES} minutes.",
			code:   "123456",
			expiry: 5 * time.Minute,
			want:   "Your OTP code is 123456. It will expire in 5 minutes.",
		},
		{
			name:   "no placeholders",
			tpl:    "hello",
			code:   "123456",
			expiry: 5 * time.Minute,
			want:   "hello",
		},
		{
			name:   "repeated placeholder",
			tpl:    "{OTP} {OTP}",
			code:   "42",
			expiry: time.Minute,
			want:   "42 42",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenderTemplate(tc.tpl, tc.code, tc.expiry); got != tc.want {
				t.Fatalf("RenderTemplate() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSettings_ChannelAllowed(t *testing.T) {
	s := Settings{Channels: []Channel{ChannelEmail}}

	if !s.ChannelAllowed(ChannelEmail) {
		t.Fatal("ChannelAllowed(email) = false, want true")
	}
	if s.ChannelAllowed(ChannelSMS) {
		t.Fatal("ChannelAllowed(sms) = true, want false")
	}
}

func TestStatusFromString(t *testing.T) {
	if got := StatusFromString("pending"); got != StatusPending {
		t.Fatalf("StatusFromString(pending) = %q", got)
	}
	if got := StatusFromString("bogus"); got != StatusUnknown {
		t.Fatalf("StatusFromString(bogus) = %q, want unknown", got)
	}
	if StatusUnknown.Valid() {
		t.Fatal("StatusUnknown.Valid() = true, want false")
	}
}

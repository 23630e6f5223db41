package db

import (
	"strings"
	"testing"
)

func TestValidateContact(t *testing.T) {
	cases := []struct {
		name    string
		contact string
		wantErr bool
	}{
		{name: "empty", contact: "", wantErr: true},
		{name: "email", contact: "user@example.com", wantErr: false},
		{name: "phone", contact: "+628123456789", wantErr: false},
		{name: "at limit", contact: strings.Repeat("a", 255), wantErr: false},
		{name: "over limit", contact: strings.Repeat("a", 256), wantErr: true},
		{name: "multibyte at limit", contact: strings.Repeat("é", 255), wantErr: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateContact(tc.contact)
			if tc.wantErr && err == nil {
				t.Fatalf("validateContact(%q) error = nil, want error", tc.contact)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("validateContact(%q) error = %v", tc.contact, err)
			}
		})
	}
}

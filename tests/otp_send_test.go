package tests

import (
	"net/http"
	"testing"
	"time"
)

func TestOTPSend(t *testing.T) {

	// Arrange
	contact := uniqueEmail("real-send")

	// Act
	data := sendOTP(t, contact, "email")

	// Assert
	if data.Code != "email_sent" {
		t.Fatalf("expected result code email_sent, got %q", data.Code)
	}
	if data.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("expected expires_at in the future, got %d", data.ExpiresAt)
	}
}

func TestOTPSendInvalidContact(t *testing.T) {

	// Arrange
	payload := map[string]string{"contact": "not-a-contact", "channel": "email"}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/otp/send", payload, "")

	// Assert
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", status)
	}
	errEnv := decodeError(t, body)
	if len(errEnv.Error) == 0 {
		t.Fatalf("expected field errors in response")
	}
}

func TestOTPSendInvalidChannel(t *testing.T) {

	// Arrange
	payload := map[string]string{"contact": uniqueEmail("real-channel"), "channel": "pigeon"}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/otp/send", payload, "")

	// Assert
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", status)
	}
	errEnv := decodeError(t, body)
	if errEnv.Code != "invalid_channel" {
		t.Fatalf("expected code invalid_channel, got %q", errEnv.Code)
	}
}

func TestOTPSendResendLimit(t *testing.T) {

	// Arrange
	contact := uniqueEmail("real-resend")
	for range 3 {
		sendOTP(t, contact, "email")
	}
	payload := map[string]string{"contact": contact, "channel": "email"}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/otp/send", payload, "")

	// Assert
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", status)
	}
	errEnv := decodeError(t, body)
	if errEnv.Code != "resend_limit" {
		t.Fatalf("expected code resend_limit, got %q", errEnv.Code)
	}
}

package tests

import (
	"net/http"
	"testing"
)

func TestOTPVerifyNoRecord(t *testing.T) {

	// Arrange
	payload := map[string]string{"contact": uniqueEmail("real-norecord"), "code": "000000"}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/otp/verify", payload, "")

	// Assert
	if status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", status)
	}
	errEnv := decodeError(t, body)
	if errEnv.Code != "no_otp_record" {
		t.Fatalf("expected code no_otp_record, got %q", errEnv.Code)
	}
}

func TestOTPVerifyIncorrectCode(t *testing.T) {

	// Arrange
	contact := uniqueEmail("real-wrongcode")
	sendOTP(t, contact, "email")
	payload := map[string]string{"contact": contact, "code": "000000"}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/otp/verify", payload, "")

	// Assert
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", status)
	}
	errEnv := decodeError(t, body)
	if errEnv.Code != "otp_incorrect" {
		t.Fatalf("expected code otp_incorrect, got %q", errEnv.Code)
	}
}

func TestOTPVerifyMaxAttempts(t *testing.T) {

	// Arrange
	contact := uniqueEmail("real-maxattempts")
	sendOTP(t, contact, "email")
	payload := map[string]string{"contact": contact, "code": "000000"}
	for range 3 {
		doJSON(t, http.MethodPost, "/api/v1/otp/verify", payload, "")
	}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/otp/verify", payload, "")

	// Assert
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", status)
	}
	errEnv := decodeError(t, body)
	if errEnv.Code != "max_attempts" {
		t.Fatalf("expected code max_attempts, got %q", errEnv.Code)
	}
}

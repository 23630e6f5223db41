package tests

import (
	"net/http"
	"testing"
)

func TestAuthVerifyWrongCode(t *testing.T) {

	// Arrange
	contact := uniqueEmail("real-auth")
	sendOTP(t, contact, "email")
	payload := map[string]string{"contact": contact, "code": "000000"}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/auth/verify", payload, "")

	// Assert
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", status)
	}
	errEnv := decodeError(t, body)
	if errEnv.Code != "otp_incorrect" {
		t.Fatalf("expected code otp_incorrect, got %q", errEnv.Code)
	}
}

func TestAuthRefreshInvalidToken(t *testing.T) {

	// Arrange
	payload := map[string]string{"refresh_token": "definitely-not-a-real-token"}

	// Act
	status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/refresh", payload, "")

	// Assert
	if status != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", status)
	}
}

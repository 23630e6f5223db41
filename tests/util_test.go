package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

type sendData struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

func sendOTP(t *testing.T, contact, channel string) sendData {
	t.Helper()

	payload := map[string]string{
		"contact": contact,
		"channel": channel,
	}

	status, body := doJSON(t, http.MethodPost, "/api/v1/otp/send", payload, "")
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("send otp failed: status=%d message=%q", status, errEnv.Message)
	}

	var data sendData
	decodeSuccess(t, body, &data)

	return data
}

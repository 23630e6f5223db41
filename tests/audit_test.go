package tests

import (
	"net/http"
	"testing"
)

func TestAuditLogsRequireAuth(t *testing.T) {

	// Act
	status, _ := doJSON(t, http.MethodGet, "/api/v1/audit/logs", nil, "")

	// Assert
	if status != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", status)
	}
}

func TestAuditStatsRequireAuth(t *testing.T) {

	// Act
	status, _ := doJSON(t, http.MethodGet, "/api/v1/audit/stats", nil, "")

	// Assert
	if status != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", status)
	}
}

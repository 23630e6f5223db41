package instrument

import (
	"context"
	"testing"
)

func TestCorrelationID_RoundTrip(t *testing.T) {
	// Arrange
	ctx := SetCorrelationID(context.Background(), "cid-123")

	// Act & Assert
	if got := GetCorrelationID(ctx); got != "cid-123" {
		t.Fatalf("GetCorrelationID() = %q, want %q", got, "cid-123")
	}
}

func TestCorrelationID_Unset(t *testing.T) {
	if got := GetCorrelationID(context.Background()); got != "" {
		t.Fatalf("GetCorrelationID() = %q, want empty", got)
	}
}

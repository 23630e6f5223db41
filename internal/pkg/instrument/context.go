package instrument

import "context"

type correlationIDKey struct{}

// SetCorrelationID returns a child context carrying the given correlation ID.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the correlation ID carried by ctx, or an empty
// string when none was set.
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

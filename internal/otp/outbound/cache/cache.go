// Package cache tracks recent passcode issuances per contact in Redis,
// backing the resend throttle with a fixed-window counter.
package cache

import (
	"context"
	"time"

	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const issuePrefix = "otp:issued:"

type Cache struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewCache(client *redis.Client, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("otp.outbound.cache").Start(ctx, name)
}

// RecentIssueCount returns how many passcodes were issued to the contact
// in the current throttle window.
func (c *Cache) RecentIssueCount(ctx context.Context, contact string) (count int64, err error) {
	ctx, span := c.startSpan(ctx, "RecentIssueCount")
	defer span.End()

	count, err = c.client.Get(ctx, issuePrefix+contact).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	return count, nil
}

// MarkIssued records one issuance for the contact. The first issuance
// opens a fixed window of the given duration; later issuances inside the
// window only bump the counter, so the window never slides.
func (c *Cache) MarkIssued(ctx context.Context, contact string, window time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "MarkIssued")
	defer span.End()

	key := issuePrefix + contact

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	return nil
}

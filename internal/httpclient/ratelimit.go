package httpclient

import (
	"context"

	"golang.org/x/time/rate"
)

// NewTokenBucket builds a token-bucket limiter refilling at
// requestsPerMinute/60 tokens per second, matching the "acquire one
// token before every outbound call, refill at rate/60 tokens/sec"
// contract. Burst equals the per-minute rate so a cold caller can spend
// a full minute's allowance immediately, then is throttled to the
// steady-state refill rate.
func NewTokenBucket(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	perSecond := rate.Limit(float64(requestsPerMinute) / 60.0)
	return rate.NewLimiter(perSecond, requestsPerMinute)
}

// Acquire blocks (cooperatively, never busy-looping) until a token is
// available or ctx is done.
func Acquire(ctx context.Context, limiter *rate.Limiter) error {
	return limiter.Wait(ctx)
}

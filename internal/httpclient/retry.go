package httpclient

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrRetriesExhausted is returned once a request has failed through
// MAX_RETRIES attempts without a successful or permanently-failed
// response — the Go counterpart of the source system's
// MaxRetriesExceeded.
var ErrRetriesExhausted = errors.New("httpclient: retries exhausted")

// RetryPolicy implements the exact backoff law: 2^attempt seconds with
// uniform jitter in [0.75x, 1.25x]; the base is doubled when the
// previous response was a 429.
type RetryPolicy struct {
	MaxRetries int
}

// DefaultRetryPolicy returns the MAX_RETRIES=3 policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3}
}

// Backoff returns the sleep duration before retry attempt (0-indexed).
// was429 doubles the base per the spec's 429-specific rule. The jitter
// itself is generated by cenkalti/backoff/v4's ExponentialBackOff:
// seeding InitialInterval with the 2^attempt base and RandomizationFactor
// with 0.25 reproduces the spec's uniform-in-[0.75x, 1.25x] envelope
// exactly (backoff.GetRandomizedInterval draws uniformly from
// currentInterval ± RandomizationFactor*currentInterval).
func (p RetryPolicy) Backoff(attempt int, was429 bool) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt)) * float64(time.Second))
	if was429 {
		base *= 2
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     base,
		RandomizationFactor: 0.25,
		Multiplier:          1,
		MaxInterval:         base,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b.NextBackOff()
}

// ShouldRetry classifies an HTTP status / transport-error pair per the
// error taxonomy: retry on network errors, 5xx, and 429; never on other
// 4xx.
func ShouldRetry(statusCode int, transportErr error) bool {
	if transportErr != nil {
		return true
	}
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if statusCode >= 500 && statusCode < 600 {
		return true
	}
	return false
}

package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// PoolConfig tunes the underlying *http.Transport, mirroring the
// connection-pool defaults used elsewhere in the stack.
type PoolConfig struct {
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	MaxConnsPerHost       int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	DialTimeout           time.Duration
	ResponseHeaderTimeout time.Duration
}

// DefaultPoolConfig returns sane per-plugin pool sizing; a scraper
// plugin talks to one or two hosts repeatedly, so per-host limits stay
// modest relative to a multi-tenant gateway.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		MaxConnsPerHost:       16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		DialTimeout:           10 * time.Second,
		ResponseHeaderTimeout: 0,
	}
}

// Session is the scoped HTTP handle a plugin acquires for the duration
// of one scrape call: a tuned transport, a token-bucket limiter, a
// circuit breaker, and a retry policy. It is released via Close() on
// every exit path (success, error, cancellation).
type Session struct {
	pluginName string
	client     *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	retry      RetryPolicy
	timeout    time.Duration
	logger     zerolog.Logger
	closed     bool
}

// SessionConfig parameterizes a new Session.
type SessionConfig struct {
	PluginName        string
	RequestsPerMinute int
	RequestTimeout    time.Duration
	MaxRetries        int
	Pool              PoolConfig
}

// NewSession builds a Session with its own transport and limiter. The
// caller must Close() it once scraping for that plugin instance ends.
func NewSession(cfg SessionConfig, logger zerolog.Logger) *Session {
	pool := cfg.Pool
	if pool == (PoolConfig{}) {
		pool = DefaultPoolConfig()
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	retryPolicy := RetryPolicy{MaxRetries: cfg.MaxRetries}
	if retryPolicy.MaxRetries == 0 {
		retryPolicy = DefaultRetryPolicy()
	}

	transport := &http.Transport{
		MaxIdleConns:          pool.MaxIdleConns,
		MaxIdleConnsPerHost:   pool.MaxIdleConnsPerHost,
		MaxConnsPerHost:       pool.MaxConnsPerHost,
		IdleConnTimeout:       pool.IdleConnTimeout,
		TLSHandshakeTimeout:   pool.TLSHandshakeTimeout,
		ResponseHeaderTimeout: pool.ResponseHeaderTimeout,
	}

	breakerSettings := gobreaker.Settings{
		Name:        "scraper:" + cfg.PluginName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Session{
		pluginName: cfg.PluginName,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		limiter: NewTokenBucket(cfg.RequestsPerMinute),
		breaker: gobreaker.NewCircuitBreaker[*http.Response](breakerSettings),
		retry:   retryPolicy,
		timeout: cfg.RequestTimeout,
		logger:  logger.With().Str("plugin", cfg.PluginName).Logger(),
	}
}

// Close releases the underlying connection pool. Safe to call more than
// once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if transport, ok := s.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// Do executes one logical request against the source, rate-limiting,
// retrying per the error taxonomy, and tripping the circuit breaker on
// sustained failure. req is rebuilt by newReq on every attempt since an
// *http.Request body can only be read once.
func (s *Session) Do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	was429 := false

	for attempt := 0; attempt < s.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			d := s.retry.Backoff(attempt-1, was429)
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := Acquire(ctx, s.limiter); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := newReq(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		statusCode := 0
		resp, err := s.breaker.Execute(func() (*http.Response, error) {
			r, doErr := s.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				statusCode = r.StatusCode
				body, _ := io.ReadAll(r.Body)
				r.Body.Close()
				return nil, fmt.Errorf("%s: status %d: %s", s.pluginName, r.StatusCode, string(body))
			}
			return r, nil
		})

		if err == nil {
			return resp, nil
		}

		lastErr = err
		was429 = statusCode == http.StatusTooManyRequests

		if !ShouldRetry(statusCode, err) {
			return nil, err
		}

		s.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("retrying request")
	}

	return nil, fmt.Errorf("%s: %w: %v", s.pluginName, ErrRetriesExhausted, lastErr)
}

// Package retry wraps outbound provider calls in bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Policy bounds the retries of one call.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultPolicy is three attempts starting at 500ms, doubling, capped at 5s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
	}
}

// StatusError is returned by provider clients for a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return http.StatusText(e.StatusCode) + ": " + e.Body
	}
	return http.StatusText(e.StatusCode)
}

// Transient reports whether the status code is worth retrying.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTransient classifies an error: network failures, 5xx and 429 are
// transient; everything else is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsTransientUnsent classifies errors for non-idempotent calls. Only failures where the
// provider cannot have acted on the request are transient: connection setup errors, 429
// and 503. Timeouts and other 5xx may follow an accepted request and are permanent.
func IsTransientUnsent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode == http.StatusServiceUnavailable
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return !dnsErr.IsTimeout
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial" && !opErr.Timeout()
}

// Permanent marks err so Do stops immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a permanent error, or the attempts are used up.
// The last error is returned unwrapped.
func Do(ctx context.Context, policy Policy, logger zerolog.Logger, name string, op func(context.Context) error) error {
	_, err := DoValue(ctx, policy, logger, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue is Do for operations that return a value.
func DoValue[T any](ctx context.Context, policy Policy, logger zerolog.Logger, name string, op func(context.Context) (T, error)) (T, error) {
	return DoValueIf(ctx, policy, logger, name, IsTransient, op)
}

// DoValueIf is DoValue with a caller-supplied classifier deciding which errors are retried.
func DoValueIf[T any](ctx context.Context, policy Policy, logger zerolog.Logger, name string, transient func(error) bool, op func(context.Context) (T, error)) (T, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = policy.InitialInterval
	expo.MaxInterval = policy.MaxInterval
	expo.Multiplier = policy.Multiplier
	expo.RandomizationFactor = 0.2
	expo.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithMaxRetries(expo, uint64(policy.MaxAttempts-1))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	operation := func() (T, error) {
		attempt++
		value, err := op(ctx)
		if err == nil {
			return value, nil
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return value, err
		}
		if !transient(err) {
			return value, backoff.Permanent(err)
		}
		return value, err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn().
			Err(err).
			Str("call", name).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("transient provider error, retrying")
	}

	return backoff.RetryNotifyWithData(operation, b, notify)
}

package cowin

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// Refresher re-authenticates after the server rejects the current token.
type Refresher interface {
	Refresh() (string, error)
}

// RetryPolicy is the cross-cutting behavior wrapped around every
// authenticated call: an authorization failure triggers a token refresh and a
// retry with exponential backoff; anything else propagates untouched.
type RetryPolicy struct {
	maxAttempts int
	backoffBase time.Duration
	refresher   Refresher
	logger      zerolog.Logger
}

// NewRetryPolicy creates a policy with the given attempt bound and backoff
// unit (4^attempt units between retries).
func NewRetryPolicy(maxAttempts int, backoffBase time.Duration, refresher Refresher, logger zerolog.Logger) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	return &RetryPolicy{
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		refresher:   refresher,
		logger:      logger,
	}
}

// WithAuthRetry runs fn under the policy. Any remote call is just a
// func() (T, error), so the same wrapper covers session fetches, beneficiary
// lookups and booking submission without per-call-site retry logic.
func WithAuthRetry[T any](ctx context.Context, p *RetryPolicy, op string, fn func() (T, error)) (T, error) {
	var zero T

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !IsAuthError(err) {
			return zero, err
		}

		p.logger.Error().Err(err).Str("op", op).Int("attempt", attempt+1).
			Msg("Authorization failure on API call")

		if attempt > 0 {
			delay := time.Duration(math.Pow(4, float64(attempt))) * p.backoffBase
			p.logger.Info().Dur("delay", delay).Msg("Backing off before token refresh")

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			}
		}

		if _, err := p.refresher.Refresh(); err != nil {
			// Refresh exhaustion is fatal; no point in retrying the call.
			return zero, err
		}
	}

	return zero, ErrRetryExhausted
}

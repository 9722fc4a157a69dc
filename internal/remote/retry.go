package remote

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"ordersync/internal/logger"
)

// Policy wraps a network call in retry-with-backoff. Only transient
// failures are retried; everything else returns on the first attempt.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts uint64

	// BaseDelay is the initial backoff interval; it doubles per attempt
	// with jitter applied.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff interval.
	MaxDelay time.Duration
}

// DefaultPolicy matches the behavior the ledger and order-source APIs
// tolerate well: four attempts, half a second base delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// Do runs fn, retrying transient failures with exponential backoff and
// jitter until success, a non-transient error, context cancellation, or
// attempt exhaustion. The op name appears in retry logs.
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	log := logger.WithComponent("retry")

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.3
	b.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, delay time.Duration) {
		log.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Transient failure, retrying")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, p.MaxAttempts-1), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		log.Error().
			Err(err).
			Str("op", op).
			Int("attempts", attempt).
			Msg("Remote call failed")
		return err
	}
	return nil
}

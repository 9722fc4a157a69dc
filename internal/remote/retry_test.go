package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	assert.NoError(t, ClassifyStatus(200, ""))
	assert.NoError(t, ClassifyStatus(201, ""))

	assert.True(t, IsTransient(ClassifyStatus(429, "slow down")))
	assert.True(t, IsTransient(ClassifyStatus(500, "boom")))
	assert.True(t, IsTransient(ClassifyStatus(503, "unavailable")))

	assert.ErrorIs(t, ClassifyStatus(401, ""), ErrAuth)
	assert.ErrorIs(t, ClassifyStatus(403, ""), ErrAuth)
	assert.ErrorIs(t, ClassifyStatus(404, ""), ErrNotFound)

	var perm *PermanentError
	require.ErrorAs(t, ClassifyStatus(400, "bad request"), &perm)
	assert.Equal(t, 400, perm.Status)
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}

	var stamps []time.Time
	calls := 0
	err := p.Do(context.Background(), "test", func() error {
		stamps = append(stamps, time.Now())
		calls++
		if calls <= 3 {
			return &TransientError{Status: 503, Body: "unavailable"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)

	// Three backoff delays, each strictly longer than the previous.
	require.Len(t, stamps, 4)
	var gaps []time.Duration
	for i := 1; i < len(stamps); i++ {
		gaps = append(gaps, stamps[i].Sub(stamps[i-1]))
	}
	for i := 1; i < len(gaps); i++ {
		assert.Greater(t, gaps[i], gaps[i-1], "backoff delay %d should exceed delay %d", i, i-1)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), "test", func() error {
		calls++
		return &TransientError{Status: 500, Body: "boom"}
	})

	assert.Equal(t, 3, calls)
	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 500, te.Status)
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), "test", func() error {
		calls++
		return &PermanentError{Status: 400, Body: "bad request"}
	})

	assert.Equal(t, 1, calls)
	var perm *PermanentError
	assert.ErrorAs(t, err, &perm)
}

func TestDoDoesNotRetryAuthOrNotFound(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	for _, sentinel := range []error{ErrAuth, ErrNotFound} {
		calls := 0
		err := p.Do(context.Background(), "test", func() error {
			calls++
			return sentinel
		})
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, sentinel)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := p.Do(ctx, "test", func() error {
		calls++
		cancel()
		return &TransientError{Status: 503}
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || IsTransient(err))
	assert.Equal(t, 1, calls)
}

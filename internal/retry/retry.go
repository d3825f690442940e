// Package retry runs an operation under a bounded backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrExhausted = errors.New("retry attempts exhausted")

// Policy describes how an operation is retried. A nil Retryable retries every error.
// Fixed keeps the wait at Backoff instead of doubling it, for polling loops.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
	Fixed       bool
	Retryable   func(error) bool
	OnRetry     func(attempt int, wait time.Duration, err error)
}

// BackOff returns the wait schedule between attempts, Backoff * 2^(n-1) or a
// constant Backoff when Fixed. There is no jitter and no elapsed-time cap.
func (p Policy) BackOff() backoff.BackOff {
	if p.Fixed {
		return backoff.NewConstantBackOff(p.Backoff)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Wait returns the sleep before attempt+1.
func (p Policy) Wait(attempt int) time.Duration {
	b := p.BackOff()
	wait := b.NextBackOff()
	for i := 1; i < attempt; i++ {
		wait = b.NextBackOff()
	}
	return wait
}

// Do calls op until it succeeds, returns a non-retryable error, the context ends,
// or MaxAttempts is reached.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(p.MaxAttempts, 1)

	var (
		attempt int
		stopped bool
	)
	permanent := func(err error) error {
		stopped = true
		return backoff.Permanent(err)
	}

	schedule := backoff.WithContext(backoff.WithMaxRetries(p.BackOff(), uint64(attempts-1)), ctx)
	v, err := backoff.RetryNotifyWithData[T](func() (T, error) {
		attempt++
		if err := ctx.Err(); err != nil {
			return zero, permanent(err)
		}
		v, err := op(ctx)
		switch {
		case err == nil:
			return v, nil
		case ctx.Err() != nil:
			return zero, permanent(ctx.Err())
		case p.Retryable != nil && !p.Retryable(err):
			return zero, permanent(err)
		}
		return zero, err
	}, schedule, func(err error, wait time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
	})

	switch {
	case err == nil:
		return v, nil
	case stopped:
		return zero, err
	case ctx.Err() != nil:
		return zero, ctx.Err()
	default:
		return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
	}
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

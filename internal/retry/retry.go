// Package retry runs page loads under a bounded attempt policy.
package retry

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

var ErrExhausted = errors.New("retry: attempts exhausted")

// Policy describes how often to try and how long to pause. Two pauses apply
// around a failed attempt: FailurePause right after it (unless it was the
// last) and RetryPause right before the next one.
type Policy struct {
	Attempts     int
	RetryPause   time.Duration
	FailurePause time.Duration
	// Sleep replaces the real wait in tests. It must return ctx.Err() when
	// ctx ends first.
	Sleep func(ctx context.Context, d time.Duration) error
}

// PageLoad is the policy used for league and stats pages.
func PageLoad() Policy {
	return Policy{Attempts: 3, RetryPause: 3 * time.Second, FailurePause: 5 * time.Second}
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do calls fn until it succeeds, returns a Permanent error, or attempts run
// out. attempt is 1-based. On exhaustion the last error is wrapped with
// ErrExhausted.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, p.RetryPause); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		last = err

		if attempt < attempts {
			if err := p.sleep(ctx, p.FailurePause); err != nil {
				return err
			}
		}
	}
	return errors.Mark(errors.Wrapf(last, "after %d attempts", attempts), ErrExhausted)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Sleep waits for d or until ctx ends.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

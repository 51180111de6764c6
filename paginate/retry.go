package paginate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Decision is the outcome of consulting a Policy.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Policy decides whether a failed fetch should be retried.
// attempt counts the failures of err's Kind within one logical fetch,
// starting at 1, so each kind is capped independently.
type Policy interface {
	Decide(err error, attempt int) Decision
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(err error, attempt int) Decision

// Decide implements Policy.
func (f PolicyFunc) Decide(err error, attempt int) Decision { return f(err, attempt) }

// NoRetry surfaces every error to the caller immediately.
var NoRetry Policy = PolicyFunc(func(error, int) Decision { return Decision{} })

// BackoffPolicy retries transient failures with bounded exponential backoff
// and waits out rate limits until the server-provided reset instant.
type BackoffPolicy struct {
	// MaxRetries caps retries of transient failures.
	MaxRetries int
	// MaxRateLimitWaits caps how many rate-limit resets are waited out.
	MaxRateLimitWaits int
	// MaxRateLimitWait surfaces rate limits whose reset is further away.
	MaxRateLimitWait time.Duration
	// Backoff computes transient retry delays.
	Backoff stealth.BackoffConfig
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() *BackoffPolicy {
	return &BackoffPolicy{
		MaxRetries:        3,
		MaxRateLimitWaits: 1,
		MaxRateLimitWait:  16 * time.Minute,
		Backoff: stealth.BackoffConfig{
			InitialWait: 1 * time.Second,
			MaxWait:     30 * time.Second,
			Multiplier:  2.0,
			JitterPct:   0.3,
		},
	}
}

// Decide implements Policy.
func (p *BackoffPolicy) Decide(err error, attempt int) Decision {
	we := Classify(err)
	if we == nil {
		return Decision{}
	}
	switch we.Kind {
	case KindRateLimited:
		if attempt > p.MaxRateLimitWaits {
			return Decision{}
		}
		now := time.Now
		if p.Now != nil {
			now = p.Now
		}
		wait := max(we.ResetAt.Sub(now()), 0)
		if p.MaxRateLimitWait > 0 && wait > p.MaxRateLimitWait {
			return Decision{}
		}
		return Decision{Retry: true, Delay: wait}
	case KindTransient:
		if attempt > p.MaxRetries {
			return Decision{}
		}
		return Decision{Retry: true, Delay: p.Backoff.Duration(attempt - 1)}
	}
	return Decision{}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fetchWithRetry runs one logical fetch. req is never modified between
// attempts, so every retry asks for the same position.
func fetchWithRetry[T any](ctx context.Context, f Fetcher[T], req FetchRequest, policy Policy, sleep SleepFunc) (*Page[T], error) {
	var failures [KindTerminal + 1]int
	for attempt := 1; ; attempt++ {
		page, err := f.FetchPage(ctx, req)
		if err == nil {
			if page == nil {
				page = &Page[T]{}
			}
			return page, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		kind := Classify(err).Kind
		failures[kind]++
		d := policy.Decide(err, failures[kind])
		if !d.Retry {
			return nil, err
		}
		slog.Warn("page fetch failed, retrying",
			slog.String("collection", req.Collection),
			slog.String("direction", req.Direction.String()),
			slog.String("kind", kind.String()),
			slog.Int("attempt", attempt),
			slog.Duration("delay", d.Delay),
			slog.Any("error", err))
		if serr := sleep(ctx, d.Delay); serr != nil {
			return nil, errors.Join(err, serr)
		}
	}
}

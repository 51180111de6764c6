package paginate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffPolicy_Decide(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := DefaultPolicy()
	p.Now = func() time.Time { return now }
	p.Backoff.JitterPct = 0

	tests := []struct {
		name      string
		err       error
		attempt   int
		wantRetry bool
		wantDelay time.Duration
	}{
		{"rate limited waits until reset", RateLimited(now.Add(60*time.Second), nil), 1, true, 60 * time.Second},
		{"rate limit reset in the past", RateLimited(now.Add(-time.Second), nil), 1, true, 0},
		{"rate limit waits capped", RateLimited(now.Add(time.Minute), nil), 2, false, 0},
		{"rate limit reset too far away", RateLimited(now.Add(time.Hour), nil), 1, false, 0},
		{"transient first retry", Transient(errors.New("reset")), 1, true, -1},
		{"transient last retry", Transient(errors.New("reset")), 3, true, -1},
		{"transient retries capped", Transient(errors.New("reset")), 4, false, 0},
		{"unclassified is transient", errors.New("EOF"), 1, true, -1},
		{"terminal", Terminal(ReasonBadArgument, nil), 1, false, 0},
		{"context canceled", context.Canceled, 1, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Decide(tt.err, tt.attempt)
			assert.Equal(t, tt.wantRetry, d.Retry)
			switch {
			case !tt.wantRetry:
			case tt.wantDelay < 0:
				assert.Positive(t, d.Delay)
				assert.LessOrEqual(t, d.Delay, p.Backoff.MaxWait)
			default:
				assert.Equal(t, tt.wantDelay, d.Delay)
			}
		})
	}
}

func TestBackoffPolicy_DelayGrowsAndCaps(t *testing.T) {
	p := DefaultPolicy()
	p.MaxRetries = 10
	p.Backoff.JitterPct = 0

	var prev time.Duration
	for attempt := 1; attempt <= 10; attempt++ {
		d := p.Decide(Transient(nil), attempt)
		require.True(t, d.Retry)
		assert.GreaterOrEqual(t, d.Delay, prev)
		assert.LessOrEqual(t, d.Delay, p.Backoff.MaxWait)
		prev = d.Delay
	}
}

func TestFetchWithRetry_NilPageBecomesEmpty(t *testing.T) {
	f := newScripted(reply[string]{})
	page, err := fetchWithRetry[string](context.Background(), f, FetchRequest{}, NoRetry, sleepCtx)
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Zero(t, page.Len())
}

func TestFetchWithRetry_SurfacesAfterRateLimitCap(t *testing.T) {
	now := time.Now()
	limited := RateLimited(now.Add(time.Second), errors.New("HTTP 429"))
	f := newScripted(
		reply[string]{err: limited},
		reply[string]{err: limited},
	)
	p := DefaultPolicy()
	p.Now = func() time.Time { return now }
	sleeps := &sleepRecorder{}

	_, err := fetchWithRetry[string](context.Background(), f, FetchRequest{}, p, sleeps.sleep)

	reset, ok := IsRateLimited(err)
	require.True(t, ok)
	assert.Equal(t, limited.ResetAt, reset)
	assert.Equal(t, 2, f.calls())
	assert.Len(t, sleeps.recorded(), 1)
}

func TestFetchWithRetry_TransientThenRateLimited(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newScripted(
		reply[string]{err: Transient(errors.New("connection reset"))},
		reply[string]{err: RateLimited(now.Add(60*time.Second), errors.New("HTTP 429"))},
		reply[string]{page: cursorPage(CursorEnd, CursorEnd, "a")},
	)
	p := DefaultPolicy()
	p.Now = func() time.Time { return now }
	p.Backoff.JitterPct = 0
	sleeps := &sleepRecorder{}

	page, err := fetchWithRetry[string](context.Background(), f, FetchRequest{}, p, sleeps.sleep)

	require.NoError(t, err, "an earlier transient failure does not use up the rate-limit wait")
	assert.Equal(t, []string{"a"}, page.Items)
	assert.Equal(t, 3, f.calls())
	delays := sleeps.recorded()
	require.Len(t, delays, 2)
	assert.Positive(t, delays[0])
	assert.LessOrEqual(t, delays[0], p.Backoff.MaxWait)
	assert.Equal(t, 60*time.Second, delays[1])
}

func TestFetchWithRetry_RateLimitedThenTransient(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newScripted(
		reply[string]{err: RateLimited(now.Add(60*time.Second), errors.New("HTTP 429"))},
		reply[string]{err: Transient(errors.New("connection reset"))},
		reply[string]{page: cursorPage(CursorEnd, CursorEnd, "a")},
	)
	p := DefaultPolicy()
	p.Now = func() time.Time { return now }
	p.Backoff.JitterPct = 0
	sleeps := &sleepRecorder{}

	_, err := fetchWithRetry[string](context.Background(), f, FetchRequest{}, p, sleeps.sleep)

	require.NoError(t, err)
	assert.Equal(t, 3, f.calls())
	delays := sleeps.recorded()
	require.Len(t, delays, 2)
	assert.Equal(t, 60*time.Second, delays[0])
	assert.Equal(t, p.Decide(Transient(nil), 1).Delay, delays[1], "first transient failure gets the first backoff step")
}

func TestFetchWithRetry_MixedFailuresKeepPerKindCaps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limited := RateLimited(now.Add(time.Second), errors.New("HTTP 429"))
	f := newScripted(
		reply[string]{err: Transient(errors.New("connection reset"))},
		reply[string]{err: limited},
		reply[string]{err: Transient(errors.New("connection reset"))},
		reply[string]{err: limited},
	)
	p := DefaultPolicy()
	p.Now = func() time.Time { return now }
	p.Backoff.JitterPct = 0
	sleeps := &sleepRecorder{}

	_, err := fetchWithRetry[string](context.Background(), f, FetchRequest{}, p, sleeps.sleep)

	_, ok := IsRateLimited(err)
	require.True(t, ok, "the second rate limit exceeds its own cap")
	assert.Equal(t, 4, f.calls())
	assert.Len(t, sleeps.recorded(), 3)
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), 0))
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}

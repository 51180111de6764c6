package paginate

import (
	"context"
	"log/slog"
	"sync"
)

// State is the lifecycle of a Timeline.
type State int

const (
	Fresh     State = iota // nothing fetched yet
	Polling                // window defined, more history may exist
	Exhausted              // paging back returned a short page
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Polling:
		return "polling"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Window is the range of IDs a Timeline has covered.
type Window struct {
	// MinID is the oldest ID covered; zero while the window is undefined.
	MinID uint64
	// MaxID is the newest ID covered; zero while the window is undefined.
	MaxID uint64
	// FullPage reports whether the last backward fetch filled its page.
	FullPage bool
}

// Defined reports whether at least one non-empty page has been observed.
func (w Window) Defined() bool { return w.MaxID != 0 }

// Since returns the exclusive lower bound of the window, MinID-1,
// saturating at zero.
func (w Window) Since() uint64 {
	if w.MinID == 0 {
		return 0
	}
	return w.MinID - 1
}

// Timeline traverses a feed ordered by monotonically increasing IDs.
//
// PollNewest catches up toward the present and PageBackward pages into
// history. The two operate on disjoint bounds of the window, so one of each
// may be outstanding at the same time.
type Timeline[T any] struct {
	fetcher    Fetcher[T]
	collection string
	opts       options

	mu       sync.Mutex
	pageSize int
	state    State
	window   Window
	inflight [2]bool // indexed by Forward (newer) and Backward (older)
	gen      uint64
}

// NewTimeline creates a Fresh timeline over collection.
func NewTimeline[T any](fetcher Fetcher[T], collection string, pageSize int, opts ...Option) *Timeline[T] {
	return &Timeline[T]{
		fetcher:    fetcher,
		collection: collection,
		opts:       buildOptions(opts),
		pageSize:   normalizePageSize(pageSize),
	}
}

// Collection returns the collection identity this timeline was built for.
func (t *Timeline[T]) Collection() string { return t.collection }

// State returns the current lifecycle state.
func (t *Timeline[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Window returns a copy of the covered ID range.
func (t *Timeline[T]) Window() Window {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.window
}

// PageSize returns the number of items requested per fetch.
func (t *Timeline[T]) PageSize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pageSize
}

// SetPageSize changes the number of items requested per fetch. The window
// is kept.
func (t *Timeline[T]) SetPageSize(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pageSize = normalizePageSize(n)
}

// Reset discards the window and returns to Fresh.
func (t *Timeline[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window = Window{}
	t.state = Fresh
	t.gen++
}

// StartPollNewest issues a fetch for items newer than the window.
func (t *Timeline[T]) StartPollNewest(ctx context.Context) (*Future[T], error) {
	t.mu.Lock()
	if t.inflight[Forward] {
		t.mu.Unlock()
		return nil, ErrInFlight
	}
	req := FetchRequest{
		Collection: t.collection,
		PageSize:   t.pageSize,
		Direction:  Forward,
		SinceID:    t.window.MaxID,
	}
	t.inflight[Forward] = true
	gen := t.gen
	t.mu.Unlock()

	return t.start(ctx, req, gen), nil
}

// PollNewest fetches items newer than the window, newest first, and
// extends the window's upper bound. It never exhausts the timeline.
func (t *Timeline[T]) PollNewest(ctx context.Context) (*Page[T], error) {
	f, err := t.StartPollNewest(ctx)
	if err != nil {
		return nil, err
	}
	return f.Await(ctx)
}

// StartPageBackward issues a fetch for items older than the window. On an
// exhausted timeline the returned Future is already resolved with an empty
// page and no fetch is made.
func (t *Timeline[T]) StartPageBackward(ctx context.Context) (*Future[T], error) {
	t.mu.Lock()
	if t.inflight[Backward] {
		t.mu.Unlock()
		return nil, ErrInFlight
	}
	if t.state != Exhausted && t.window.Defined() && t.window.Since() == 0 {
		// The oldest possible ID is already covered.
		t.state = Exhausted
	}
	if t.state == Exhausted {
		t.inflight[Backward] = true
		t.mu.Unlock()
		return resolvedFuture(&Page[T]{Items: []T{}}, func(*Page[T], error, bool) {
			t.mu.Lock()
			t.inflight[Backward] = false
			t.mu.Unlock()
		}), nil
	}
	req := FetchRequest{
		Collection: t.collection,
		PageSize:   t.pageSize,
		Direction:  Backward,
		MaxID:      t.window.Since(),
	}
	t.inflight[Backward] = true
	gen := t.gen
	t.mu.Unlock()

	return t.start(ctx, req, gen), nil
}

// PageBackward fetches items older than the window and extends its lower
// bound. A page shorter than the page size exhausts the timeline; once
// exhausted, PageBackward returns an empty page without fetching.
func (t *Timeline[T]) PageBackward(ctx context.Context) (*Page[T], error) {
	f, err := t.StartPageBackward(ctx)
	if err != nil {
		return nil, err
	}
	return f.Await(ctx)
}

// Start resets the timeline and loads the newest page.
func (t *Timeline[T]) Start(ctx context.Context) (*Page[T], error) {
	t.Reset()
	return t.PageBackward(ctx)
}

// Call fetches the items between sinceID (exclusive) and maxID (inclusive)
// without reading or updating the window. Zero leaves a bound unset.
func (t *Timeline[T]) Call(ctx context.Context, sinceID, maxID uint64) (*Page[T], error) {
	req := FetchRequest{
		Collection: t.collection,
		PageSize:   t.PageSize(),
		Direction:  Backward,
		SinceID:    sinceID,
		MaxID:      maxID,
	}
	return fetchWithRetry(ctx, t.fetcher, req, t.opts.policy, t.opts.sleep)
}

func (t *Timeline[T]) start(ctx context.Context, req FetchRequest, gen uint64) *Future[T] {
	run := func(ctx context.Context) (*Page[T], error) {
		return fetchWithRetry(ctx, t.fetcher, req, t.opts.policy, t.opts.sleep)
	}
	return startFuture(ctx, run, func(page *Page[T], err error, cancelled bool) {
		t.settle(req, gen, page, err, cancelled)
	})
}

func (t *Timeline[T]) settle(req FetchRequest, gen uint64, page *Page[T], err error, cancelled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[req.Direction] = false
	if cancelled || err != nil || gen != t.gen {
		return
	}

	n := page.Len()
	if n > 0 {
		lo, hi := page.MinID, page.MaxID
		if lo > hi {
			lo, hi = hi, lo
		}
		switch {
		case !t.window.Defined():
			t.window.MinID, t.window.MaxID = lo, hi
		case req.Direction == Forward:
			t.window.MaxID = max(t.window.MaxID, hi)
		default:
			t.window.MinID = min(t.window.MinID, lo)
		}
	}

	if req.Direction == Backward {
		// A page with nothing usable cannot move the window, so it ends
		// the walk even when the server filled it.
		t.window.FullPage = n > 0 && page.served() >= req.PageSize
		if !t.window.FullPage {
			t.state = Exhausted
		} else if t.state == Fresh {
			t.state = Polling
		}
	} else if t.window.Defined() && t.state == Fresh {
		t.state = Polling
	}

	slog.Debug("timeline window updated",
		slog.String("collection", t.collection),
		slog.String("direction", req.Direction.String()),
		slog.Int("items", n),
		slog.String("state", t.state.String()),
		slog.Uint64("min_id", t.window.MinID),
		slog.Uint64("max_id", t.window.MaxID))
}

package paginate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// CursorWalker traverses a cursor-paginated collection.
//
// It holds one cursor per direction. The directions are independent: a
// forward advance only replaces the next cursor and a backward advance only
// replaces the previous cursor. Forward and backward advances may run
// concurrently; two advances in the same direction may not.
type CursorWalker[T any] struct {
	fetcher    Fetcher[T]
	collection string
	opts       options

	mu       sync.Mutex
	pageSize int
	cursors  [2]Cursor
	inflight [2]bool
	gen      uint64
}

// NewCursorWalker creates a walker positioned at the start of collection.
func NewCursorWalker[T any](fetcher Fetcher[T], collection string, pageSize int, opts ...Option) *CursorWalker[T] {
	return &CursorWalker[T]{
		fetcher:    fetcher,
		collection: collection,
		opts:       buildOptions(opts),
		pageSize:   normalizePageSize(pageSize),
		cursors:    [2]Cursor{CursorStart, CursorStart},
	}
}

// Collection returns the collection identity this walker was built for.
func (w *CursorWalker[T]) Collection() string { return w.collection }

// Cursors returns the current next and previous cursors.
func (w *CursorWalker[T]) Cursors() (next, previous Cursor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursors[Forward], w.cursors[Backward]
}

// PageSize returns the number of items requested per fetch.
func (w *CursorWalker[T]) PageSize() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pageSize
}

// SetPageSize changes the page size and restarts both directions, since
// cursors issued for one page size are not valid for another.
func (w *CursorWalker[T]) SetPageSize(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pageSize = normalizePageSize(n)
	w.cursors = [2]Cursor{CursorStart, CursorStart}
	w.gen++
}

// Reset returns both directions to CursorStart.
func (w *CursorWalker[T]) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursors = [2]Cursor{CursorStart, CursorStart}
	w.gen++
}

// Start issues the fetch for the next page in dir and returns without
// waiting for it. It returns ErrNoMorePages when dir is exhausted and
// ErrInFlight when a fetch in dir is still outstanding.
func (w *CursorWalker[T]) Start(ctx context.Context, dir Direction) (*Future[T], error) {
	if dir != Forward && dir != Backward {
		return nil, Terminal(ReasonBadArgument, fmt.Errorf("unknown direction %d", int(dir)))
	}
	w.mu.Lock()
	if w.inflight[dir] {
		w.mu.Unlock()
		return nil, ErrInFlight
	}
	cur := w.cursors[dir]
	if cur.IsEnd() {
		w.mu.Unlock()
		return nil, ErrNoMorePages
	}
	req := FetchRequest{
		Collection: w.collection,
		PageSize:   w.pageSize,
		Direction:  dir,
		Cursor:     cur,
	}
	w.inflight[dir] = true
	gen := w.gen
	w.mu.Unlock()

	run := func(ctx context.Context) (*Page[T], error) {
		return fetchWithRetry(ctx, w.fetcher, req, w.opts.policy, w.opts.sleep)
	}
	return startFuture(ctx, run, func(page *Page[T], err error, cancelled bool) {
		w.settle(req, gen, page, err, cancelled)
	}), nil
}

// Advance fetches the next page in dir and waits for it.
func (w *CursorWalker[T]) Advance(ctx context.Context, dir Direction) (*Page[T], error) {
	f, err := w.Start(ctx, dir)
	if err != nil {
		return nil, err
	}
	return f.Await(ctx)
}

func (w *CursorWalker[T]) settle(req FetchRequest, gen uint64, page *Page[T], err error, cancelled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inflight[req.Direction] = false
	if cancelled || err != nil {
		return
	}
	// A Reset or SetPageSize while the fetch was running invalidates it.
	if gen != w.gen {
		return
	}
	next := page.NextCursor
	if req.Direction == Backward {
		next = page.PreviousCursor
	}
	w.cursors[req.Direction] = next
	slog.Debug("cursor advanced",
		slog.String("collection", w.collection),
		slog.String("direction", req.Direction.String()),
		slog.Int("items", page.Len()),
		slog.String("cursor", string(next)))
}

package paginate

import (
	"context"
	"sync"
)

// settleFunc is called exactly once per Future, by the goroutine that
// observes it. cancelled is true when the Future was cancelled or its
// Await context ended before the result arrived; in that case page and err
// must not be applied.
type settleFunc[T any] func(page *Page[T], err error, cancelled bool)

// Future is a single in-flight page fetch.
//
// The owning walker or timeline applies its state update only when the
// result is observed through Await or Poll. A Future must be observed or
// cancelled: until then it occupies its direction and further fetches in
// that direction fail with ErrInFlight.
type Future[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc

	page *Page[T]
	err  error

	mu       sync.Mutex
	consumed bool
	settle   settleFunc[T]
}

func startFuture[T any](ctx context.Context, run func(context.Context) (*Page[T], error), settle settleFunc[T]) *Future[T] {
	fctx, cancel := context.WithCancel(ctx)
	f := &Future[T]{
		done:   make(chan struct{}),
		cancel: cancel,
		settle: settle,
	}
	go func() {
		defer close(f.done)
		f.page, f.err = run(fctx)
	}()
	return f
}

// resolvedFuture returns a Future that is already complete and performed no
// fetch.
func resolvedFuture[T any](page *Page[T], settle settleFunc[T]) *Future[T] {
	f := &Future[T]{
		done:   make(chan struct{}),
		cancel: func() {},
		page:   page,
		settle: settle,
	}
	close(f.done)
	return f
}

// Done is closed once the fetch has finished, successfully or not.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the fetch finishes or ctx is done. If ctx ends first,
// the Future is cancelled and the owner's state is left untouched.
func (f *Future[T]) Await(ctx context.Context) (*Page[T], error) {
	select {
	case <-f.done:
		return f.observe()
	case <-ctx.Done():
		if f.Cancel() {
			return nil, ctx.Err()
		}
		return nil, ErrFutureConsumed
	}
}

// Poll returns the result if the fetch has finished. ready is false while it
// is still running; polling an unfinished Future does not consume it.
func (f *Future[T]) Poll() (page *Page[T], ready bool, err error) {
	select {
	case <-f.done:
		page, err = f.observe()
		return page, true, err
	default:
		return nil, false, nil
	}
}

// Cancel aborts an unobserved fetch. It reports whether this call
// cancelled the Future; cancelling an observed Future is a no-op.
func (f *Future[T]) Cancel() bool {
	f.mu.Lock()
	if f.consumed {
		f.mu.Unlock()
		return false
	}
	f.consumed = true
	f.mu.Unlock()

	f.cancel()
	if f.settle != nil {
		f.settle(nil, nil, true)
	}
	return true
}

func (f *Future[T]) observe() (*Page[T], error) {
	f.mu.Lock()
	if f.consumed {
		f.mu.Unlock()
		return nil, ErrFutureConsumed
	}
	f.consumed = true
	f.mu.Unlock()

	f.cancel()
	if f.settle != nil {
		f.settle(f.page, f.err, false)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

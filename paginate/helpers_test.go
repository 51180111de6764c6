package paginate

import (
	"context"
	"errors"
	"sync"
	"time"
)

type reply[T any] struct {
	page *Page[T]
	err  error
}

// scriptedFetcher returns its replies in order and records every request.
type scriptedFetcher[T any] struct {
	mu       sync.Mutex
	replies  []reply[T]
	requests []FetchRequest
}

func newScripted[T any](replies ...reply[T]) *scriptedFetcher[T] {
	return &scriptedFetcher[T]{replies: replies}
}

func (f *scriptedFetcher[T]) FetchPage(_ context.Context, req FetchRequest) (*Page[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.replies) == 0 {
		return nil, Terminal(ReasonMalformed, errors.New("unexpected fetch"))
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.page, r.err
}

func (f *scriptedFetcher[T]) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *scriptedFetcher[T]) request(i int) FetchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

// gatedFetcher blocks every fetch until a reply is sent on the gate for its
// direction, or the fetch context ends.
type gatedFetcher[T any] struct {
	gates   [2]chan reply[T]
	started chan FetchRequest
}

func newGated[T any]() *gatedFetcher[T] {
	return &gatedFetcher[T]{
		gates:   [2]chan reply[T]{make(chan reply[T]), make(chan reply[T])},
		started: make(chan FetchRequest, 8),
	}
}

func (f *gatedFetcher[T]) FetchPage(ctx context.Context, req FetchRequest) (*Page[T], error) {
	f.started <- req
	select {
	case r := <-f.gates[req.Direction]:
		return r.page, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// sleepRecorder replaces real waiting between retries.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func cursorPage(next, prev Cursor, items ...string) *Page[string] {
	return &Page[string]{Items: items, NextCursor: next, PreviousCursor: prev}
}

// idPage builds a newest-first page for the inclusive range [lo, hi].
func idPage(lo, hi uint64) *Page[uint64] {
	if hi < lo {
		return &Page[uint64]{}
	}
	items := make([]uint64, 0, hi-lo+1)
	for id := hi; id >= lo; id-- {
		items = append(items, id)
		if id == 0 {
			break
		}
	}
	return &Page[uint64]{Items: items, MinID: lo, MaxID: hi}
}

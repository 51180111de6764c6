package paginate

import (
	"context"
	"errors"
	"iter"
)

// Sequence is implemented by both CursorWalker and Timeline: something that
// produces a finite, lazy sequence of items. A consumed sequence restarts
// only by constructing a new walker or timeline.
type Sequence[T any] interface {
	All(ctx context.Context) iter.Seq2[T, error]
}

var (
	_ Sequence[int] = (*CursorWalker[int])(nil)
	_ Sequence[int] = (*Timeline[int])(nil)
)

// Pages yields pages by advancing forward until the collection is
// exhausted. A fetch failure is yielded once as (nil, err) and ends the
// sequence; exhaustion ends it without an error.
func (w *CursorWalker[T]) Pages(ctx context.Context) iter.Seq2[*Page[T], error] {
	return func(yield func(*Page[T], error) bool) {
		for {
			page, err := w.Advance(ctx, Forward)
			if errors.Is(err, ErrNoMorePages) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}
		}
	}
}

// All yields the items of every remaining forward page, one at a time.
func (w *CursorWalker[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return items(w.Pages(ctx))
}

// Pages yields pages by paging backward until the timeline is exhausted.
func (t *Timeline[T]) Pages(ctx context.Context) iter.Seq2[*Page[T], error] {
	return func(yield func(*Page[T], error) bool) {
		for {
			if t.State() == Exhausted {
				return
			}
			page, err := t.PageBackward(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if page.Len() == 0 {
				continue
			}
			if !yield(page, nil) {
				return
			}
		}
	}
}

// All yields every item from the current window back to the start of the
// timeline, newest first.
func (t *Timeline[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return items(t.Pages(ctx))
}

func items[T any](pages iter.Seq2[*Page[T], error]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for page, err := range pages {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// Collect drains seq. It stops at the first error and returns the items
// gathered so far together with it. limit > 0 stops after that many items.
func Collect[T any](seq iter.Seq2[T, error], limit int) ([]T, error) {
	var out []T
	for item, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

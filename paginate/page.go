package paginate

import (
	"context"
	"time"
)

// Direction selects which way a CursorWalker moves.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Cursor is an opaque server-issued position in a cursored collection.
type Cursor string

const (
	// CursorStart is the initial cursor for both directions.
	CursorStart Cursor = "-1"
	// CursorEnd marks that no further page exists in a direction.
	CursorEnd Cursor = "0"
)

// IsEnd reports whether c is the end sentinel. Servers that omit a cursor
// are treated the same as ones that send "0".
func (c Cursor) IsEnd() bool {
	return c == CursorEnd || c == ""
}

// RateLimit is the rate-limit window reported alongside a page.
// Negative Limit/Remaining mean the server did not report them.
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Page is one batch of items plus pagination metadata.
//
// Cursor collections fill NextCursor and PreviousCursor. ID collections fill
// MinID and MaxID with the smallest and largest item IDs present; both are
// zero for an empty page.
type Page[T any] struct {
	Items []T

	NextCursor     Cursor
	PreviousCursor Cursor

	MinID uint64
	MaxID uint64

	// Received is the number of items the server sent, counting any the
	// decoder dropped. Zero means Len().
	Received int

	RateLimit RateLimit
}

// Len returns the number of items on the page.
func (p *Page[T]) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// served is the item count the server answered with, used to tell a short
// page from a full one.
func (p *Page[T]) served() int {
	if p == nil {
		return 0
	}
	return max(p.Received, len(p.Items))
}

// FetchRequest is the parameter set for one page fetch. It is built fresh
// for every call and passed by value.
type FetchRequest struct {
	// Collection identifies what is being walked (endpoint plus owner).
	Collection string
	PageSize   int
	Direction  Direction

	// Cursor mode.
	Cursor Cursor

	// ID mode. Zero means unset. SinceID is exclusive, MaxID inclusive.
	SinceID uint64
	MaxID   uint64
}

// Fetcher performs one network round trip and returns a decoded page.
//
// Implementations must be safe for concurrent use. ID-mode fetchers return
// items newest first and fill Page.MinID/MaxID. Failures should be returned
// as *WalkError so the retry policy can tell them apart.
type Fetcher[T any] interface {
	FetchPage(ctx context.Context, req FetchRequest) (*Page[T], error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc[T any] func(ctx context.Context, req FetchRequest) (*Page[T], error)

// FetchPage implements Fetcher.
func (f FetcherFunc[T]) FetchPage(ctx context.Context, req FetchRequest) (*Page[T], error) {
	return f(ctx, req)
}

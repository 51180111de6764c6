package paginate

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoMorePages is returned by CursorWalker when the cursor for the
	// requested direction is the end sentinel. It is not a failure.
	ErrNoMorePages = errors.New("paginate: no more pages")

	// ErrInFlight is returned when a fetch in the same direction is still
	// outstanding on the same walker or timeline.
	ErrInFlight = errors.New("paginate: fetch already in flight for this direction")

	// ErrFutureConsumed is returned when a Future is awaited after its
	// result was already observed or after it was cancelled.
	ErrFutureConsumed = errors.New("paginate: future already consumed")
)

// Kind classifies a failed fetch.
type Kind int

const (
	KindTransient   Kind = iota + 1 // may be retried, e.g. connection reset
	KindRateLimited                 // may be retried at ResetAt
	KindTerminal                    // never retried
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindTerminal:
		return "terminal"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Terminal reasons.
const (
	ReasonBadArgument  = "bad_argument"
	ReasonUnauthorized = "unauthorized"
	ReasonNotFound     = "not_found"
	ReasonMalformed    = "malformed_response"
)

// WalkError is the classified outcome of a failed fetch.
type WalkError struct {
	Kind    Kind
	ResetAt time.Time // set for KindRateLimited
	Reason  string    // set for KindTerminal
	Err     error
}

func (e *WalkError) Error() string {
	var msg string
	switch e.Kind {
	case KindRateLimited:
		msg = "rate limited until " + e.ResetAt.UTC().Format(time.RFC3339)
	case KindTerminal:
		msg = "terminal"
		if e.Reason != "" {
			msg += " (" + e.Reason + ")"
		}
	default:
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *WalkError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable failure.
func Transient(err error) *WalkError {
	return &WalkError{Kind: KindTransient, Err: err}
}

// RateLimited wraps err as a failure that may be retried at resetAt.
func RateLimited(resetAt time.Time, err error) *WalkError {
	return &WalkError{Kind: KindRateLimited, ResetAt: resetAt, Err: err}
}

// Terminal wraps err as a failure that is never retried.
func Terminal(reason string, err error) *WalkError {
	return &WalkError{Kind: KindTerminal, Reason: reason, Err: err}
}

// Classify returns the WalkError carried by err. Errors that carry none are
// treated as transient, except context cancellation and deadline errors,
// which are terminal.
func Classify(err error) *WalkError {
	if err == nil {
		return nil
	}
	var we *WalkError
	if errors.As(err, &we) {
		return we
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &WalkError{Kind: KindTerminal, Reason: "canceled", Err: err}
	}
	return &WalkError{Kind: KindTransient, Err: err}
}

// IsRateLimited reports whether err is a rate-limit failure and returns the
// reset instant.
func IsRateLimited(err error) (time.Time, bool) {
	var we *WalkError
	if errors.As(err, &we) && we.Kind == KindRateLimited {
		return we.ResetAt, true
	}
	return time.Time{}, false
}

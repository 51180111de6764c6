package paginate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	base := errors.New("boom")
	reset := time.Unix(1700000000, 0)

	tests := []struct {
		name       string
		err        error
		wantKind   Kind
		wantReason string
	}{
		{"transient", Transient(base), KindTransient, ""},
		{"rate limited", RateLimited(reset, base), KindRateLimited, ""},
		{"terminal", Terminal(ReasonNotFound, base), KindTerminal, ReasonNotFound},
		{"wrapped walk error", fmt.Errorf("fetch: %w", Terminal(ReasonMalformed, base)), KindTerminal, ReasonMalformed},
		{"plain error", base, KindTransient, ""},
		{"canceled", context.Canceled, KindTerminal, "canceled"},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), KindTerminal, "canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			we := Classify(tt.err)
			if assert.NotNil(t, we) {
				assert.Equal(t, tt.wantKind, we.Kind)
				assert.Equal(t, tt.wantReason, we.Reason)
			}
		})
	}
	assert.Nil(t, Classify(nil))
}

func TestWalkError_Message(t *testing.T) {
	reset := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, "transient: boom", Transient(errors.New("boom")).Error())
	assert.Equal(t, "rate limited until 2026-01-02T03:04:05Z", RateLimited(reset, nil).Error())
	assert.Equal(t, "terminal (not_found): HTTP 404", Terminal(ReasonNotFound, errors.New("HTTP 404")).Error())
	assert.Equal(t, "terminal", Terminal("", nil).Error())
}

func TestWalkError_Unwrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := fmt.Errorf("outer: %w", Transient(sentinel))
	assert.ErrorIs(t, err, sentinel)

	_, ok := IsRateLimited(err)
	assert.False(t, ok)

	reset := time.Unix(1700000000, 0)
	got, ok := IsRateLimited(fmt.Errorf("outer: %w", RateLimited(reset, sentinel)))
	assert.True(t, ok)
	assert.Equal(t, reset, got)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "transient", KindTransient.String())
	assert.Equal(t, "rate_limited", KindRateLimited.String())
	assert.Equal(t, "terminal", KindTerminal.String())
	assert.Equal(t, "kind(0)", Kind(0).String())
	assert.Equal(t, "forward", Forward.String())
	assert.Equal(t, "backward", Backward.String())
	assert.Equal(t, "exhausted", Exhausted.String())
}

package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-twitter-paging/paginate"
)

// guestActivateURL issues guest tokens.
const guestActivateURL = restBase + "/guest/activate.json"

// setGuestToken stores a fresh guest token.
func (c *Client) setGuestToken(token string) {
	c.mu.Lock()
	c.guestToken = token
	c.guestLimitedUntil = time.Time{}
	c.mu.Unlock()
}

// markGuestTokenRateLimited marks the guest token as rate-limited.
func (c *Client) markGuestTokenRateLimited(until time.Time) {
	c.mu.Lock()
	c.guestLimitedUntil = until
	c.mu.Unlock()
}

// getGuestTokenCached returns the current guest token and whether it is usable.
func (c *Client) getGuestTokenCached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.guestToken == "" || time.Now().Before(c.guestLimitedUntil) {
		return "", false
	}
	return c.guestToken, true
}

// getGuestToken fetches a Twitter guest token.
func (c *Client) getGuestToken() (string, error) {
	headers := map[string]string{
		"authorization": "Bearer " + BearerToken,
		"content-type":  "application/json",
		"user-agent":    defaultUserAgent,
	}
	body, _, status, err := c.transport.DoWithHeaderOrder("POST", guestActivateURL, headers, nil, headerOrder)
	if err != nil {
		return "", err
	}
	if status != 200 {
		return "", fmt.Errorf("guest token: HTTP %d", status)
	}
	var resp struct {
		GuestToken string `json:"guest_token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode guest token: %w", err)
	}
	if resp.GuestToken == "" {
		return "", errors.New("empty guest token in response")
	}
	return resp.GuestToken, nil
}

// acquireGuestToken fetches a fresh guest token with exponential backoff.
func (c *Client) acquireGuestToken(ctx context.Context) (string, error) {
	backoff := stealth.BackoffConfig{
		InitialWait: 2 * time.Second,
		MaxWait:     60 * time.Second,
		Multiplier:  2.0,
		JitterPct:   0.3,
	}
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			delay := backoff.Duration(attempt)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
		token, err := c.getGuestToken()
		if err == nil {
			return token, nil
		}
		lastErr = err
		slog.Warn("guest token acquisition failed", slog.Int("attempt", attempt+1), slog.Any("error", err))
	}
	return "", fmt.Errorf("acquire guest token after 3 attempts: %w", lastErr)
}

// guestRoundTrip serves a request that needs no session under a guest token.
func (c *Client) guestRoundTrip(ctx context.Context, ep Endpoint, url string) (response, error) {
	gt, ok := c.getGuestTokenCached()
	if !ok {
		token, err := c.acquireGuestToken(ctx)
		if err != nil {
			return response{}, paginate.Transient(fmt.Errorf("guest token unavailable for %s: %w", ep.Name, err))
		}
		c.setGuestToken(token)
		gt = token
		slog.Info("guest token acquired as fallback", slog.String("endpoint", ep.Name))
	}

	body, hdrs, status, err := c.transport.DoWithHeaderOrder("GET", url, guestHeaders(gt), nil, headerOrder)
	if err != nil {
		c.recordAPICall(ep.Name, false, false)
		return response{}, paginate.Transient(fmt.Errorf("%s (guest): %w", ep.Name, err))
	}

	class := classifyResponse(status, body)
	switch class {
	case errNone:
		c.recordAPICall(ep.Name, true, false)
		return response{body: body, hdrs: hdrs}, nil
	case errRateLimited:
		c.recordAPICall(ep.Name, false, true)
		we := walkError(class, newAPIError(ep.Name, status, body), hdrs)
		c.markGuestTokenRateLimited(we.ResetAt)
		return response{}, we
	case errUnauthorized, errForbidden, errAuthExpired:
		// The token expired; the next attempt acquires a new one.
		slog.Warn("guest token rejected, dropping it", slog.String("endpoint", ep.Name), slog.Int("status", status))
		c.setGuestToken("")
		c.recordAPICall(ep.Name, false, false)
		return response{}, paginate.Transient(newAPIError(ep.Name, status, body))
	}
	c.recordAPICall(ep.Name, false, false)
	return response{}, walkError(class, newAPIError(ep.Name, status, body), hdrs)
}

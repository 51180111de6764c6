package twitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/pool"
	"github.com/anatolykoptev/go-stealth/ratelimit"
	"github.com/anatolykoptev/go-twitter-paging/paginate"
	"github.com/sony/gobreaker"
)

// Doer performs one HTTP round trip with an explicit header order.
// *stealth.BrowserClient implements it.
type Doer interface {
	DoWithHeaderOrder(method, url string, headers map[string]string, body io.Reader, order []string) ([]byte, map[string]string, int, error)
}

// Client is the top-level Twitter REST client.
type Client struct {
	transport Doer
	accounts  []*Account
	pool      *pool.Pool[*Account]
	policy    paginate.Policy
	cfg       ClientConfig

	breakersMu sync.Mutex
	breakers   map[string]*gobreaker.CircuitBreaker

	mu                sync.Mutex
	guestToken        string
	guestLimitedUntil time.Time
}

// NewClient creates a fully-wired Twitter client.
func NewClient(cfg ClientConfig) (*Client, error) {
	cfg.defaults()

	for _, acc := range cfg.Accounts {
		acc.rateLimiter = ratelimit.NewLimiter(cfg.RateLimit)
		acc.HealthTracker = pool.DefaultHealthTracker()
	}

	transport := cfg.Transport
	if transport == nil {
		opts := []stealth.ClientOption{
			stealth.WithHeaderOrder(headerOrder),
		}
		if cfg.DefaultProxy != "" {
			opts = append(opts, stealth.WithProxy(cfg.DefaultProxy))
		}
		bc, err := stealth.NewClient(opts...)
		if err != nil {
			return nil, fmt.Errorf("stealth client: %w", err)
		}
		transport = bc
	}

	poolCfg := pool.Config{
		AlertHook: func(topic string, payload any) {
			slog.Warn("pool alert", slog.String("topic", topic), slog.Any("payload", payload))
		},
		ProxyBackoff: pool.BackoffConfig{
			InitialWait: cfg.ProxyBackoffInitial,
			MaxWait:     cfg.ProxyBackoffMax,
			Multiplier:  2.0,
			JitterPct:   0.3,
		},
	}

	c := &Client{
		transport: transport,
		accounts:  cfg.Accounts,
		pool:      pool.New(cfg.Accounts, poolCfg),
		policy:    cfg.retryPolicy(),
		cfg:       cfg,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}

	for _, acc := range cfg.Accounts {
		if acc.Proxy != "" && cfg.Transport == nil {
			accClient, err := stealth.NewClient(
				stealth.WithProxy(acc.Proxy),
				stealth.WithProfile(acc.Profile.TLSProfile),
				stealth.WithHeaderOrder(headerOrder),
			)
			if err != nil {
				slog.Warn("per-account client failed", slog.String("user", acc.Username), slog.Any("error", err))
			} else {
				acc.transport = accClient
			}
		}

		if err := c.restoreSession(acc); err != nil {
			slog.Warn("account unusable", slog.String("user", acc.Username), slog.Any("error", err))
			acc.SetActive(false)
		}
	}

	return c, nil
}

// transportFor returns the per-account transport if available, otherwise the shared one.
func (c *Client) transportFor(acc *Account) Doer {
	if acc != nil && acc.transport != nil {
		return acc.transport
	}
	return c.transport
}

// Pool returns the underlying account pool.
func (c *Client) Pool() *pool.Pool[*Account] {
	return c.pool
}

// recordAPICall calls the metrics hook if configured.
func (c *Client) recordAPICall(endpoint string, success, rateLimited bool) {
	if c.cfg.MetricsHook != nil {
		c.cfg.MetricsHook(endpoint, success, rateLimited)
	}
}

// breakerFor returns the circuit breaker guarding an endpoint.
// Only transient failures count against it.
func (c *Client) breakerFor(endpoint string) *gobreaker.CircuitBreaker {
	c.breakersMu.Lock()
	defer c.breakersMu.Unlock()
	if cb, ok := c.breakers[endpoint]; ok {
		return cb
	}
	minRequests, ratio := c.cfg.BreakerMinRequests, c.cfg.BreakerFailureRatio
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        endpoint,
		MaxRequests: 1,
		Interval:    c.cfg.BreakerInterval,
		Timeout:     c.cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= ratio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || paginate.Classify(err).Kind != paginate.KindTransient
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change",
				slog.String("endpoint", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	c.breakers[endpoint] = cb
	return cb
}

// response is one successful round trip.
type response struct {
	body []byte
	hdrs map[string]string
}

// get performs one GET for a collection page. It makes a single round trip;
// retrying is left to the paging policy. Failures are *paginate.WalkError.
func (c *Client) get(ctx context.Context, ep Endpoint, url string) (response, error) {
	if !c.cfg.DisableJitter {
		// Anti-fingerprint jitter
		if err := stealth.DefaultJitter.Sleep(ctx); err != nil {
			return response{}, err
		}
	}

	acc, err := c.pickAccount(ep)
	if err != nil {
		return response{}, err
	}

	res, err := c.breakerFor(ep.Name).Execute(func() (any, error) {
		if acc == nil {
			return c.guestRoundTrip(ctx, ep, url)
		}
		return c.roundTrip(ctx, acc, ep, url)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.recordAPICall(ep.Name, false, false)
		return response{}, paginate.Transient(fmt.Errorf("%s: %w", ep.Name, err))
	}
	if err != nil {
		return response{}, err
	}
	return res.(response), nil
}

// pickAccount selects an account that may call ep now. It returns a nil
// account when the request should go out under a guest token.
func (c *Client) pickAccount(ep Endpoint) (*Account, error) {
	now := time.Now()
	filter := func(a *Account) bool {
		return a.AllowRequest(ep.Name) && a.proxyUsable(now)
	}
	acc, err := c.pool.Next(filter)
	if err == nil {
		return acc, nil
	}

	if until := c.earliestAvailable(ep.Name, now); !until.IsZero() {
		return nil, paginate.RateLimited(until, fmt.Errorf("%s: every account is rate limited", ep.Name))
	}
	if !ep.RequiresAuth {
		return nil, nil
	}
	return nil, paginate.Terminal(paginate.ReasonUnauthorized,
		fmt.Errorf("%s requires an authenticated account: %w", ep.Name, err))
}

// earliestAvailable returns the soonest instant an active account frees up
// for endpoint, or the zero time if no active account is rate limited.
func (c *Client) earliestAvailable(endpoint string, now time.Time) time.Time {
	var earliest time.Time
	for _, acc := range c.accounts {
		if !acc.IsActive() || !acc.IsEndpointRateLimited(endpoint) {
			continue
		}
		at := acc.EndpointAvailableAt(endpoint)
		if !at.After(now) {
			continue
		}
		if earliest.IsZero() || at.Before(earliest) {
			earliest = at
		}
	}
	return earliest
}

// roundTrip sends one request with acc and updates the account's health,
// cookies and limits from the outcome.
func (c *Client) roundTrip(ctx context.Context, acc *Account, ep Endpoint, url string) (response, error) {
	if err := ctx.Err(); err != nil {
		return response{}, err
	}

	// Proactive ct0 rotation
	if acc.CT0Age() > ct0MaxAge {
		acc.RotateCT0()
		slog.Info("ct0 rotated (proactive)", slog.String("user", acc.Username))
		c.persistSession(acc)
	}

	authTok, ct0, ua := acc.Credentials()
	body, hdrs, status, err := c.transportFor(acc).DoWithHeaderOrder("GET", url, sessionHeaders(authTok, ct0, ua), nil, headerOrder)
	if err != nil {
		if acc.Proxy != "" && isProxyError(err) {
			c.markProxyDown(acc)
		} else {
			acc.RecordFailure()
		}
		c.recordAPICall(ep.Name, false, false)
		return response{}, paginate.Transient(fmt.Errorf("%s: %w", ep.Name, err))
	}
	acc.resetProxyFailures()

	class := classifyResponse(status, body)
	if class == errNone {
		if newCT0 := extractCT0FromHeaders(hdrs); newCT0 != "" && newCT0 != ct0 {
			acc.SetCT0(newCT0)
			c.persistSession(acc)
		}
		c.recordAPICall(ep.Name, true, false)
		acc.RecordSuccess()
		return response{body: body, hdrs: hdrs}, nil
	}

	apiErr := newAPIError(ep.Name, status, body)
	c.recordAPICall(ep.Name, false, class == errRateLimited)

	switch class {
	case errRateLimited:
		we := walkError(class, apiErr, hdrs)
		acc.MarkEndpointRateLimited(ep.Name, we.ResetAt)
		slog.Warn("endpoint rate limited",
			slog.String("user", acc.Username),
			slog.String("endpoint", ep.Name),
			slog.Time("reset", we.ResetAt))
		return response{}, we

	case errCSRF:
		slog.Warn("CSRF error 353, rotating ct0", slog.String("user", acc.Username))
		acc.RotateCT0()
		c.persistSession(acc)
		acc.RecordFailure()

	case errAuthExpired, errBlocked:
		slog.Warn("session rejected, soft-deactivating",
			slog.String("user", acc.Username),
			slog.String("error", apiErr.Error()))
		c.pool.SoftDeactivate(acc, c.cfg.AuthCooldown)

	case errLocked:
		slog.Warn("account locked (code 326)", slog.String("user", acc.Username))
		c.pool.SoftDeactivate(acc, c.cfg.BanCooldown)

	case errSuspended:
		slog.Warn("account suspended (code 64), permanently deactivating", slog.String("user", acc.Username))
		c.pool.DeactivateItem(acc)

	case errServer, errInternal, errOverCapacity:
		slog.Warn("server error", slog.String("endpoint", ep.Name), slog.Int("status", status), slog.String("body", truncateBytes(body, 500)))
		if shouldDeactivate := acc.RecordFailure(); shouldDeactivate {
			total, failed, consec := acc.Stats()
			slog.Warn("account unhealthy, deactivating",
				slog.String("user", acc.Username),
				slog.Int("total", total),
				slog.Int("failed", failed),
				slog.Int("consec", consec))
			c.pool.DeactivateItem(acc)
		}
	}

	if class.accountFault() {
		// Another account may succeed on the next attempt.
		return response{}, paginate.Transient(apiErr)
	}
	return response{}, walkError(class, apiErr, hdrs)
}

// isProxyError returns true if the error looks like a proxy connectivity failure.
func isProxyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "proxy") ||
		strings.Contains(msg, "SOCKS") ||
		strings.Contains(msg, "tunnel") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host")
}

// markProxyDown applies exponential backoff for proxy failures.
func (c *Client) markProxyDown(acc *Account) {
	acc.mu.Lock()
	acc.proxyConsecFails++
	fails := acc.proxyConsecFails
	acc.mu.Unlock()

	duration := stealth.BackoffConfig{
		InitialWait: c.cfg.ProxyBackoffInitial,
		MaxWait:     c.cfg.ProxyBackoffMax,
		Multiplier:  2.0,
		JitterPct:   0.3,
	}.Duration(fails - 1)

	acc.mu.Lock()
	acc.proxyBackoff = time.Now().Add(duration)
	acc.mu.Unlock()

	slog.Warn("proxy down, backing off",
		slog.String("user", acc.Username),
		slog.String("proxy", stealth.MaskProxy(acc.Proxy)),
		slog.Int("consec_fails", fails),
		slog.Duration("backoff", duration))
}

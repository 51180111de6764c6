package twitter

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/pool"
	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// ct0MaxAge is the maximum age of a ct0 token before proactive rotation.
const ct0MaxAge = 4 * time.Hour

// Account is an authenticated Twitter session in the pool.
type Account struct {
	Username  string
	AuthToken string
	CT0       string
	Proxy     string
	UserAgent string
	Profile   stealth.BrowserProfile

	active       bool
	reactivateAt time.Time
	transport    Doer

	mu               sync.Mutex
	ct0RefreshedAt   time.Time
	proxyBackoff     time.Time
	proxyConsecFails int
	rateLimiter      *ratelimit.Limiter

	pool.HealthTracker
}

// ID implements pool.Identity.
func (a *Account) ID() string { return a.Username }

// IsActive implements pool.Identity.
func (a *Account) IsActive() bool { return a.active }

// SetActive implements pool.Identity.
func (a *Account) SetActive(v bool) { a.active = v }

// ReactivateAt implements pool.Identity.
func (a *Account) ReactivateAt() time.Time { return a.reactivateAt }

// SetReactivateAt implements pool.Identity.
func (a *Account) SetReactivateAt(t time.Time) { a.reactivateAt = t }

// HasSession reports whether both session cookies are present.
func (a *Account) HasSession() bool {
	authToken, ct0, _ := a.Credentials()
	return authToken != "" && ct0 != ""
}

// CT0Age returns the time since the ct0 token was last refreshed.
func (a *Account) CT0Age() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ct0RefreshedAt.IsZero() {
		return 24 * time.Hour
	}
	return time.Since(a.ct0RefreshedAt)
}

// RotateCT0 generates a fresh ct0 token and updates the refresh timestamp.
func (a *Account) RotateCT0() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.CT0 = GenerateCT0()
	a.ct0RefreshedAt = time.Now()
}

// SetCT0 updates the ct0 from a server response.
func (a *Account) SetCT0(ct0 string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.CT0 = ct0
	a.ct0RefreshedAt = time.Now()
}

// Credentials returns a snapshot of (authToken, ct0, userAgent) under lock.
func (a *Account) Credentials() (authToken, ct0, userAgent string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.AuthToken, a.CT0, a.UserAgent
}

// SetCredentials atomically updates auth_token and ct0.
func (a *Account) SetCredentials(authToken, ct0 string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.AuthToken = authToken
	a.CT0 = ct0
	a.ct0RefreshedAt = time.Now()
}

func (a *Account) limiter() *ratelimit.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rateLimiter
}

// AllowRequest checks if this account can make a request to the given endpoint.
func (a *Account) AllowRequest(endpoint string) bool {
	if rl := a.limiter(); rl != nil {
		return rl.Allow(endpoint)
	}
	return true
}

// MarkEndpointRateLimited marks an endpoint as rate-limited for this account.
func (a *Account) MarkEndpointRateLimited(endpoint string, until time.Time) {
	if rl := a.limiter(); rl != nil {
		rl.MarkRateLimited(endpoint, until)
	}
}

// IsEndpointRateLimited returns true if the endpoint is currently blocked.
func (a *Account) IsEndpointRateLimited(endpoint string) bool {
	if rl := a.limiter(); rl != nil {
		return rl.IsRateLimited(endpoint)
	}
	return false
}

// EndpointAvailableAt returns when this account will be available for the given endpoint.
func (a *Account) EndpointAvailableAt(endpoint string) time.Time {
	if rl := a.limiter(); rl != nil {
		return rl.AvailableAt(endpoint)
	}
	return time.Time{}
}

// proxyUsable reports whether the account's proxy is outside its backoff.
func (a *Account) proxyUsable(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return now.After(a.proxyBackoff)
}

func (a *Account) resetProxyFailures() {
	a.mu.Lock()
	a.proxyConsecFails = 0
	a.mu.Unlock()
}

// AssignBrowserProfile sets a browser profile based on index.
func AssignBrowserProfile(acc *Account, idx int) {
	p := stealth.BuiltinProfiles[idx%len(stealth.BuiltinProfiles)]
	acc.Profile = p
	acc.UserAgent = p.UserAgent
}

// ParseAccounts parses a comma-separated list of sessions.
// Format: "user:auth_token:ct0" or "user:auth_token:ct0:proxy_url". A bare
// "user" entry is kept so a saved session can be loaded for it later.
func ParseAccounts(raw string) []*Account {
	var accounts []*Account
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 4)
		if parts[0] == "" || len(parts) == 2 {
			slog.Warn("invalid account entry, skipping", slog.String("entry", parts[0]))
			continue
		}
		acc := &Account{
			Username: parts[0],
			active:   true,
		}
		if len(parts) >= 3 {
			acc.AuthToken = parts[1]
			acc.CT0 = parts[2]
			acc.ct0RefreshedAt = time.Now()
		}
		if len(parts) == 4 {
			acc.Proxy = parts[3]
		}
		AssignBrowserProfile(acc, len(accounts))
		accounts = append(accounts, acc)
	}
	return accounts
}

// GenerateCT0 generates a random 32-byte hex string for use as a ct0 CSRF token.
func GenerateCT0() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return strings.Repeat("0", 64)
	}
	return hex.EncodeToString(b)
}

// extractCT0FromHeaders parses ct0 value from a set-cookie response header.
func extractCT0FromHeaders(headers map[string]string) string {
	for _, part := range strings.Split(headers["set-cookie"], ";") {
		if val, ok := strings.CutPrefix(strings.TrimSpace(part), "ct0="); ok && val != "" {
			return val
		}
	}
	return ""
}

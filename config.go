package twitter

import (
	"fmt"
	"os"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/ratelimit"
	"github.com/anatolykoptev/go-twitter-paging/paginate"
	"gopkg.in/yaml.v3"
)

// ClientConfig holds all configuration for the Twitter client.
type ClientConfig struct {
	// Accounts is the list of pre-authenticated Twitter sessions to use.
	Accounts []*Account `yaml:"-"`

	// AccountList is the ParseAccounts form of Accounts, used by LoadConfig.
	AccountList string `yaml:"accounts"`

	// DefaultProxy is the proxy URL for accounts without per-account proxies.
	DefaultProxy string `yaml:"default_proxy"`

	// Transport replaces the stealth browser client for every request.
	// Nil means a stealth client is built per account.
	Transport Doer `yaml:"-"`

	// SessionTTL controls how long saved sessions are considered valid.
	SessionTTL time.Duration `yaml:"session_ttl"`

	// SessionDir overrides the default session persistence directory.
	// Default: ~/.go-twitter/sessions
	SessionDir string `yaml:"session_dir"`

	// AuthCooldown is the soft-deactivation duration for auth errors.
	AuthCooldown time.Duration `yaml:"auth_cooldown"`

	// BanCooldown is the soft-deactivation duration for locked accounts.
	BanCooldown time.Duration `yaml:"ban_cooldown"`

	// RateLimit configures per-account per-endpoint rate limiting.
	RateLimit ratelimit.Config `yaml:"-"`

	// MetricsHook is called on each API request for external metrics collection.
	// endpoint is the operation name, success and rateLimited indicate the outcome.
	MetricsHook func(endpoint string, success, rateLimited bool) `yaml:"-"`

	// ProxyBackoffInitial is the initial backoff for proxy failures.
	ProxyBackoffInitial time.Duration `yaml:"proxy_backoff_initial"`

	// ProxyBackoffMax is the maximum backoff for proxy failures.
	ProxyBackoffMax time.Duration `yaml:"proxy_backoff_max"`

	// DisableJitter skips the anti-fingerprint delay before each request.
	DisableJitter bool `yaml:"disable_jitter"`

	// DefaultPageSize is used by collection constructors for endpoints
	// without their own default count. It is capped at each endpoint's
	// maximum count.
	DefaultPageSize int `yaml:"page_size"`

	// MaxRetries caps retries of transient failures per page.
	MaxRetries int `yaml:"max_retries"`

	// MaxRateLimitWaits caps how many rate-limit resets one page fetch waits out.
	MaxRateLimitWaits int `yaml:"max_rate_limit_waits"`

	// MaxRateLimitWait surfaces rate limits that reset further away than this.
	MaxRateLimitWait time.Duration `yaml:"max_rate_limit_wait"`

	// RetryInitialWait and RetryMaxWait bound the transient retry backoff.
	RetryInitialWait time.Duration `yaml:"retry_initial_wait"`
	RetryMaxWait     time.Duration `yaml:"retry_max_wait"`

	// BreakerTimeout is how long an endpoint's circuit stays open.
	BreakerTimeout time.Duration `yaml:"breaker_timeout"`

	// BreakerInterval is the cyclic period after which closed-state counts reset.
	BreakerInterval time.Duration `yaml:"breaker_interval"`

	// BreakerMinRequests and BreakerFailureRatio decide when a circuit trips.
	BreakerMinRequests  uint32  `yaml:"breaker_min_requests"`
	BreakerFailureRatio float64 `yaml:"breaker_failure_ratio"`
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *ClientConfig) defaults() {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.AuthCooldown == 0 {
		cfg.AuthCooldown = 1 * time.Hour
	}
	if cfg.BanCooldown == 0 {
		cfg.BanCooldown = 6 * time.Hour
	}
	if cfg.RateLimit.RequestsPerWindow == 0 {
		cfg.RateLimit = ratelimit.DefaultConfig
	}
	if cfg.ProxyBackoffInitial == 0 {
		cfg.ProxyBackoffInitial = 30 * time.Second
	}
	if cfg.ProxyBackoffMax == 0 {
		cfg.ProxyBackoffMax = 30 * time.Minute
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = paginate.DefaultPageSize
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.MaxRateLimitWaits == 0 {
		cfg.MaxRateLimitWaits = 1
	}
	if cfg.MaxRateLimitWait == 0 {
		cfg.MaxRateLimitWait = 16 * time.Minute
	}
	if cfg.RetryInitialWait == 0 {
		cfg.RetryInitialWait = 1 * time.Second
	}
	if cfg.RetryMaxWait == 0 {
		cfg.RetryMaxWait = 30 * time.Second
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.BreakerInterval == 0 {
		cfg.BreakerInterval = 60 * time.Second
	}
	if cfg.BreakerMinRequests == 0 {
		cfg.BreakerMinRequests = 5
	}
	if cfg.BreakerFailureRatio == 0 {
		cfg.BreakerFailureRatio = 0.6
	}
}

// retryPolicy builds the paging retry policy from the retry knobs.
// Negative MaxRetries or MaxRateLimitWaits disable that kind of retry.
func (cfg *ClientConfig) retryPolicy() *paginate.BackoffPolicy {
	return &paginate.BackoffPolicy{
		MaxRetries:        max(cfg.MaxRetries, 0),
		MaxRateLimitWaits: max(cfg.MaxRateLimitWaits, 0),
		MaxRateLimitWait:  cfg.MaxRateLimitWait,
		Backoff: stealth.BackoffConfig{
			InitialWait: cfg.RetryInitialWait,
			MaxWait:     cfg.RetryMaxWait,
			Multiplier:  2.0,
			JitterPct:   0.3,
		},
	}
}

// LoadConfig reads a YAML config file. Accounts are given in the
// ParseAccounts format under the "accounts" key.
func LoadConfig(path string) (ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.AccountList != "" {
		cfg.Accounts = ParseAccounts(cfg.AccountList)
	}
	return cfg, nil
}

package paginate

// DefaultPageSize is used when a walker or timeline is created with a
// non-positive page size.
const DefaultPageSize = 20

// Option configures a CursorWalker or Timeline.
type Option func(*options)

type options struct {
	policy Policy
	sleep  SleepFunc
}

// WithPolicy sets the retry policy. The default is DefaultPolicy().
func WithPolicy(p Policy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithSleep replaces the function used to wait between retries.
func WithSleep(fn SleepFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		policy: DefaultPolicy(),
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func normalizePageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	return n
}

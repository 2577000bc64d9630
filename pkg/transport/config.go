// Package transport executes wire-ready requests against a destination,
// bounding concurrency, classifying retryable vs. fatal outcomes,
// enforcing a rate limit and a per-request timeout. It generalizes the
// retry loop gostatsd's Datadog backend implements ad hoc in
// Client.post into a reusable Service any sink's RequestBuilder output
// can be fed into.
package transport

import "time"

// ConcurrencyKind selects how a Service bounds in-flight requests.
type ConcurrencyKind int

const (
	// ConcurrencyNone means unbounded in-flight requests.
	ConcurrencyNone ConcurrencyKind = iota
	// ConcurrencyFixed maintains exactly N permits.
	ConcurrencyFixed
	// ConcurrencyAdaptive names an AIMD-controlled strategy. Service has
	// no AIMD controller: with this kind it applies no permit limit, the
	// same as ConcurrencyNone.
	ConcurrencyAdaptive
)

// Concurrency selects a concurrency strategy and, for ConcurrencyFixed,
// the permit count.
type Concurrency struct {
	Kind  ConcurrencyKind `mapstructure:"kind"`
	Fixed int             `mapstructure:"fixed"`
}

// Config mirrors spec.md's RequestConfig: the knobs governing how a
// Service executes the requests handed to it.
type Config struct {
	Concurrency      Concurrency   `mapstructure:"concurrency"`
	RetryAttempts    int           `mapstructure:"retry_attempts"`
	RetryMaxDuration time.Duration `mapstructure:"retry_max_duration"`
	RateLimitNum     int           `mapstructure:"rate_limit_num"`
	RateLimitPeriod  time.Duration `mapstructure:"rate_limit_period"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// DefaultConfig mirrors the teacher's defaultMaxRequestElapsedTime /
// defaultMaxRequests defaults, adapted to this package's Config shape.
func DefaultConfig() Config {
	return Config{
		Concurrency:      Concurrency{Kind: ConcurrencyFixed, Fixed: 2},
		RetryAttempts:    5,
		RetryMaxDuration: 15 * time.Second,
		RateLimitNum:     0, // unlimited
		RateLimitPeriod:  time.Second,
		Timeout:          30 * time.Second,
	}
}

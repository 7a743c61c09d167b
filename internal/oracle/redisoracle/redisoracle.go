// Package redisoracle answers permission checks against grant sets held in
// Redis, the shape external admin systems publish into: one set per
// identity, members are permission/group tokens. Grants appearing in Redis
// seconds after a player connects is the normal case, which is exactly what
// the caller's warm-up and revalidation machinery exists for.
package redisoracle

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var checkDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "tagd_permission_check_duration_ms",
	Help:    "Latency of redis permission checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const grantKeyPrefix = "perms:"

// Oracle is a Redis-backed permission oracle.
type Oracle struct {
	client  *redis.Client
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures the Oracle.
type Option func(*Oracle)

// WithLogger sets a logger for lookup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Oracle) {
		o.logger = logger
	}
}

// WithTimeout bounds each lookup. Checks run synchronously on hot paths, so
// the default is tight.
func WithTimeout(d time.Duration) Option {
	return func(o *Oracle) {
		o.timeout = d
	}
}

// New wraps a connected client.
func New(client *redis.Client, opts ...Option) *Oracle {
	o := &Oracle{
		client:  client,
		timeout: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HasPermission checks set membership for the token. Lookup failures answer
// false: a missing grant is the safe default, and the revalidation sweep
// retries every interval anyway.
func (o *Oracle) HasPermission(ctx context.Context, identity uint64, token string) bool {
	if token == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	ok, err := o.client.SIsMember(ctx, grantKey(identity), token).Result()
	checkDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)

	if err != nil {
		if o.logger != nil {
			o.logger.WarnContext(ctx, "permission lookup failed",
				"identity", identity,
				"token", token,
				"error", err,
			)
		}
		return false
	}
	return ok
}

func grantKey(identity uint64) string {
	return grantKeyPrefix + strconv.FormatUint(identity, 10)
}

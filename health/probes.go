package health

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Dependency names used as keys in OverallHealth.Services.
const (
	ComponentDatabase = "database"
	ComponentCache    = "cache"
)

// Cache probe parameters.
const (
	CacheProbeValue = "test_value"
	CacheProbeTTL   = 10 * time.Second
)

// DependencyPinger is the data-store capability the database probe needs.
type DependencyPinger interface {
	// Ping issues a lightweight liveness call to the data store.
	Ping(ctx context.Context) error

	// Name returns the logical database name.
	Name() string

	// ReadyState returns the numeric connection state
	// (0 disconnected, 1 connected, 2 connecting, 3 disconnecting).
	ReadyState() int
}

// CacheOperations is the cache capability the cache probe needs: the
// error-reporting variants of the cache facade operations.
type CacheOperations interface {
	TrySet(ctx context.Context, key string, value any, ttl time.Duration) error
	TryGet(ctx context.Context, key string) (any, error)
	TryHas(ctx context.Context, key string) (bool, error)
	TryDelete(ctx context.Context, key string) error
}

// DatabaseProbe pings the data store and reports latency and connection
// state.
type DatabaseProbe struct {
	db DependencyPinger
}

// NewDatabaseProbe creates a probe over db.
func NewDatabaseProbe(db DependencyPinger) *DatabaseProbe {
	return &DatabaseProbe{db: db}
}

// Name returns "database".
func (p *DatabaseProbe) Name() string {
	return ComponentDatabase
}

// Check pings the data store. Details always carry "database" and
// "readyState"; a failure adds "error" when the cause has a message.
func (p *DatabaseProbe) Check(ctx context.Context) Result {
	start := time.Now()
	err := p.db.Ping(ctx)
	elapsed := time.Since(start)

	details := map[string]any{
		"database":   p.db.Name(),
		"readyState": p.db.ReadyState(),
	}
	if err != nil {
		return Unhealthy(err, details).WithResponseTime(elapsed)
	}
	return Healthy(details).WithResponseTime(elapsed)
}

// CacheProbe writes, reads back, checks and deletes a disposable key.
type CacheProbe struct {
	cache CacheOperations
	now   func() time.Time
}

// NewCacheProbe creates a probe over cache.
func NewCacheProbe(cache CacheOperations) *CacheProbe {
	return &CacheProbe{cache: cache, now: time.Now}
}

// Name returns "cache".
func (p *CacheProbe) Name() string {
	return ComponentCache
}

// Check runs set, get, has and delete in order on one probe key, unique per
// call so concurrent checks never share it. It is
// healthy only if the value reads back exactly and has reports true. A
// failing call stops the sequence; later operations stay false.
func (p *CacheProbe) Check(ctx context.Context) Result {
	start := time.Now()
	key := fmt.Sprintf("health_check_%d_%s", p.now().UnixNano(), uuid.NewString())

	ops := map[string]bool{"set": false, "get": false, "has": false, "delete": false}
	details := map[string]any{"operations": ops}
	fail := func(err error) Result {
		return Unhealthy(err, details).WithResponseTime(time.Since(start))
	}

	if err := p.cache.TrySet(ctx, key, CacheProbeValue, CacheProbeTTL); err != nil {
		return fail(err)
	}
	ops["set"] = true

	got, err := p.cache.TryGet(ctx, key)
	if err != nil {
		return fail(err)
	}
	s, ok := got.(string)
	ops["get"] = ok && s == CacheProbeValue

	has, err := p.cache.TryHas(ctx, key)
	if err != nil {
		return fail(err)
	}
	ops["has"] = has

	if err := p.cache.TryDelete(ctx, key); err != nil {
		return fail(err)
	}
	ops["delete"] = true

	elapsed := time.Since(start)
	if !ops["get"] || !ops["has"] {
		r := Unhealthy(nil, details).WithResponseTime(elapsed)
		r.Error = ErrCacheMismatch
		return r
	}
	return Healthy(details).WithResponseTime(elapsed)
}

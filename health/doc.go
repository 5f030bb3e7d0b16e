// Package health aggregates dependency probes into liveness, readiness and
// health reports for orchestration platforms.
//
// # Core Concepts
//
// A Checker reports the health of one dependency as a Result. Status is
// binary: Healthy or Unhealthy. DatabaseProbe pings the data store and
// CacheProbe runs a set/get/has/delete round-trip through the cache facade.
// Neither ever panics. A failed call becomes StatusUnhealthy with its message
// under Details["error"]; a cache value that reads back wrong is unhealthy
// without one.
//
// # Aggregating Health Checks
//
// Aggregator runs every registered checker concurrently, each bounded by a
// per-probe timeout and guarded against panics, and folds the results:
//
//	agg := health.NewAggregator(health.AggregatorConfig{ProbeTimeout: 3 * time.Second})
//	agg.Register(health.ComponentDatabase, health.NewDatabaseProbe(db.Pinger))
//	agg.Register(health.ComponentCache, health.NewCacheProbe(facade))
//
//	overall := agg.GetOverallHealth(ctx) // healthy iff every service is healthy
//
// # HTTP Endpoints
//
// Routes serves the report under a chi router:
//
//	r.Mount("/health", health.Routes(health.NewEndpoints(agg)))
//
//	GET /health          200 or 503 with the full report
//	GET /health/live     always 200; never runs a probe
//	GET /health/ready    "ready" or "not ready"
//	GET /health/database single probe, always 200
//
// # Background Monitoring
//
// Monitor re-evaluates on an interval and reacts only to status transitions
// by updating StatusSinks and calling a TransitionPublisher.
package health

// Package resilience bounds and retries calls to external dependencies.
//
// Two patterns are provided:
//
//   - Timeout: runs an operation against a deadline. Health probes are
//     wrapped with it so an unresponsive data store or cache cannot hold a
//     health request open past the configured probe timeout.
//
//   - Retry: re-runs an operation with exponential backoff. The service
//     bootstrap uses it when opening the data store and cache connections.
//
// # Usage
//
//	to := resilience.NewTimeout(resilience.TimeoutConfig{Timeout: 3 * time.Second})
//	result, err := resilience.Call(ctx, to, func(ctx context.Context) health.Result {
//	    return probe.Check(ctx)
//	})
//
//	retry := resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 5})
//	err = retry.Execute(ctx, func(ctx context.Context) error {
//	    return client.Ping(ctx).Err()
//	})
package resilience

// Package resilience provides the waiting and limiting primitives used by the
// transport and the request pipeline.
//
// This package includes:
//   - Poll: re-issues a call at a fixed interval until it reports a terminal result
//   - Retry: retries transient failures with exponential backoff
//   - CircuitBreaker: fails fast while the remote side is unhealthy
//   - RateLimiter: token bucket limiting outgoing requests
//   - Bulkhead: caps concurrent in-flight requests
//
// Every wait goes through a Clock so tests can replace wall time:
//
//	v, attempts, err := resilience.Poll(ctx, resilience.PollConfig{Interval: time.Second},
//	    func(ctx context.Context, attempt int) (Job, bool, error) {
//	        job, err := fetch(ctx)
//	        return job, job.Done, err
//	    })
package resilience

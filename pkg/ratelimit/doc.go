// Package ratelimit provides request throttling for the follower fetcher.
//
// The Twitter API enforces per-endpoint budgets; the limiter keeps the
// paginated variant inside them instead of waiting to be told off with a 429.
//
// Available implementations:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//   - Default implementation
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - Smoother rate limiting over time
//
// All limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// The strategy is selected through configuration:
//
//	limiter := ratelimit.New("bucket", 60)
//	limiter.Wait()
//	// proceed with request
package ratelimit

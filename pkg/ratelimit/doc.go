// Package ratelimit provides rate limiting for external API calls.
//
// Two limiters are provided behind a common interface:
//
//   - TokenBucket paces scrape-provider API requests to a per-minute budget.
//   - FixedInterval spaces language-model calls with a blocking sleep, which
//     is how the pipeline honors the provider's requests-per-minute quota
//     without any concurrent requests in flight.
package ratelimit

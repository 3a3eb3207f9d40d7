// Package probe performs a bounded-retry HTTP readiness check.
//
// An Orchestrator calls a Requester up to a maximum number of attempts,
// sleeping between attempts with capped exponential backoff:
//
//	delay(n) = min(base * 2^(n-1), max)   // 500ms, 1s, 2s, 2s, ... by default
//
// Outcomes are handled asymmetrically:
//   - A completed exchange with a non-200 status is a Failure and is retried.
//   - A transport error (timeout, refused connection, undecodable body) aborts
//     the run immediately with an *AbortError, regardless of attempts left.
//
// Run reports a discriminated Result (succeeded or exhausted). Check is the
// fire-and-forget form: it returns nil both on success and on exhaustion and
// only surfaces aborts.
package probe

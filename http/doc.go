// Package http provides a small HTTP client used by the probe to perform a
// single outbound request per call.
//
// Timeouts
//   - Each call runs under its own deadline derived from Config.Timeout.
//   - The deadline timer is released on every exit path.
//
// Responses
//   - Any completed exchange is returned as a *Response, whatever its status.
//     Status interpretation is left to the caller.
//
// Errors
//   - Timeouts (context deadline exceeded or net.Error timeout) yield TimeoutError.
//   - Other transport failures, including a cancelled parent context, yield NetworkError.
//   - Invalid requests yield ValidationError before anything is sent.
//
// Retries are intentionally absent; the probe package owns the retry policy.
package http

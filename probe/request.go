package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	probehttp "github.com/gaborage/go-bricks-probe/http"
	"github.com/gaborage/go-bricks-probe/logger"
)

const (
	// DefaultURL is the endpoint probed when none is configured.
	DefaultURL = "http://localhost:8080"

	// DefaultAttemptTimeout bounds a single attempt.
	DefaultAttemptTimeout = 5 * time.Second
)

// OutcomeKind classifies a completed exchange.
type OutcomeKind int

const (
	// OutcomeFailure is any completed exchange whose status is not 200.
	OutcomeFailure OutcomeKind = iota
	// OutcomeSuccess is a 200 response with a JSON body.
	OutcomeSuccess
)

func (k OutcomeKind) String() string {
	if k == OutcomeSuccess {
		return "success"
	}
	return "failure"
}

// Outcome is the result of one completed HTTP exchange.
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int
	// Date is the "date" field of a successful response body.
	Date string
	// Body is the raw response payload, kept for diagnostics on failure.
	Body    []byte
	Elapsed time.Duration
}

// Requester performs one attempt. A returned error means the exchange did not
// complete and is treated as a transport error by the Orchestrator.
type Requester interface {
	Attempt(ctx context.Context) (Outcome, error)
}

// RequesterFunc adapts a function to the Requester interface.
type RequesterFunc func(ctx context.Context) (Outcome, error)

// Attempt calls f(ctx).
func (f RequesterFunc) Attempt(ctx context.Context) (Outcome, error) {
	return f(ctx)
}

// Transport error reasons.
const (
	ReasonTimeout = "timeout"
	ReasonNetwork = "network"
	ReasonDecode  = "decode"
)

// TransportError reports an attempt that produced no usable response.
type TransportError struct {
	Reason string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Reason, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the attempt hit its deadline.
func (e *TransportError) Timeout() bool {
	return e.Reason == ReasonTimeout
}

// errNullBody rejects a 200 whose body is the JSON literal null: it parses,
// but there is no document to read a date from.
var errNullBody = errors.New("response body is null")

// responseDate parses body as any JSON value and returns its top-level
// "date" member. Non-object documents and a missing member yield "".
// Non-string dates are returned as their JSON text.
func responseDate(body []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", err
	}

	switch v := doc.(type) {
	case nil:
		return "", errNullBody
	case map[string]any:
		switch date := v["date"].(type) {
		case nil:
			return "", nil
		case string:
			return date, nil
		default:
			raw, err := json.Marshal(date)
			if err != nil {
				return "", err
			}
			return string(raw), nil
		}
	default:
		return "", nil
	}
}

// TimedRequester issues a GET to a fixed URL through a deadline-bound client.
type TimedRequester struct {
	client probehttp.Client
	url    string
	logger logger.Logger
}

// NewTimedRequester creates a requester for url. The client's timeout is the
// per-attempt deadline; build it with probehttp.NewBuilder(...).WithTimeout.
func NewTimedRequester(client probehttp.Client, url string, log logger.Logger) *TimedRequester {
	if log == nil {
		log = logger.Nop()
	}
	if url == "" {
		url = DefaultURL
	}
	return &TimedRequester{client: client, url: url, logger: log}
}

// URL returns the probed endpoint.
func (r *TimedRequester) URL() string {
	return r.url
}

// Attempt performs a single GET. Any status other than 200 is returned as a
// Failure outcome rather than an error. A 200 succeeds when its body parses as
// JSON; an unparsable or null body is a decode TransportError.
func (r *TimedRequester) Attempt(ctx context.Context) (Outcome, error) {
	resp, err := r.client.Get(ctx, &probehttp.Request{URL: r.url})
	if err != nil {
		reason := ReasonNetwork
		if probehttp.IsErrorType(err, probehttp.TimeoutError) {
			reason = ReasonTimeout
		}
		return Outcome{}, &TransportError{Reason: reason, Err: err}
	}

	outcome := Outcome{
		Kind:       OutcomeFailure,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		Elapsed:    resp.Stats.ElapsedTime,
	}
	if resp.StatusCode != nethttp.StatusOK {
		return outcome, nil
	}

	date, err := responseDate(resp.Body)
	if err != nil {
		return Outcome{}, &TransportError{Reason: ReasonDecode, Err: fmt.Errorf("decode response body: %w", err)}
	}

	outcome.Kind = OutcomeSuccess
	outcome.Date = date
	r.logger.Info().Str("url", r.url).Str("date", date).Msg("request succeeded")
	return outcome, nil
}

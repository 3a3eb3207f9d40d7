package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-bricks-probe/logger"
	"github.com/gaborage/go-bricks-probe/probe/internal/tracking"
)

const tracerName = "go-bricks-probe/probe"

// Status is the terminal state of a run.
type Status int

const (
	// StatusSucceeded means an attempt returned 200 with a JSON body.
	StatusSucceeded Status = iota + 1
	// StatusExhausted means every attempt returned a non-200 status.
	StatusExhausted
	// StatusAborted means an attempt failed at the transport level.
	StatusAborted
	// StatusCanceled means the context ended during a backoff wait.
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusExhausted:
		return "exhausted"
	case StatusAborted:
		return "aborted"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result summarises a run.
type Result struct {
	Status   Status
	Attempts int
	// Last is the outcome of the final completed exchange, if any.
	Last Outcome
	// Delays lists the backoff waits taken, in order.
	Delays []time.Duration
}

// OK reports whether the run succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSucceeded
}

// ErrCanceled is returned when the run's context ends during a backoff wait.
var ErrCanceled = errors.New("probe canceled")

// ErrNilRequester is returned by Run when the Orchestrator has no Requester.
var ErrNilRequester = errors.New("probe requester is nil")

// AbortError is returned when an attempt fails at the transport level. The
// run stops at that attempt even if budget remains.
type AbortError struct {
	Attempt int
	Err     error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("probe aborted on attempt %d: %v", e.Attempt, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// Orchestrator runs attempts with capped exponential backoff.
type Orchestrator struct {
	requester   Requester
	sleeper     Sleeper
	logger      logger.Logger
	tracer      trace.Tracer
	metrics     *tracking.Metrics
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// Option configures an Orchestrator.
type Option func(o *Orchestrator)

// WithSleeper replaces the backoff wait implementation.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) {
		o.sleeper = s
	}
}

// WithMaxAttempts sets the attempt budget. Values below 1 become 1.
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		o.maxAttempts = n
	}
}

// WithBackoff sets the base and cap of the backoff sequence.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(o *Orchestrator) {
		o.baseDelay = base
		o.maxDelay = maxDelay
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithTracerProvider sets the provider for run and attempt spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) {
		if tp != nil {
			o.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithMeterProvider sets the provider for probe metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *Orchestrator) {
		o.metrics = tracking.New(mp)
	}
}

// New creates an Orchestrator around r with default policy: 4 attempts,
// 500ms base delay, 2s cap. r must be non-nil; Run reports ErrNilRequester
// otherwise.
func New(r Requester, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		requester:   r,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.maxAttempts < 1 {
		o.maxAttempts = 1
	}
	if o.logger == nil {
		o.logger = logger.Nop()
	}
	if o.sleeper == nil {
		o.sleeper = NewTimerSleeper(o.logger)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	if o.metrics == nil {
		o.metrics = tracking.New(nil)
	}
	return o
}

// MaxAttempts returns the attempt budget.
func (o *Orchestrator) MaxAttempts() int {
	return o.maxAttempts
}

// Check runs the probe and discards the result. It returns nil on success and
// on exhaustion; only aborts and cancellation produce an error.
func (o *Orchestrator) Check(ctx context.Context) error {
	_, err := o.Run(ctx)
	return err
}

// Run performs attempts until one succeeds, the budget is spent, or an
// attempt fails at the transport level. Exhaustion is reported through
// Result.Status with a nil error.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	if o.requester == nil {
		return Result{}, ErrNilRequester
	}

	log := o.logger.WithFields(map[string]any{"run_id": uuid.NewString()})

	ctx, span := o.tracer.Start(ctx, "probe.run",
		trace.WithAttributes(attribute.Int("probe.max_attempts", o.maxAttempts)))
	defer span.End()

	res, err := o.run(ctx, log)

	span.SetAttributes(
		attribute.String("probe.result", res.Status.String()),
		attribute.Int("probe.attempts", res.Attempts),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, res.Status.String())
	}
	o.metrics.RecordRun(ctx, res.Status.String())

	return res, err
}

func (o *Orchestrator) run(ctx context.Context, log logger.Logger) (Result, error) {
	var res Result

	for attempt := 1; ; attempt++ {
		delay := Backoff(attempt, o.baseDelay, o.maxDelay)
		res.Attempts = attempt

		outcome, err := o.attempt(ctx, attempt)
		if err != nil {
			res.Status = StatusAborted
			log.Error().Err(err).Int("attempt", attempt).Msg("probe aborted")
			return res, &AbortError{Attempt: attempt, Err: err}
		}
		res.Last = outcome

		if outcome.Kind == OutcomeSuccess {
			res.Status = StatusSucceeded
			log.Info().Int("attempt", attempt).Msg("probe succeeded")
			return res, nil
		}

		if attempt == 1 {
			log.Debug().Int("status", outcome.StatusCode).Msg("first attempt failed")
		}

		if attempt >= o.maxAttempts {
			res.Status = StatusExhausted
			log.Warn().
				Int("attempts", attempt).
				Int("status", outcome.StatusCode).
				Bytes("payload", outcome.Body).
				Msg("request failed")
			return res, nil
		}

		if err := o.sleeper.Sleep(ctx, delay); err != nil {
			res.Status = StatusCanceled
			log.Warn().Err(err).Int("attempt", attempt).Msg("probe canceled")
			return res, fmt.Errorf("%w after attempt %d: %w", ErrCanceled, attempt, err)
		}
		res.Delays = append(res.Delays, delay)
	}
}

func (o *Orchestrator) attempt(ctx context.Context, n int) (Outcome, error) {
	ctx, span := o.tracer.Start(ctx, "probe.attempt",
		trace.WithAttributes(attribute.Int("probe.attempt", n)))
	defer span.End()

	start := time.Now()
	outcome, err := o.requester.Attempt(ctx)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		o.metrics.RecordAttempt(ctx, tracking.OutcomeTransport, elapsed)
	case outcome.Kind == OutcomeSuccess:
		span.SetAttributes(attribute.Int("http.response.status_code", outcome.StatusCode))
		o.metrics.RecordAttempt(ctx, tracking.OutcomeSuccess, elapsed)
	default:
		span.SetAttributes(attribute.Int("http.response.status_code", outcome.StatusCode))
		o.metrics.RecordAttempt(ctx, tracking.OutcomeFailure, elapsed)
	}

	return outcome, err
}

package http

import (
	"context"
	"errors"
	"io"
	"net"
	nethttp "net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-bricks-probe/logger"
)

const (
	// DefaultTimeout is the default per-call deadline. It covers the response
	// body read as well as the exchange.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize int64 = 1 << 20
)

type client struct {
	httpClient *nethttp.Client
	logger     logger.Logger
	config     *Config
	callCount  int64
}

// Builder provides a fluent interface for configuring the client
type Builder struct {
	config *Config
	logger logger.Logger
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			Timeout:     DefaultTimeout,
			MaxBodySize: DefaultMaxBodySize,
		},
		logger: log,
	}
}

// WithTimeout sets the per-call deadline
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithMaxBodySize caps the response body. Larger bodies fail the call.
func (b *Builder) WithMaxBodySize(n int64) *Builder {
	b.config.MaxBodySize = n
	return b
}

// WithTransport replaces the underlying round tripper
func (b *Builder) WithTransport(rt nethttp.RoundTripper) *Builder {
	b.config.Transport = rt
	return b
}

// WithTelemetry wraps the transport with OpenTelemetry instrumentation.
// Nil providers fall back to the global ones.
func (b *Builder) WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) *Builder {
	b.config.TracerProvider = tp
	b.config.MeterProvider = mp
	return b
}

// Build creates the client with the configured options
func (b *Builder) Build() Client {
	if b.config.Timeout <= 0 {
		b.config.Timeout = DefaultTimeout
	}
	if b.config.MaxBodySize <= 0 {
		b.config.MaxBodySize = DefaultMaxBodySize
	}

	transport := b.config.Transport
	if transport == nil {
		transport = nethttp.DefaultTransport
	}
	if b.config.TracerProvider != nil || b.config.MeterProvider != nil {
		var opts []otelhttp.Option
		if b.config.TracerProvider != nil {
			opts = append(opts, otelhttp.WithTracerProvider(b.config.TracerProvider))
		}
		if b.config.MeterProvider != nil {
			opts = append(opts, otelhttp.WithMeterProvider(b.config.MeterProvider))
		}
		transport = otelhttp.NewTransport(transport, opts...)
	}

	log := b.logger
	if log == nil {
		log = logger.Nop()
	}

	return &client{
		httpClient: &nethttp.Client{Transport: transport},
		logger:     log,
		config:     b.config,
	}
}

// Get performs exactly one GET under the configured deadline. Any status is
// returned as a Response; only transport failures produce an error.
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := nethttp.NewRequestWithContext(callCtx, nethttp.MethodGet, req.URL, nethttp.NoBody)
	if err != nil {
		return nil, NewNetworkError("failed to create HTTP request", err)
	}
	c.logRequest(req)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classify(ctx, "request execution failed", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.config.MaxBodySize+1))
	if err != nil {
		return nil, c.classify(ctx, "failed to read response body", err)
	}
	if int64(len(body)) > c.config.MaxBodySize {
		return nil, NewNetworkError("failed to read response body", ErrBodyTooLarge)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Stats: Stats{
			ElapsedTime: time.Since(start),
			CallCount:   callCount,
		},
	}
	c.logResponse(resp)
	return resp, nil
}

// classify maps a transport failure onto the error taxonomy. A deadline hit
// by the parent context is reported as a network error, not a call timeout.
func (c *client) classify(parent context.Context, message string, err error) error {
	if parent.Err() == nil && isTimeout(err) {
		return NewTimeoutError(message, c.config.Timeout, err)
	}
	return NewNetworkError(message, err)
}

func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if req.URL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *client) logRequest(req *Request) {
	c.logger.Debug().
		Str("direction", "outbound").
		Str("method", nethttp.MethodGet).
		Str("url", req.URL).
		Dur("timeout", c.config.Timeout).
		Msg("probe client request")
}

func (c *client) logResponse(resp *Response) {
	c.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount).
		Msg("probe client response")
}

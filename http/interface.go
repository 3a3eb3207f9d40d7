package http

import (
	"context"
	nethttp "net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Client defines the HTTP client used for outbound probe calls. Each call is
// a single GET without custom headers.
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
}

// Request represents an outbound request
type Request struct {
	URL string
}

// Response represents a completed exchange with tracking information
type Response struct {
	StatusCode int
	Body       []byte
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
}

// Config holds the client configuration
type Config struct {
	Timeout        time.Duration
	MaxBodySize    int64
	Transport      nethttp.RoundTripper
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// EndpointStdout is a special endpoint value that writes telemetry to stdout.
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// EnvironmentDevelopment is the default environment name.
	EnvironmentDevelopment = "development"

	defaultBatchTimeout   = 500 * time.Millisecond
	defaultMetricInterval = 15 * time.Second
)

// Config defines how probe telemetry is exported.
type Config struct {
	// Enabled controls whether observability is active.
	// When false, all observability operations become no-ops.
	Enabled bool

	Service     ServiceConfig
	Environment string

	// Endpoint is "stdout" or an OTLP collector address. gRPC endpoints use
	// "host:port"; HTTP endpoints may also be given as "host:port".
	Endpoint string
	Protocol string
	Insecure bool
	Headers  map[string]string

	// SampleRate is the fraction of runs whose traces are kept, in [0.0, 1.0].
	SampleRate float64

	BatchTimeout   time.Duration
	MetricInterval time.Duration

	// Writer receives stdout exporter output. Nil means os.Stdout.
	Writer io.Writer
}

// ServiceConfig contains service identification metadata.
type ServiceConfig struct {
	Name    string
	Version string
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Service.Version == "" {
		c.Service.Version = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}
	if c.Endpoint == "" {
		c.Endpoint = EndpointStdout
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolHTTP
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = defaultBatchTimeout
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = defaultMetricInterval
	}
}

// Validate checks the configuration. A disabled config is always valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.Service.Name == "" {
		return ErrMissingServiceName
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return ErrInvalidSampleRate
	}
	if c.Endpoint == EndpointStdout {
		return nil
	}
	switch c.Protocol {
	case ProtocolHTTP:
		return nil
	case ProtocolGRPC:
		if strings.HasPrefix(c.Endpoint, "http://") || strings.HasPrefix(c.Endpoint, "https://") {
			return fmt.Errorf("grpc endpoint %q must be host:port: %w", c.Endpoint, ErrInvalidEndpointFormat)
		}
		return nil
	default:
		return fmt.Errorf("protocol '%s': %w", c.Protocol, ErrInvalidProtocol)
	}
}

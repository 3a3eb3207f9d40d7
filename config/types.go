package config

import "time"

// Config represents the probe configuration: the target endpoint, the retry
// policy, logging preferences and telemetry export settings.
type Config struct {
	Target        TargetConfig        `koanf:"target" json:"target" yaml:"target" mapstructure:"target"`
	Retry         RetryConfig         `koanf:"retry" json:"retry" yaml:"retry" mapstructure:"retry"`
	Log           LogConfig           `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability" mapstructure:"observability"`
}

// TargetConfig describes the endpoint being probed.
type TargetConfig struct {
	URL     string        `koanf:"url" json:"url" yaml:"url" mapstructure:"url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
}

// RetryConfig holds the bounded exponential backoff policy.
type RetryConfig struct {
	MaxAttempts int           `koanf:"maxattempts" json:"maxattempts" yaml:"maxattempts" mapstructure:"maxattempts" validate:"gte=1"`
	BaseDelay   time.Duration `koanf:"basedelay" json:"basedelay" yaml:"basedelay" mapstructure:"basedelay" validate:"gt=0"`
	MaxDelay    time.Duration `koanf:"maxdelay" json:"maxdelay" yaml:"maxdelay" mapstructure:"maxdelay" validate:"gtefield=BaseDelay"`

	// Strict makes exhaustion a failure for the process exit code.
	Strict bool `koanf:"strict" json:"strict" yaml:"strict" mapstructure:"strict"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`
}

// ObservabilityConfig holds OpenTelemetry export settings.
type ObservabilityConfig struct {
	Enabled     bool    `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Service     string  `koanf:"service" json:"service" yaml:"service" mapstructure:"service" validate:"required_if=Enabled true"`
	Version     string  `koanf:"version" json:"version" yaml:"version" mapstructure:"version"`
	Environment string  `koanf:"environment" json:"environment" yaml:"environment" mapstructure:"environment"`
	Endpoint    string  `koanf:"endpoint" json:"endpoint" yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Protocol    string  `koanf:"protocol" json:"protocol" yaml:"protocol" mapstructure:"protocol" validate:"omitempty,oneof=http grpc"`
	Insecure    bool    `koanf:"insecure" json:"insecure" yaml:"insecure" mapstructure:"insecure"`
	SampleRate  float64 `koanf:"samplerate" json:"samplerate" yaml:"samplerate" mapstructure:"samplerate" validate:"gte=0,lte=1"`

	// Headers are sent with every OTLP export, e.g. collector API keys.
	Headers map[string]string `koanf:"headers" json:"headers" yaml:"headers" mapstructure:"headers"`
}

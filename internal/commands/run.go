package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-bricks-probe/config"
	probehttp "github.com/gaborage/go-bricks-probe/http"
	"github.com/gaborage/go-bricks-probe/logger"
	"github.com/gaborage/go-bricks-probe/observability"
	"github.com/gaborage/go-bricks-probe/probe"
)

// RunOptions holds command-line overrides. Zero values defer to the config.
type RunOptions struct {
	ConfigFile  string
	URL         string
	MaxAttempts int
	Timeout     time.Duration
	Strict      bool
	LogLevel    string
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Probe the endpoint until it is ready or the budget is spent",
		Example: `  # Probe http://localhost:8080 with the default policy
  go-bricks-probe run

  # Probe a custom endpoint and fail the process if it never becomes ready
  go-bricks-probe run --url http://127.0.0.1:9000/health --strict`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProbe(cmd, opts)
		},
	}
	bindRunFlags(cmd, opts)

	return cmd
}

func bindRunFlags(cmd *cobra.Command, opts *RunOptions) {
	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", config.DefaultFile, "YAML configuration file (optional)")
	cmd.Flags().StringVarP(&opts.URL, "url", "u", "", "Endpoint to probe")
	cmd.Flags().IntVarP(&opts.MaxAttempts, "max-attempts", "n", 0, "Maximum number of attempts")
	cmd.Flags().DurationVarP(&opts.Timeout, "timeout", "t", 0, "Per-attempt timeout")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Exit non-zero when every attempt fails")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Log level (trace|debug|info|warn|error)")
}

func runProbe(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := config.LoadFile(opts.ConfigFile)
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, cfg, opts); err != nil {
		return err
	}

	log := logger.NewWithWriter(cmd.OutOrStdout(), cfg.Log.Level, cfg.Log.Pretty)

	provider, err := observability.NewProvider(&observability.Config{
		Enabled:     cfg.Observability.Enabled,
		Service:     observability.ServiceConfig{Name: cfg.Observability.Service, Version: cfg.Observability.Version},
		Environment: cfg.Observability.Environment,
		Endpoint:    cfg.Observability.Endpoint,
		Protocol:    cfg.Observability.Protocol,
		Insecure:    cfg.Observability.Insecure,
		SampleRate:  cfg.Observability.SampleRate,
		Headers:     cfg.Observability.Headers,
		Writer:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := observability.Shutdown(provider, observability.DefaultShutdownTimeout); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	builder := probehttp.NewBuilder(log).WithTimeout(cfg.Target.Timeout)
	if cfg.Observability.Enabled {
		builder = builder.WithTelemetry(provider.TracerProvider(), provider.MeterProvider())
	}
	requester := probe.NewTimedRequester(builder.Build(), cfg.Target.URL, log)

	orchestrator := probe.New(requester,
		probe.WithMaxAttempts(cfg.Retry.MaxAttempts),
		probe.WithBackoff(cfg.Retry.BaseDelay, cfg.Retry.MaxDelay),
		probe.WithLogger(log.WithFields(map[string]any{"url": cfg.Target.URL})),
		probe.WithTracerProvider(provider.TracerProvider()),
		probe.WithMeterProvider(provider.MeterProvider()),
	)

	res, err := orchestrator.Run(cmd.Context())
	if err != nil {
		return err
	}
	if res.Status == probe.StatusExhausted && cfg.Retry.Strict {
		return fmt.Errorf("%w after %d attempts (last status %d)", ErrExhausted, res.Attempts, res.Last.StatusCode)
	}
	return nil
}

// applyOverrides copies explicitly set flags onto cfg and revalidates it.
func applyOverrides(cmd *cobra.Command, cfg *config.Config, opts *RunOptions) error {
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.Target.URL = opts.URL
	}
	if flags.Changed("max-attempts") {
		cfg.Retry.MaxAttempts = opts.MaxAttempts
	}
	if flags.Changed("timeout") {
		cfg.Target.Timeout = opts.Timeout
	}
	if flags.Changed("strict") {
		cfg.Retry.Strict = opts.Strict
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.LogLevel
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// Package commands implements the go-bricks-probe command line.
package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitError     = 1
	ExitExhausted = 2
)

// ErrExhausted is returned in strict mode when every attempt failed.
var ErrExhausted = errors.New("endpoint did not become ready")

// NewRootCommand creates the root command. Invoked without a subcommand it
// runs the probe.
func NewRootCommand(version string) *cobra.Command {
	opts := &RunOptions{}

	rootCmd := &cobra.Command{
		Use:   "go-bricks-probe",
		Short: "Wait for an HTTP endpoint to report ready",
		Long: `Performs a bounded-retry readiness check against an HTTP endpoint.

Each attempt is a GET with its own deadline. Non-200 responses are retried
with exponential backoff (500ms, 1s, 2s, 2s, ...); transport errors abort
the check immediately.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProbe(cmd, opts)
		},
	}
	bindRunFlags(rootCmd, opts)

	rootCmd.AddCommand(
		NewRunCommand(),
		NewVersionCommand(version),
	)

	return rootCmd
}

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrExhausted):
		return ExitExhausted
	default:
		return ExitError
	}
}

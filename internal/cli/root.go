package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/yapycon/yapycon/internal/capability"
	"github.com/yapycon/yapycon/internal/config"
)

// RequestCheckIfDisabled is the sentinel request the host sends to ask
// whether the plugin can launch at all. It is answered through the process
// exit code, never by starting the console.
const RequestCheckIfDisabled = "CheckIfDisabled"

// ExitError carries an explicit process exit code out of command execution.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewRootCommand builds the yapycon command. The host invokes the plugin
// binary with exactly one argument: the request string.
func NewRootCommand(version string) *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "yapycon <request>",
		Short: "YaPyCon - interactive Python console bridge for YASARA",
		Long: `yapycon bridges an interactive console to a running YASARA instance.

It snapshots the host context handed over at plugin start, serves it to
follow-on processes over a local RPC port, starts the console kernel and
runs the interactive console until the user exits.

The request "CheckIfDisabled" runs the capability probe instead: the exit
code tells the host whether the console can launch on this machine.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if debug {
				cfg.Debug = true
			}

			logger := newLogger(cfg.Debug)
			request := args[0]

			if request == RequestCheckIfDisabled {
				return runProbe(cfg, logger, cmd.ErrOrStderr())
			}
			return runLaunch(cfg, request, logger)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the configuration file")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

// runProbe reports plugin availability via exit code, per the host's plugin
// protocol: 0 launchable, 1 disabled.
func runProbe(cfg *config.Config, logger hclog.Logger, errOut io.Writer) error {
	report := capability.Detect(capability.DetectConfig{
		KernelCommand: cfg.KernelCommand,
		RelayAddr:     cfg.RelayAddr(),
	})

	if report.Disabled() {
		logger.Debug("capability probe failed", "missing", report.Missing())
		if cfg.Debug {
			fmt.Fprintf(errOut, "yapycon disabled, missing: %s\n", strings.Join(report.Missing(), ", "))
		}
	}

	return &ExitError{Code: report.ExitCode()}
}

// Execute runs the root command and maps the outcome onto a process exit
// code for main.
func Execute(version string) int {
	cmd := NewRootCommand(version)
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

// newLogger builds the bridge logger. Quiet unless debugging: stdout belongs
// to the console itself, and the host captures it.
func newLogger(debug bool) hclog.Logger {
	level := hclog.Error
	output := io.Discard

	if debug {
		level = hclog.Debug
		output = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "yapycon",
		Level:  level,
		Output: output,
	})
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"

	"github.com/yapycon/yapycon/internal/config"
	"github.com/yapycon/yapycon/internal/console"
	"github.com/yapycon/yapycon/internal/hostctx"
	"github.com/yapycon/yapycon/internal/kernel"
	"github.com/yapycon/yapycon/internal/relay"
)

// kernelShutdownTimeout bounds how long teardown waits for the kernel after
// the console exits.
const kernelShutdownTimeout = 5 * time.Second

// runLaunch wires the whole bridge together and runs the console event loop
// on the main goroutine:
//
//  1. snapshot the host context;
//  2. start the kernel and write its connection file;
//  3. start the relay server on a background goroutine, serving the
//     finalized snapshot;
//  4. run the console until the user exits;
//  5. tear down in order: relay first, then the kernel.
func runLaunch(cfg *config.Config, request string, logger hclog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	snapshot := hostctx.FromEnvironment(request)

	km := kernel.NewManager(cfg.KernelCommand, logger)
	if err := km.Start(ctx); err != nil {
		return fmt.Errorf("failed to start kernel: %w", err)
	}

	info := kernel.NewConnectionInfo(cfg.RelayHost, cfg.RelayPort)
	connectionFile, err := km.WriteConnectionFile(cfg.ConnectionDir, info)
	if err != nil {
		shutdownKernel(km, logger)
		return fmt.Errorf("failed to write connection file: %w", err)
	}

	// The snapshot is finalized before the server starts; relay calls only
	// ever observe the complete record.
	snapshot = snapshot.WithConnectionFile(connectionFile)
	svc := relay.NewService(snapshot, os.Stdout)
	srv, err := relay.NewServer(svc, logger)
	if err != nil {
		shutdownKernel(km, logger)
		return fmt.Errorf("failed to build relay server: %w", err)
	}
	if err := srv.Start(cfg.RelayAddr()); err != nil {
		shutdownKernel(km, logger)
		return fmt.Errorf("failed to start relay server: %w", err)
	}

	logger.Debug("console bridge up",
		"relay", srv.Addr().String(),
		"connection_file", connectionFile,
		"request", request,
	)

	model := console.New(snapshot, km, km.Output())
	program := tea.NewProgram(model, tea.WithContext(ctx))
	_, runErr := program.Run()

	// Ordered teardown: the relay goes first so no console process can
	// observe a half-torn bridge, then the kernel.
	if err := srv.Close(); err != nil {
		logger.Error("failed to close relay server", "error", err)
	}
	shutdownKernel(km, logger)

	if runErr != nil {
		// Cancellation through a shutdown signal is a normal exit.
		if ctx.Err() != nil && (errors.Is(runErr, tea.ErrProgramKilled) || errors.Is(runErr, context.Canceled)) {
			return nil
		}
		return fmt.Errorf("console failed: %w", runErr)
	}
	return nil
}

func shutdownKernel(km *kernel.Manager, logger hclog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), kernelShutdownTimeout)
	defer cancel()

	if err := km.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down kernel", "error", err)
	}
}

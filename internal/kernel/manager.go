package kernel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// shutdownGrace is how long Shutdown waits for the kernel to exit on its own
// after stdin is closed, before killing it.
const shutdownGrace = 3 * time.Second

// Manager runs the console kernel as a child process and pumps its output.
// It plays the role the kernel manager plays in the original console stack:
// start the kernel, hand out its connection file, shut it down last.
type Manager struct {
	command []string
	logger  hclog.Logger

	mu             sync.Mutex
	cmd            *exec.Cmd
	stdin          io.WriteCloser
	running        bool
	connectionFile string

	output chan string
	done   chan struct{}
}

// NewManager creates a manager for the given kernel command line.
func NewManager(command []string, logger hclog.Logger) *Manager {
	return &Manager{
		command: command,
		logger:  logger,
		output:  make(chan string, 256),
		done:    make(chan struct{}),
	}
}

// Start launches the kernel process with stdin/stdout/stderr pipes and
// begins pumping output lines.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("kernel is already running")
	}
	if len(m.command) == 0 {
		return errors.New("no kernel command configured")
	}

	cmd := exec.CommandContext(ctx, m.command[0], m.command[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return fmt.Errorf("failed to start kernel %q: %w", m.command[0], err)
	}

	m.cmd = cmd
	m.stdin = stdin
	m.running = true

	m.logger.Debug("kernel started", "command", m.command, "pid", cmd.Process.Pid)

	var pumps sync.WaitGroup
	pumps.Add(2)
	go m.pump(stdout, &pumps)
	go m.pump(stderr, &pumps)

	go func() {
		pumps.Wait()
		err := cmd.Wait()

		m.mu.Lock()
		m.running = false
		m.mu.Unlock()

		if err != nil {
			m.logger.Debug("kernel exited", "error", err)
		}
		close(m.output)
		close(m.done)
	}()

	return nil
}

// pump forwards lines from one kernel stream onto the output channel.
func (m *Manager) pump(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case m.output <- scanner.Text():
		default:
			// Buffer full and nobody draining, which happens once the
			// console has exited. Drop the line instead of blocking, or a
			// chatty kernel would keep the pumps alive and wedge Shutdown.
		}
	}
}

// Output streams the kernel's stdout and stderr lines. The channel closes
// when the kernel exits.
func (m *Manager) Output() <-chan string {
	return m.output
}

// Done is closed once the kernel process has exited.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// IsRunning reports whether the kernel process is alive.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// SendInput writes one input line to the kernel's stdin.
func (m *Manager) SendInput(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return errors.New("kernel is not running")
	}
	_, err := io.WriteString(m.stdin, line+"\n")
	return err
}

// WriteConnectionFile writes the connection metadata into dir and remembers
// the path for cleanup.
func (m *Manager) WriteConnectionFile(dir string, info ConnectionInfo) (string, error) {
	path, err := info.WriteFile(dir)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.connectionFile = path
	m.mu.Unlock()
	return path, nil
}

// ConnectionFile returns the path written by WriteConnectionFile, or "".
func (m *Manager) ConnectionFile() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectionFile
}

// Shutdown closes the kernel's stdin, waits briefly for a clean exit and
// kills the process if it lingers. The connection file is removed so stale
// metadata never outlives the bridge.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	stdin := m.stdin
	cmd := m.cmd
	connectionFile := m.connectionFile
	running := m.running
	m.mu.Unlock()

	if connectionFile != "" {
		defer os.Remove(connectionFile)
	}
	if cmd == nil || !running {
		return nil
	}

	if stdin != nil {
		stdin.Close()
	}

	grace := time.NewTimer(shutdownGrace)
	defer grace.Stop()

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
	case <-grace.C:
	}

	m.logger.Debug("kernel did not exit in time, killing", "pid", cmd.Process.Pid)
	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to kill kernel: %w", err)
	}
	<-m.done
	return nil
}

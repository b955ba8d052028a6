package capability

import (
	"fmt"
	"net"
	"os"
	"os/exec"

	"github.com/mattn/go-isatty"
)

// Exit codes the host interprets when the plugin is launched with the
// CheckIfDisabled request.
const (
	ExitEnabled  = 0
	ExitDisabled = 1
)

// Names of the three runtime capabilities the console bridge needs. They
// correspond to the console front-end, the kernel backend and the RPC relay
// transport.
const (
	NameConsole = "console"
	NameKernel  = "kernel"
	NameRelay   = "relay"
)

// Capability records the presence of one runtime prerequisite. Detection
// failures are recorded here as flags, never surfaced as errors: a missing
// capability makes the plugin report itself unavailable, it does not crash it.
type Capability struct {
	Name      string
	Available bool
	Detail    string
}

// Report aggregates the three capability checks.
type Report struct {
	Console Capability
	Kernel  Capability
	Relay   Capability
}

// NewReport builds a report from three already-performed checks.
func NewReport(console, kernel, relay Capability) Report {
	return Report{Console: console, Kernel: kernel, Relay: relay}
}

// Disabled reports whether the plugin must declare itself unavailable to the
// host. True exactly when at least one capability is missing.
func (r Report) Disabled() bool {
	return !r.Console.Available || !r.Kernel.Available || !r.Relay.Available
}

// ExitCode maps the report onto the exit code the host expects from the
// CheckIfDisabled probe.
func (r Report) ExitCode() int {
	if r.Disabled() {
		return ExitDisabled
	}
	return ExitEnabled
}

// Missing lists the names of unavailable capabilities.
func (r Report) Missing() []string {
	var missing []string
	for _, c := range []Capability{r.Console, r.Kernel, r.Relay} {
		if !c.Available {
			missing = append(missing, c.Name)
		}
	}
	return missing
}

// DetectConfig carries the inputs the live checks need.
type DetectConfig struct {
	// KernelCommand is the kernel executable plus arguments; only the
	// executable is resolved during detection.
	KernelCommand []string

	// RelayAddr is the loopback address the relay would bind. Detection
	// binds and immediately releases it.
	RelayAddr string
}

// Detect performs the three live checks: an interactive terminal for the
// console front-end, a resolvable kernel executable, and a bindable loopback
// address for the relay.
func Detect(cfg DetectConfig) Report {
	return NewReport(detectConsole(), detectKernel(cfg.KernelCommand), detectRelay(cfg.RelayAddr))
}

func detectConsole() Capability {
	c := Capability{Name: NameConsole}
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		c.Available = true
		return c
	}
	c.Detail = "stdout is not an interactive terminal"
	return c
}

func detectKernel(command []string) Capability {
	c := Capability{Name: NameKernel}
	if len(command) == 0 {
		c.Detail = "no kernel command configured"
		return c
	}
	path, err := exec.LookPath(command[0])
	if err != nil {
		c.Detail = fmt.Sprintf("kernel executable %q not found", command[0])
		return c
	}
	c.Available = true
	c.Detail = path
	return c
}

func detectRelay(addr string) Capability {
	c := Capability{Name: NameRelay}
	if addr == "" {
		c.Detail = "no relay address configured"
		return c
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		c.Detail = fmt.Sprintf("cannot bind %s: %v", addr, err)
		return c
	}
	ln.Close()
	c.Available = true
	return c
}

package relay

import (
	"io"
	"sync"

	"github.com/yapycon/yapycon/internal/hostctx"
)

// ContextRelay is the bridge between the plugin process context and the
// console processes that attach to it. Every getter returns a single field
// captured at construction time; StdoutRelay forwards console output back to
// the plugin process's output stream.
type ContextRelay interface {
	Plugin() string
	Request() string
	OpSys() string
	Version() string
	SerialNumber() int64
	Stage() string
	Owner() string
	Permissions() string
	WorkDir() string
	Selection() []string
	Com() string
	ConnectionInfo() string

	StdoutRelay(payload string) error
}

// Service implements ContextRelay over a host context snapshot and an output
// writer, both captured at construction. The snapshot is written once before
// the server starts and read-only afterwards, so the getters need no locking.
type Service struct {
	snapshot *hostctx.Snapshot

	// mu serializes writes: several console processes may relay output
	// through the same service concurrently.
	mu  sync.Mutex
	out io.Writer
}

// NewService creates the relay service. All follow-on processes share this
// one instance, so they all observe the same snapshot.
func NewService(snapshot *hostctx.Snapshot, out io.Writer) *Service {
	return &Service{snapshot: snapshot, out: out}
}

func (s *Service) Plugin() string         { return s.snapshot.Plugin() }
func (s *Service) Request() string        { return s.snapshot.Request() }
func (s *Service) OpSys() string          { return s.snapshot.OpSys() }
func (s *Service) Version() string        { return s.snapshot.Version() }
func (s *Service) SerialNumber() int64    { return s.snapshot.SerialNumber() }
func (s *Service) Stage() string          { return s.snapshot.Stage() }
func (s *Service) Owner() string          { return s.snapshot.Owner() }
func (s *Service) Permissions() string    { return s.snapshot.Permissions() }
func (s *Service) WorkDir() string        { return s.snapshot.WorkDir() }
func (s *Service) Selection() []string    { return s.snapshot.Selection() }
func (s *Service) Com() string            { return s.snapshot.Com() }
func (s *Service) ConnectionInfo() string { return s.snapshot.ConnectionFile() }

// StdoutRelay writes the payload to the captured output stream.
func (s *Service) StdoutRelay(payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.out, payload); err != nil {
		return err
	}
	if f, ok := s.out.(interface{ Sync() error }); ok {
		// Flush so the host sees console output as it arrives, not on exit.
		_ = f.Sync()
	}
	return nil
}

package relay

import (
	"errors"
	"net"
	"net/rpc"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Server runs the relay's blocking accept loop on a background goroutine,
// the threaded-server arrangement the console bridge has always used: the
// main goroutine stays free for the console event loop, and Close unblocks
// the loop during the ordered shutdown.
type Server struct {
	svc    ContextRelay
	logger hclog.Logger
	rpc    *rpc.Server

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	loopDone chan struct{}
}

// NewServer wires a ContextRelay into a dedicated net/rpc server. The service
// instance, not a per-connection copy, is registered: every console process
// that attaches shares the same snapshot.
func NewServer(svc ContextRelay, logger hclog.Logger) (*Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName(rpcServiceName, &RelayRPCServer{Impl: svc}); err != nil {
		return nil, err
	}
	return &Server{svc: svc, logger: logger, rpc: srv}, nil
}

// Start binds addr and launches the accept loop. It returns once the
// listener is up; the loop itself runs until Close.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("relay server already started")
	}
	if s.closed {
		return errors.New("relay server is closed")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.loopDone = make(chan struct{})

	s.logger.Debug("context relay listening", "addr", ln.Addr().String())

	go s.acceptLoop(ln)
	return nil
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer close(s.loopDone)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return
			}
			s.logger.Error("relay accept failed", "error", err)
			return
		}
		go s.rpc.ServeConn(conn)
	}
}

// Addr returns the bound address, or nil before Start. Lets tests and the
// connection file use an ephemeral port.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close shuts the listener, which unblocks the accept loop. Idempotent;
// in-flight calls on already-accepted connections are left to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.listener
	done := s.loopDone
	s.mu.Unlock()

	if ln == nil {
		return nil
	}
	err := ln.Close()
	<-done
	s.logger.Debug("context relay stopped")
	return err
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

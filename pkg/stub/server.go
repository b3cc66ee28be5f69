package stub

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/getstubd/stubd/pkg/logging"
	"github.com/getstubd/stubd/pkg/requestlog"
)

// State is the lifecycle state of a Server.
type State int

// Server lifecycle states.
const (
	StateStopped State = iota
	StateStarting
	StateListening
	StateStopping
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// ErrAlreadyStarted is returned by Start when the server is not stopped.
var ErrAlreadyStarted = errors.New("server already started")

// ServerConfig configures a single-protocol Server.
type ServerConfig struct {
	// Host is the bind host. Empty binds all interfaces.
	Host string

	// Port is the bind port. 0 picks a free port; the chosen one is
	// available from Addr after Start.
	Port int

	// TLS switches the listener to HTTPS when non-nil.
	TLS *tls.Config
}

// Server is one stub server instance: a single listener (plaintext or TLS,
// decided at construction by the presence of TLS material), its own handler
// table, and its own set of tracked connections.
type Server struct {
	cfg      ServerConfig
	log      *slog.Logger
	requests requestlog.Store
	table    *handlerTable
	tracker  *connTracker

	mu         sync.Mutex
	state      State
	listener   net.Listener
	httpServer *http.Server
	serveDone  chan struct{}
}

// settings are the options shared by NewServer and the facade's New.
type settings struct {
	log      *slog.Logger
	requests requestlog.Store
}

// Option is a functional option for configuring a Server or a Stub.
type Option func(*settings)

// WithLogger sets the operational logger. Defaults to a no-op logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *settings) {
		if log != nil {
			o.log = log
		}
	}
}

// WithRequestLog sets the store that records every served request.
func WithRequestLog(store requestlog.Store) Option {
	return func(o *settings) {
		o.requests = store
	}
}

func applyOptions(opts []Option) settings {
	o := settings{log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewServer creates a stopped Server with an empty handler table.
func NewServer(cfg ServerConfig, opts ...Option) *Server {
	o := applyOptions(opts)
	return &Server{
		cfg:      cfg,
		log:      o.log,
		requests: o.requests,
		table:    newHandlerTable(),
		tracker:  newConnTracker(),
	}
}

// Register appends a handler to the table, applying defaults to absent
// fields, and returns the server to allow chained registration.
func (s *Server) Register(h Handler) *Server {
	s.table.add(h)
	return s
}

// HandlerCount returns the number of registered handlers.
func (s *Server) HandlerCount() int {
	return s.table.size()
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr returns the bound listener address, or nil when not listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL returns the base URL of the listening server ("" when stopped).
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == nil {
		return ""
	}
	scheme := "http"
	if s.cfg.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + addr.String()
}

// Start binds the listener and begins accepting connections. It returns
// only once the socket is actively accepting; a bind failure is returned
// as-is with no retry.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return ErrAlreadyStarted
	}
	s.state = StateStarting

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.state = StateStopped
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	if s.cfg.TLS != nil {
		ln = tls.NewListener(ln, s.cfg.TLS)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:   s,
		ConnState: s.tracker.hook(),
	}
	done := make(chan struct{})
	s.serveDone = done

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.Error("serve loop ended", "error", err)
		}
		close(done)
	}(s.httpServer)

	s.state = StateListening
	s.log.Info("listening", "addr", ln.Addr().String(), "tls", s.cfg.TLS != nil)
	return nil
}

// Stop shuts the server down: the listener is closed first (refusing new
// connections), then the handler table is cleared, then every still-tracked
// connection is force-closed. Stop returns only after all forced closures
// have themselves been reported closed, or when ctx expires. When the
// server was never started (or already stopped) it returns immediately.
// Response bytes an abandoned connection had not yet written are dropped.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateListening {
		return nil
	}
	s.state = StateStopping

	_ = s.listener.Close()
	<-s.serveDone

	s.table.reset()

	err := s.tracker.drain(ctx)

	s.listener = nil
	s.httpServer = nil
	s.serveDone = nil
	s.state = StateStopped

	if err != nil {
		return fmt.Errorf("drain connections: %w", err)
	}
	s.log.Info("stopped")
	return nil
}

// ConnectionCount returns the number of live tracked connections.
func (s *Server) ConnectionCount() int {
	return s.tracker.count()
}

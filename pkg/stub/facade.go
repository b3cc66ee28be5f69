package stub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getstubd/stubd/pkg/requestlog"
	stubtls "github.com/getstubd/stubd/pkg/tls"
)

// ListenerConfig configures one side of a Stub.
type ListenerConfig struct {
	// Port is the bind port. 0 picks a free port.
	Port int
}

// Config configures a Stub. A nil HTTP or HTTPS disables that side
// entirely; the disabled side becomes a no-op that completes registration
// and lifecycle calls immediately and records nothing.
type Config struct {
	// Host is the bind host for both sides.
	Host string

	// HTTP configures the plaintext side.
	HTTP *ListenerConfig

	// HTTPS configures the TLS side.
	HTTPS *ListenerConfig

	// TLS is the certificate material for the HTTPS side. When HTTPS is
	// enabled and TLS is nil, throwaway self-signed material is generated.
	TLS *stubtls.Material

	// MaxLogEntries bounds the shared request log. 0 uses the default.
	MaxLogEntries int
}

// endpoint is one side of the facade: a real server or the no-op stand-in
// for an absent side.
type endpoint interface {
	register(h Handler)
	start() error
	stop(ctx context.Context) error
	server() *Server
}

type serverEndpoint struct{ srv *Server }

func (e serverEndpoint) register(h Handler)             { e.srv.Register(h) }
func (e serverEndpoint) start() error                   { return e.srv.Start() }
func (e serverEndpoint) stop(ctx context.Context) error { return e.srv.Stop(ctx) }
func (e serverEndpoint) server() *Server                { return e.srv }

type noopEndpoint struct{}

func (noopEndpoint) register(Handler)           {}
func (noopEndpoint) start() error               { return nil }
func (noopEndpoint) stop(context.Context) error { return nil }
func (noopEndpoint) server() *Server            { return nil }

// Stub composes an HTTP and an HTTPS stub server behind one registration
// and lifecycle API. Registration fans out to both sides; start and stop
// run the HTTP side first, then the HTTPS side, each step's completion
// gating the next. The two server instances share no handler or connection
// state, only the request log.
type Stub struct {
	log       *slog.Logger
	requests  requestlog.Store
	material  *stubtls.Material
	httpSide  endpoint
	httpsSide endpoint
}

// New creates a Stub from cfg. HTTPS material is loaded from cfg.TLS or
// generated self-signed when absent.
func New(cfg Config, opts ...Option) (*Stub, error) {
	o := applyOptions(opts)
	if o.requests == nil {
		o.requests = requestlog.NewMemoryStore(cfg.MaxLogEntries)
	}

	s := &Stub{
		log:       o.log,
		requests:  o.requests,
		httpSide:  noopEndpoint{},
		httpsSide: noopEndpoint{},
	}
	serverOpts := []Option{WithLogger(o.log), WithRequestLog(o.requests)}

	if cfg.HTTP != nil {
		srv := NewServer(ServerConfig{
			Host: cfg.Host,
			Port: cfg.HTTP.Port,
		}, serverOpts...)
		s.httpSide = serverEndpoint{srv: srv}
	}

	if cfg.HTTPS != nil {
		material := cfg.TLS
		if material == nil {
			var err error
			material, err = stubtls.GenerateSelfSigned(cfg.Host)
			if err != nil {
				return nil, fmt.Errorf("generate TLS material: %w", err)
			}
		}
		tlsCfg, err := material.ServerConfig()
		if err != nil {
			return nil, fmt.Errorf("build TLS config: %w", err)
		}
		s.material = material
		srv := NewServer(ServerConfig{
			Host: cfg.Host,
			Port: cfg.HTTPS.Port,
			TLS:  tlsCfg,
		}, serverOpts...)
		s.httpsSide = serverEndpoint{srv: srv}
	}

	return s, nil
}

// Register registers the handler on both sides and returns the Stub to
// allow chained registration.
func (s *Stub) Register(h Handler) *Stub {
	s.httpSide.register(h)
	s.httpsSide.register(h)
	return s
}

// Start starts the HTTP side, then the HTTPS side. It returns once both
// are accepting. If the HTTPS side fails to start, the already-started
// HTTP side is stopped again.
func (s *Stub) Start() error {
	if err := s.httpSide.start(); err != nil {
		return err
	}
	if err := s.httpsSide.start(); err != nil {
		_ = s.httpSide.stop(context.Background())
		return err
	}
	return nil
}

// Stop stops the HTTP side, then the HTTPS side, returning only after both
// have fully drained. Stopping a Stub that was never started completes
// immediately.
func (s *Stub) Stop(ctx context.Context) error {
	httpErr := s.httpSide.stop(ctx)
	httpsErr := s.httpsSide.stop(ctx)
	if httpErr != nil {
		return httpErr
	}
	return httpsErr
}

// HTTPServer returns the HTTP-side server, or nil when that side is absent.
func (s *Stub) HTTPServer() *Server { return s.httpSide.server() }

// HTTPSServer returns the HTTPS-side server, or nil when that side is absent.
func (s *Stub) HTTPSServer() *Server { return s.httpsSide.server() }

// HTTPURL returns the base URL of the HTTP side ("" when absent or stopped).
func (s *Stub) HTTPURL() string {
	if srv := s.httpSide.server(); srv != nil {
		return srv.URL()
	}
	return ""
}

// HTTPSURL returns the base URL of the HTTPS side ("" when absent or stopped).
func (s *Stub) HTTPSURL() string {
	if srv := s.httpsSide.server(); srv != nil {
		return srv.URL()
	}
	return ""
}

// TLSMaterial returns the certificate material of the HTTPS side, or nil.
// Test clients use it to trust a self-signed server.
func (s *Stub) TLSMaterial() *stubtls.Material { return s.material }

// Requests returns the shared request log.
func (s *Stub) Requests() requestlog.Store { return s.requests }

// Package server implements the acceptor/dispatcher (spec §4.9): a
// bounded worker pool fed from any stream.Iterator, with three dispatch
// modes (serve, serve_single_thread, make_service).
package server

import (
	"context"
	"net"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/shockwave-labs/httpcore/conn"
	"github.com/shockwave-labs/httpcore/internal/metrics"
	"github.com/shockwave-labs/httpcore/stream"
)

// DefaultMaxThreads matches the original source's ServerBuilder default
// ("max_threads: 512").
const DefaultMaxThreads = 512

// Config is the builder surface spec §6 calls for: no env vars, no CLI.
type Config struct {
	MaxThreads int
	ConnConfig conn.Config

	// Logger reports connections dropped by a MakeService hook and
	// errors that end a connection loop. An error from the stream
	// iterator is not logged; it ends the accept loop and is returned.
	// Nil-safe: falls back to a no-op logger.
	Logger *zap.Logger

	// Metrics, when non-nil, receives acceptor/connection counters.
	Metrics *metrics.Registry
}

// DefaultConfig returns the spec's default bounded pool size and no read
// timeout.
func DefaultConfig() Config {
	return Config{MaxThreads: DefaultMaxThreads, ConnConfig: conn.DefaultConfig()}
}

// Server wraps a stream.Iterator plus a bounded worker pool.
type Server struct {
	incoming stream.Iterator
	cfg      Config
	sem      *semaphore.Weighted
	logger   *zap.Logger
	metrics  *metrics.Registry
}

// New builds a Server over incoming with cfg. A zero-value cfg.MaxThreads
// falls back to DefaultMaxThreads.
func New(incoming stream.Iterator, cfg Config) *Server {
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = DefaultMaxThreads
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		incoming: incoming,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxThreads)),
		logger:   logger,
		metrics:  cfg.Metrics, // nil is valid: every Registry method no-ops on a nil receiver
	}
}

// Bind is a convenience constructor over a TCP listener, matching the
// original source's Server::bind.
func Bind(addr string, cfg Config) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(stream.NewTCPAcceptor(l), cfg), nil
}

// HandlerFactory builds a per-connection conn.Handler from the accepted
// stream, used by MakeService. Returning an error drops the connection
// without serving it (spec §4.9: make_service(hook)).
type HandlerFactory func(s stream.Stream) (conn.Handler, error)

// Serve submits a worker-pool task per connection that runs the
// connection loop, blocking the accept loop whenever the pool is at
// capacity (spec §4.9: "serve(handler)"). Every connection uses the same
// handler value; it is not copied per connection, so its methods run
// concurrently from several workers.
func (s *Server) Serve(handler conn.Handler) error {
	return s.run(func(st stream.Stream) (conn.Handler, error) { return handler, nil })
}

// MakeService calls hook synchronously for every accepted connection; on
// success it submits a connection-loop task with the returned handler,
// on error it drops the connection (spec §4.9: "make_service(hook)").
func (s *Server) MakeService(hook HandlerFactory) error {
	return s.run(hook)
}

// ServeSingleThread runs the connection loop inline on the accept
// goroutine instead of submitting to the pool — for handlers that are
// not safe to run concurrently, or callers who want to delegate to their
// own scheduler (spec §4.9: "serve_single_thread(handler)").
func (s *Server) ServeSingleThread(handler conn.Handler) error {
	for {
		st, err := s.incoming.Next()
		if err != nil {
			return err
		}
		s.serveOne(st, handler)
	}
}

func (s *Server) run(hook HandlerFactory) error {
	ctx := context.Background()
	for {
		st, err := s.incoming.Next()
		if err != nil {
			return err
		}

		handler, err := hook(st)
		if err != nil {
			s.logger.Debug("dropping connection: hook rejected it", zap.Error(err))
			st.Close()
			continue
		}

		if err := s.sem.Acquire(ctx, 1); err != nil {
			st.Close()
			return err
		}
		s.metrics.ConnectionAccepted()

		go func() {
			defer s.sem.Release(1)
			defer s.metrics.ConnectionClosed()
			s.serveOne(st, handler)
		}()
	}
}

func (s *Server) serveOne(st stream.Stream, handler conn.Handler) {
	defer st.Close()
	if s.cfg.ConnConfig.ReadTimeout > 0 {
		st.SetReadTimeout(s.cfg.ConnConfig.ReadTimeout)
	}
	connCfg := s.cfg.ConnConfig
	connCfg.OnRequestServed = s.metrics.RequestServed
	c := conn.New(st, connCfg, handler)
	if err := c.Serve(); err != nil {
		s.logger.Debug("connection ended", zap.Error(err))
	}
}

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/arloliu/go-comms/frame"
	"github.com/arloliu/go-comms/message"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrServerClosed is returned by Serve after its context is done.
var ErrServerClosed = errors.New("transport: server closed")

// Server accepts TCP connections and runs each one in its own goroutine with its own
// stream and dispatcher.
type Server struct {
	frame      *frame.Frame
	newHandler DispatcherFactory
	cfg        *config
	metrics    Metrics
	conns      *xsync.MapOf[*Conn, struct{}]
	wg         sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a TCP server decoding f. factory creates the dispatcher of every
// accepted connection.
func NewServer(f *frame.Frame, factory DispatcherFactory, opts ...Option) (*Server, error) {
	if f == nil || factory == nil {
		return nil, errors.New("transport: nil frame or dispatcher factory")
	}

	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Server{
		frame:      f,
		newHandler: factory,
		cfg:        cfg,
		conns:      xsync.NewMapOf[*Conn, struct{}](),
	}, nil
}

// Metrics returns the server counters.
func (s *Server) Metrics() *Metrics { return &s.metrics }

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// ListenAndServe listens on the TCP address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", address, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. It closes ln and every open
// connection before returning ErrServerClosed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	s.cfg.logger.Info("server listening", "address", ln.Addr().String(), "frame", s.frame.String())

	var acceptErr error
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				acceptErr = fmt.Errorf("accept: %w", err)
				s.cfg.logger.Error("failed to accept connection", "error", err)
			}

			break
		}

		conn := newConn(s.frame, nc, netWriter{conn: nc}, nc.RemoteAddr(), s.cfg, &s.metrics)
		s.conns.Store(conn, struct{}{})
		s.metrics.connOpened()

		s.wg.Add(1)
		go s.serveConn(ctx, conn, nc)
	}

	_ = ln.Close()
	s.closeAll()
	s.wg.Wait()

	if acceptErr != nil {
		return acceptErr
	}

	return ErrServerClosed
}

func (s *Server) serveConn(ctx context.Context, conn *Conn, nc net.Conn) {
	defer s.wg.Done()

	logger := s.cfg.logger.With("remote_address", nc.RemoteAddr().String())
	logger.Debug("connection accepted")

	defer func() {
		s.conns.Delete(conn)
		_ = conn.Close()
		s.metrics.connClosed()
		logger.Debug("connection closed")
	}()

	if err := conn.Run(ctx, s.newHandler(conn)); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("connection read failed", "error", err)
	}
}

// Broadcast sends msg to every open connection and joins the send errors.
func (s *Server) Broadcast(msg message.Message) error {
	var errs []error
	s.conns.Range(func(conn *Conn, _ struct{}) bool {
		if err := conn.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("send to %v: %w", conn.RemoteAddr(), err))
		}

		return true
	})

	return errors.Join(errs...)
}

func (s *Server) closeAll() {
	s.conns.Range(func(conn *Conn, _ struct{}) bool {
		_ = conn.Close()
		return true
	})
}

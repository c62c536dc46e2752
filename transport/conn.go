package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/arloliu/go-comms/frame"
	"github.com/arloliu/go-comms/message"
)

// ErrConnClosed indicates a Send on a closed connection.
var ErrConnClosed = errors.New("connection closed")

// DispatcherFactory creates the dispatcher of a new connection. The connection can be
// used to reply from handlers.
type DispatcherFactory func(conn *Conn) frame.Dispatcher

// frameWriter writes whole frames to the peer.
type frameWriter interface {
	writeFrame(data []byte) error
	Close() error
}

// Conn is one framed connection with its own stream.
//
// Send is safe for concurrent use; the read side belongs to the goroutine running Run.
type Conn struct {
	frame   *frame.Frame
	stream  *frame.Stream
	r       io.Reader
	w       frameWriter
	remote  net.Addr
	cfg     *config
	metrics *Metrics

	mu     sync.Mutex
	buf    []byte
	closed bool
}

func newConn(f *frame.Frame, r io.Reader, w frameWriter, remote net.Addr, cfg *config, metrics *Metrics) *Conn {
	return &Conn{
		frame:   f,
		stream:  f.NewStream(),
		r:       r,
		w:       w,
		remote:  remote,
		cfg:     cfg,
		metrics: metrics,
	}
}

// RemoteAddr returns the address of the peer, or nil when unknown.
func (c *Conn) RemoteAddr() net.Addr { return c.remote }

// Frame returns the frame definition of the connection.
func (c *Conn) Frame() *frame.Frame { return c.frame }

// Send frames msg and writes it to the peer.
func (c *Conn) Send(msg message.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnClosed
	}

	data, err := c.frame.WriteMessage(c.buf[:0], msg)
	if err != nil {
		return err
	}
	c.buf = data

	if err := c.w.writeFrame(data); err != nil {
		return err
	}
	c.metrics.addBytesWritten(len(data))

	return nil
}

// Run reads the connection and dispatches messages to d until the peer closes it,
// ctx is done or a read fails.
func (c *Conn) Run(ctx context.Context, d frame.Dispatcher) error {
	return readLoop(ctx, c.r, c.stream, d, c.cfg, c.metrics)
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	return c.w.Close()
}

type netWriter struct {
	conn net.Conn
}

func (w netWriter) writeFrame(data []byte) error {
	_, err := w.conn.Write(data)
	return err
}

func (w netWriter) Close() error { return w.conn.Close() }

// NewConn wraps an established net.Conn.
func NewConn(nc net.Conn, f *frame.Frame, opts ...Option) (*Conn, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return newConn(f, nc, netWriter{conn: nc}, nc.RemoteAddr(), cfg, &Metrics{}), nil
}

// Dial connects to a TCP server.
func Dial(ctx context.Context, address string, f *frame.Frame, opts ...Option) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	c, err := NewConn(nc, f, opts...)
	if err != nil {
		_ = nc.Close()
		return nil, err
	}

	return c, nil
}

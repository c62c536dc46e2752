package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/arloliu/go-comms/frame"
	"github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v3"
)

// WSReader adapts a websocket connection to an io.Reader over the payloads of its
// binary messages. Text messages are skipped. A normal close reads as io.EOF.
type WSReader struct {
	conn *websocket.Conn
	cur  io.Reader
}

// NewWSReader creates a reader over conn.
func NewWSReader(conn *websocket.Conn) *WSReader {
	return &WSReader{conn: conn}
}

// Read implements io.Reader.
func (r *WSReader) Read(p []byte) (int, error) {
	for {
		if r.cur == nil {
			mt, rd, err := r.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}

				return 0, err
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			r.cur = rd
		}

		n, err := r.cur.Read(p)
		if errors.Is(err, io.EOF) {
			r.cur = nil
			if n == 0 {
				continue
			}
			err = nil
		}

		return n, err
	}
}

// SetReadDeadline sets the read deadline of the underlying connection.
func (r *WSReader) SetReadDeadline(t time.Time) error {
	return r.conn.SetReadDeadline(t)
}

type wsWriter struct {
	conn *websocket.Conn
}

func (w wsWriter) writeFrame(data []byte) error {
	return w.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (w wsWriter) Close() error {
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))

	return w.conn.Close()
}

// NewWSConn wraps an established websocket connection. Every Send becomes one binary message.
func NewWSConn(ws *websocket.Conn, f *frame.Frame, opts ...Option) (*Conn, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return newConn(f, NewWSReader(ws), wsWriter{conn: ws}, ws.RemoteAddr(), cfg, &Metrics{}), nil
}

// DialWS connects to a websocket endpoint, e.g. "ws://127.0.0.1:8080/ws".
func DialWS(ctx context.Context, url string, f *frame.Frame, opts ...Option) (*Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c, err := NewWSConn(ws, f, opts...)
	if err != nil {
		_ = ws.Close()
		return nil, err
	}

	return c, nil
}

// WSHandler is an http.Handler upgrading requests to websocket connections and treating
// the binary messages of each one as a framed byte stream.
type WSHandler struct {
	frame      *frame.Frame
	newHandler DispatcherFactory
	cfg        *config
	upgrader   websocket.Upgrader
	metrics    Metrics
	conns      *xsync.MapOf[*Conn, struct{}]
}

// NewWSHandler creates a websocket handler decoding f.
func NewWSHandler(f *frame.Frame, factory DispatcherFactory, opts ...Option) (*WSHandler, error) {
	if f == nil || factory == nil {
		return nil, errors.New("transport: nil frame or dispatcher factory")
	}

	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &WSHandler{
		frame:      f,
		newHandler: factory,
		cfg:        cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.readBufferSize,
			WriteBufferSize: cfg.readBufferSize,
			CheckOrigin:     cfg.checkOrigin,
		},
		conns: xsync.NewMapOf[*Conn, struct{}](),
	}, nil
}

// Metrics returns the handler counters.
func (h *WSHandler) Metrics() *Metrics { return &h.metrics }

// ServeHTTP implements http.Handler. It returns when the websocket connection ends.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.cfg.logger.Warn("websocket upgrade failed", "remote_address", r.RemoteAddr, "error", err)
		return
	}

	conn := newConn(h.frame, NewWSReader(ws), wsWriter{conn: ws}, ws.RemoteAddr(), h.cfg, &h.metrics)
	h.conns.Store(conn, struct{}{})
	h.metrics.connOpened()

	logger := h.cfg.logger.With("remote_address", r.RemoteAddr)
	logger.Debug("websocket connection accepted")

	defer func() {
		h.conns.Delete(conn)
		_ = conn.Close()
		h.metrics.connClosed()
		logger.Debug("websocket connection closed")
	}()

	if err := conn.Run(r.Context(), h.newHandler(conn)); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("websocket read failed", "error", err)
	}
}

// Close closes every open websocket connection. http.Server.Shutdown does not close
// hijacked connections, so call Close after it.
func (h *WSHandler) Close() {
	h.conns.Range(func(conn *Conn, _ struct{}) bool {
		_ = conn.Close()
		return true
	})
}

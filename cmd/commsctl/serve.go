package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-comms/frame"
	"github.com/arloliu/go-comms/logger"
	"github.com/arloliu/go-comms/message"
	"github.com/arloliu/go-comms/protocol/demo"
	"github.com/arloliu/go-comms/transport"
)

// logHandler logs every message received on one connection.
type logHandler struct {
	demo.BaseHandler
	logger logger.Logger
}

func (h logHandler) HandleMsg1(msg *demo.Msg1) {
	h.logger.Info("msg1 received", "meters", msg.FieldF1().Meters(), "mode", msg.FieldF2().ValueName())
}

func (h logHandler) HandleMsg2(msg *demo.Msg2) {
	h.logger.Info("msg2 received", "meters", msg.FieldF1().Meters(),
		"seconds", msg.FieldF2().Seconds(), "flags", msg.FieldF3().String())
}

func (h logHandler) HandleText(msg *demo.Text) {
	h.logger.Info("text received", "text", msg.FieldF1().Value(), "counter", msg.FieldF3().Uint())
}

func (h logHandler) HandleMessage(msg message.Message) {
	h.logger.Warn("unhandled message", "id", msg.ID(), "message", msg.String())
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var tcpAddr, wsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept framed messages over TCP and websocket",
		Long: `Run a TCP listener and optionally a websocket endpoint, and log every decoded message.

Each connection keeps its own stream, so frames may be split across reads or
websocket messages. Stop with Ctrl-C.`,
		Example: `  commsctl serve --tcp 127.0.0.1:5000
  commsctl serve --tcp "" --ws 127.0.0.1:8080 --log-level debug`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg.Serve
			if cmd.Flags().Changed("tcp") {
				cfg.TCPAddr = tcpAddr
			}
			if cmd.Flags().Changed("ws") {
				cfg.WSAddr = wsAddr
			}
			if cfg.TCPAddr == "" && cfg.WSAddr == "" {
				return errors.New("nothing to serve: set --tcp or --ws")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&tcpAddr, "tcp", "", "TCP listen address (overrides serve.tcp_addr)")
	cmd.Flags().StringVar(&wsAddr, "ws", "", "Websocket listen address (overrides serve.ws_addr)")

	return cmd
}

func serve(ctx context.Context, cfg ServeConfig) error {
	idle, err := cfg.idleTimeout()
	if err != nil {
		return err
	}

	f, err := demo.NewFrame(frame.WithMaxBuffered(cfg.MaxBuffered))
	if err != nil {
		return err
	}

	l := logger.GetLogger()
	transportOpts := []transport.Option{
		transport.WithLogger(l),
		transport.WithReadBufferSize(cfg.ReadBufferSize),
		transport.WithIdleTimeout(idle),
	}
	factory := func(c *transport.Conn) frame.Dispatcher {
		return demo.NewDispatcher(logHandler{logger: l.With("remote_address", c.RemoteAddr().String())})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	// a failing listener stops the others
	report := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
		cancel()
	}

	if cfg.TCPAddr != "" {
		srv, err := transport.NewServer(f, factory, transportOpts...)
		if err != nil {
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx, cfg.TCPAddr); !errors.Is(err, transport.ErrServerClosed) {
				report(err)
			}
		}()
	}

	if cfg.WSAddr != "" {
		h, err := transport.NewWSHandler(f, factory, append(transportOpts,
			transport.WithCheckOrigin(func(*http.Request) bool { return true }))...)
		if err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.Handle(cfg.WSPath, h)
		httpServer := &http.Server{Addr: cfg.WSAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Info("websocket listening", "address", cfg.WSAddr, "path", cfg.WSPath)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				report(err)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
			h.Close()
		}()
	}

	wg.Wait()

	m := f.Metrics()
	l.Info("stopped", "frames", m.FrameCount.Load(), "checksum_errors", m.ChecksumErrCount.Load(),
		"skipped_bytes", m.SkippedBytes.Load())

	return errors.Join(errs...)
}

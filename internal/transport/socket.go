package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// RPCPath is the WebSocket endpoint.
	RPCPath = "/rpc"
	// HealthPath answers liveness probes from the host process.
	HealthPath = "/healthz"

	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second

	// maxInFlight bounds concurrently handled requests per connection.
	maxInFlight = 16
)

// Socket serves many clients over WebSocket, one JSON-RPC message per text
// frame. All connections share one Handler. Requests on a connection may be
// handled concurrently; replies are correlated by id.
type Socket struct {
	handler  Handler
	maxFrame int
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	wg    sync.WaitGroup
}

// NewSocket creates a socket transport. maxFrame bounds a single message in bytes.
func NewSocket(handler Handler, maxFrame int, logger *zap.Logger) *Socket {
	if handler == nil {
		panic("handler is required")
	}
	if maxFrame <= 0 {
		panic("maxFrame must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Socket{
		handler:  handler,
		maxFrame: maxFrame,
		logger:   logger,
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		conns:    make(map[*websocket.Conn]struct{}),
	}
}

// Mux returns the HTTP routes of the transport.
func (s *Socket) Mux(ctx context.Context) *http.ServeMux {
	m := http.NewServeMux()
	m.HandleFunc(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	m.HandleFunc(RPCPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Debug("upgrade failed", zap.Error(err))
			return
		}
		if !s.track(conn) {
			_ = conn.Close()
			return
		}
		defer s.untrack(conn)
		s.serveConn(ctx, conn)
	})
	return m
}

// Serve accepts connections on ln until ctx is cancelled, then closes every
// open connection and waits for their handlers to finish.
func (s *Socket) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Mux(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.closeAll()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		s.logger.Info("socket transport listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	err := g.Wait()
	s.wg.Wait()
	return err
}

// ListenAndServe listens on addr and calls Serve.
func (s *Socket) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Socket) serveConn(ctx context.Context, conn *websocket.Conn) {
	remote := conn.RemoteAddr().String()
	s.logger.Info("connection opened", zap.String("remote", remote))
	defer s.logger.Info("connection closed", zap.String("remote", remote))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn.SetReadLimit(int64(s.maxFrame))
	var wmu sync.Mutex
	var g errgroup.Group
	g.SetLimit(maxInFlight)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, net.ErrClosed) {
				s.logger.Debug("read failed", zap.String("remote", remote), zap.Error(err))
			}
			break
		}
		g.Go(func() error {
			reply := s.handler.Handle(ctx, frame)
			if reply == nil {
				return nil
			}
			wmu.Lock()
			defer wmu.Unlock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				s.logger.Debug("write failed", zap.String("remote", remote), zap.Error(err))
			}
			return nil
		})
	}

	cancel()
	_ = g.Wait()
	_ = conn.Close()
}

// track registers conn unless the transport is shutting down.
func (s *Socket) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Socket) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Socket) closeAll() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	for conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

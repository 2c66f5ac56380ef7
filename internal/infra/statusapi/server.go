// Package statusapi is the read-only status side-car (spec §4.8, C9): an
// HTTP server exposing the cabin's health, a point-in-time JSON status
// snapshot, a Prometheus scrape endpoint, and a WebSocket feed that pushes
// the same snapshot on an interval. It never touches scheduler state
// beyond calling Snapshot, so a slow or misbehaving HTTP client can never
// stall the control loop. Grounded on internal/http/websocket_server.go's
// connection-tracking/ping-pong/graceful-shutdown shape and
// internal/infra/health/health.go's liveness checker, both trimmed from a
// multi-elevator manager down to a single StatusSource.
package statusapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harmelin-systems/elevator-core/internal/constants"
	"github.com/harmelin-systems/elevator-core/internal/domain"
	"github.com/harmelin-systems/elevator-core/internal/infra/logging"
)

// StatusSource is the read-only view the side-car needs from the
// scheduler. Satisfied by *scheduler.Scheduler.
type StatusSource interface {
	Snapshot() domain.CabinStatus
}

// Server is the status side-car's HTTP server.
type Server struct {
	source    StatusSource
	logger    *slog.Logger
	startedAt time.Time
	httpSrv   *http.Server

	metricsEnabled bool
	wsEnabled      bool

	connMu sync.Mutex
	conns  map[*websocket.Conn]context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics toggles whether GET /metrics is registered.
func WithMetrics(enabled bool) Option {
	return func(s *Server) { s.metricsEnabled = enabled }
}

// WithWebSocket toggles whether GET /ws/status is registered.
func WithWebSocket(enabled bool) Option {
	return func(s *Server) { s.wsEnabled = enabled }
}

// New builds a Server listening on addr (e.g. ":6660").
func New(addr string, source StatusSource, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		source:         source,
		logger:         logger,
		startedAt:      time.Now(),
		metricsEnabled: true,
		wsEnabled:      true,
		conns:          make(map[*websocket.Conn]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.correlate(s.handleHealth))
	mux.HandleFunc("/status", s.correlate(s.handleStatus))
	if s.metricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	if s.wsEnabled {
		mux.HandleFunc("/ws/status", s.correlate(s.handleWebSocket))
	}

	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// correlate stamps every request's context with a correlation ID before
// delegating to handler, so log lines emitted while serving a request can
// be tied back together.
func (s *Server) correlate(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.NewContextWithCorrelation(r.Context())
		handler(w, r.WithContext(ctx))
	}
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("status side-car starting", "component", constants.ComponentStatusAPI, "addr", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown closes every tracked WebSocket connection and gracefully stops
// the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeAllConnections()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newHealthResponse(s.startedAt))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Snapshot())
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
}

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsStatusInterval = 250 * time.Millisecond
)

func (s *Server) addConnection(conn *websocket.Conn, cancel context.CancelFunc) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.conns[conn] = cancel
}

func (s *Server) removeConnection(conn *websocket.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if cancel, ok := s.conns[conn]; ok {
		cancel()
		delete(s.conns, conn)
	}
}

func (s *Server) closeAllConnections() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for conn, cancel := range s.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutdown"),
			time.Now().Add(1*time.Second))
		cancel()
		_ = conn.Close()
	}
	s.conns = make(map[*websocket.Conn]context.CancelFunc)
}

// handleWebSocket upgrades the connection and pushes a status snapshot
// every wsStatusInterval until the client disconnects or the server
// shuts down.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	correlationID := logging.GetCorrelationID(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "component", constants.ComponentStatusAPI, "error", err.Error())
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s.addConnection(conn, cancel)
	defer s.removeConnection(conn)

	s.logger.Info("status websocket connected", "component", constants.ComponentStatusAPI, "correlation_id", correlationID)

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	if err := s.writeStatus(conn); err != nil {
		return
	}

	statusTicker := time.NewTicker(wsStatusInterval)
	defer statusTicker.Stop()
	pingTicker := time.NewTicker(wsPingPeriod)
	defer pingTicker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return

		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutdown"),
				time.Now().Add(wsWriteWait))
			return

		case <-pingTicker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-statusTicker.C:
			if err := s.writeStatus(conn); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeStatus(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(s.source.Snapshot())
}

// Package web serves the current indicator and visualizer frames over
// HTTP: a JSON snapshot at /status and a websocket stream at /ws that
// pushes frames at a fixed rate. Remote dashboards can mirror the
// widgets without touching the UI process.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vizkit/internal/domain"
)

const (
	streamInterval = 33 * time.Millisecond

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	clientBuffer = 32
)

// IndicatorProvider supplies the latest indicator frame.
type IndicatorProvider interface {
	CurrentFrame() domain.IndicatorFrame
}

// VisualizerProvider supplies the latest visualizer frame.
type VisualizerProvider interface {
	CurrentFrame() domain.BarFrame
}

// Snapshot is the payload served to clients.
type Snapshot struct {
	Indicator  domain.IndicatorFrame `json:"indicator"`
	Visualizer domain.BarFrame       `json:"visualizer"`
}

// Server streams widget frames to websocket clients.
type Server struct {
	logger     *slog.Logger
	addr       string
	indicator  IndicatorProvider
	visualizer VisualizerProvider

	upgrader websocket.Upgrader
	httpSrv  *http.Server
	listener net.Listener

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	stop chan struct{}
	wg   sync.WaitGroup
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewServer creates a frame streaming server bound to addr.
func NewServer(logger *slog.Logger, addr string, indicator IndicatorProvider, visualizer VisualizerProvider) *Server {
	return &Server{
		logger:     logger,
		addr:       addr,
		indicator:  indicator,
		visualizer: visualizer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
		stop:    make(chan struct{}),
	}
}

// Start binds the listener and serves in the background. A bind failure
// is reported synchronously.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWebSocket)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.listener = ln
	s.httpSrv = &http.Server{Handler: mux}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("web server stopped", slog.Any("error", err))
		}
	}()
	go s.streamLoop()

	s.logger.Info("web server listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listen address, useful when the server was
// started on port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Shutdown stops the stream loop, disconnects clients and closes the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stop)
	for c := range s.clients {
		close(c.send)
		delete(s.clients, c)
	}
	s.mu.Unlock()

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	s.wg.Wait()
	return err
}

func (s *Server) snapshot() Snapshot {
	return Snapshot{
		Indicator:  s.indicator.CurrentFrame(),
		Visualizer: s.visualizer.CurrentFrame(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		s.logger.Debug("failed to encode status", slog.Any("error", err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.logger.Debug("websocket client connected", slog.String("remote", conn.RemoteAddr().String()))

	go c.writePump()
	go s.readPump(c)
}

// streamLoop encodes the current snapshot at the stream rate and fans
// it out to connected clients. Slow clients are dropped rather than
// allowed to stall the loop.
func (s *Server) streamLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if len(s.clients) == 0 {
			s.mu.Unlock()
			continue
		}

		data, err := json.Marshal(s.snapshot())
		if err != nil {
			s.mu.Unlock()
			s.logger.Debug("failed to encode snapshot", slog.Any("error", err))
			continue
		}

		for c := range s.clients {
			select {
			case c.send <- data:
			default:
				close(c.send)
				delete(s.clients, c)
			}
		}
		s.mu.Unlock()
	}
}

// readPump drains incoming messages so pongs are processed, and
// unregisters the client once the connection drops.
func (s *Server) readPump(c *client) {
	defer func() {
		s.mu.Lock()
		if _, ok := s.clients[c]; ok {
			close(c.send)
			delete(s.clients, c)
		}
		s.mu.Unlock()
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Package web serves the dashboard surface: a JSON snapshot endpoint, a
// websocket event stream, and Prometheus metrics. It only consumes the
// trading core's outputs.
package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evdnx/goicc/event"
	"github.com/evdnx/goicc/logger"
)

// SnapshotFunc supplies the current trader state.
type SnapshotFunc func() map[string]any

// Server fans trading events out to websocket subscribers.
type Server struct {
	addr     string
	snapshot SnapshotFunc
	log      logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	httpSrv *http.Server
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewServer(addr string, snapshot SnapshotFunc, log logger.Logger) *Server {
	return &Server{
		addr:     addr,
		snapshot: snapshot,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Start serves in a background goroutine.
func (s *Server) Start() {
	s.httpSrv = &http.Server{Addr: s.addr, Handler: s.Handler()}
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.log != nil {
				s.log.Error("web server failed", logger.Err(err))
			}
		}
	}()
	if s.log != nil {
		s.log.Info("web server listening", logger.String("addr", s.addr))
	}
}

// Stop closes the listener and drops all subscribers.
func (s *Server) Stop() {
	if s.httpSrv != nil {
		_ = s.httpSrv.Close()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		close(c.send)
		delete(s.clients, c)
	}
}

// Broadcast pushes one trading event to every subscriber. Slow subscribers
// are dropped rather than allowed to apply backpressure.
func (s *Server) Broadcast(ev event.Event) {
	payload, err := json.Marshal(map[string]any{
		"type":      string(ev.Type),
		"data":      ev.Data,
		"timestamp": ev.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- payload:
		default:
			close(c.send)
			delete(s.clients, c)
		}
	}
}

// ClientCount reports current websocket subscribers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil && s.log != nil {
		s.log.Error("snapshot encode failed", logger.Err(err))
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.log != nil {
			s.log.Warn("websocket upgrade failed", logger.Err(err))
		}
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 64)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writeLoop(c)
	go s.readLoop(c)
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.drop(c)
			return
		}
	}
}

// readLoop discards inbound frames and tears the client down on error.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.drop(c)
			return
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		close(c.send)
		delete(s.clients, c)
	}
}

// Package websocket pushes scrape progress to dashboard clients.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/fortuna/rinkscout/internal/platform/logging"
	"github.com/fortuna/rinkscout/internal/progress"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server represents the WebSocket server. It is a progress.Observer.
type Server struct {
	server *http.Server
	hub    *Hub
	log    *logging.Logger
}

// NewServer creates the server and starts its hub.
func NewServer(log *logging.Logger) *Server {
	if log == nil {
		log = logging.Default()
	}
	log = log.With("component", "websocket")
	hub := NewHub(log)
	go hub.Run()
	return &Server{hub: hub, log: log}
}

// Handler returns the websocket routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/progress", s.handleProgress)
	mux.HandleFunc("/ws/health", s.handleHealth)
	return mux
}

// Start blocks serving port until Shutdown.
func (s *Server) Start(port string) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("WebSocket server listening", "port", port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("failed to upgrade connection", "err", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// OnProgress broadcasts ev as JSON to every connected client.
func (s *Server) OnProgress(ev progress.Event) {
	payload, err := sonic.Marshal(ev)
	if err != nil {
		s.log.Warn("cannot encode progress event", "err", err)
		return
	}
	s.hub.Broadcast(payload)
}

func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

var _ progress.Observer = (*Server)(nil)

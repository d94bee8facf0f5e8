// Package control exposes the stage to a host page over a websocket: the
// host sends start, dispose, resize and scroll commands and receives status
// events.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/avatar-stage/internal/logger"
)

// Path is the websocket endpoint.
const Path = "/control"

const (
	writeWait     = 5 * time.Second
	maxMessage    = 4096
	commandBuffer = 64
	sendBuffer    = 16
)

// Server accepts host connections. Commands are queued for the render
// thread; statuses are broadcast to every client.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	commands chan Command
	log      *zap.Logger

	mu      sync.Mutex
	clients map[*client]bool
	last    []byte
}

// NewServer creates a server for addr. allowedOrigins lists the browser
// origins allowed to connect; "*" allows any, and an empty list allows
// same-origin requests only.
func NewServer(addr string, allowedOrigins []string) *Server {
	s := &Server{
		addr:     addr,
		commands: make(chan Command, commandBuffer),
		clients:  make(map[*client]bool),
		log:      logger.Named("control"),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: originChecker(allowedOrigins),
	}
	return s
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil // gorilla's same-origin check
	}
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return slices.Contains(allowed, origin) || slices.Contains(allowed, u.Host)
	}
}

// Commands returns the queue of validated host commands.
func (s *Server) Commands() <-chan Command {
	return s.commands
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWebSocket)
	return mux
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then closes every client.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.log.Info("control channel listening", zap.String("addr", ln.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.closeClients()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Broadcast queues a status for every connected client. New clients receive
// the most recent status on connect. A client whose queue is full is dropped.
func (s *Server) Broadcast(st Status) {
	data, err := json.Marshal(st)
	if err != nil {
		s.log.Error("marshaling status", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = data

	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.log.Warn("client too slow, dropping")
			s.removeLocked(c)
		}
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// client is one host connection. Only writeLoop writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// writeLoop drains send until it is closed or a write fails, then closes
// the connection.
func (c *client) writeLoop(log *zap.Logger) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// removeLocked unregisters c and closes its queue. Callers hold s.mu.
func (s *Server) removeLocked(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
}

func (s *Server) reply(c *client, st Status) {
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		s.log.Debug("reply dropped, client queue full")
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		s.removeLocked(c)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessage)

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.mu.Lock()
	s.clients[c] = true
	if s.last != nil {
		c.send <- s.last
	}
	s.mu.Unlock()
	go c.writeLoop(s.log)

	s.log.Info("host connected", zap.String("remote", r.RemoteAddr))

	defer func() {
		s.mu.Lock()
		s.removeLocked(c)
		s.mu.Unlock()
		s.log.Info("host disconnected", zap.String("remote", r.RemoteAddr))
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.reply(c, Status{Event: "error", Error: "malformed command: " + err.Error()})
			continue
		}
		if err := cmd.Validate(); err != nil {
			s.reply(c, Status{Event: "error", Error: err.Error()})
			continue
		}

		select {
		case s.commands <- cmd:
			s.log.Debug("command queued", zap.String("op", cmd.Op))
		default:
			s.log.Warn("command queue full, dropping", zap.String("op", cmd.Op))
			s.reply(c, Status{Event: "error", Error: "busy"})
		}
	}
}

package livereload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

const (
	// DefaultPort is the port LiveReload clients expect.
	DefaultPort = 35729
	// Path is the WebSocket endpoint.
	Path = "/livereload"

	protocolV7       = "http://livereload.com/protocols/official-7"
	writeWait        = 10 * time.Second
	handshakeWait    = 10 * time.Second
	defaultKeepalive = 30 * time.Second
)

type clientMessage struct {
	Command   string   `json:"command"`
	Protocols []string `json:"protocols,omitempty"`
}

type helloMessage struct {
	Command    string   `json:"command"`
	Protocols  []string `json:"protocols"`
	ServerName string   `json:"serverName"`
}

type reloadMessage struct {
	Command string `json:"command"`
	Path    string `json:"path"`
	LiveCSS bool   `json:"liveCSS"`
}

// Server is the WebSocket endpoint browsers connect to.
type Server struct {
	broker    *Broker
	name      string
	keepalive time.Duration
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithKeepalive sets how long a connection may stay silent before a ping is sent.
func WithKeepalive(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.keepalive = d
		}
	}
}

// WithServerName sets the name announced in the handshake.
func WithServerName(name string) Option {
	return func(s *Server) { s.name = name }
}

// NewServer returns a Server delivering reloads published on broker.
func NewServer(broker *Broker, opts ...Option) *Server {
	s := &Server{
		broker:    broker,
		name:      "folio",
		keepalive: defaultKeepalive,
		logger:    slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Pages are served from another port of the same dev machine.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns a router serving the endpoint at Path.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(Path, s.ServeHTTP)
	return r
}

// ServeHTTP upgrades the request, performs the LiveReload handshake and then
// forwards reloads until the client goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("livereload: upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	if err := s.handshake(conn); err != nil {
		s.logger.Debug("livereload: handshake failed", slog.String("error", err.Error()))
		return
	}

	ch := s.broker.Subscribe()
	defer s.broker.Unsubscribe(ch)
	s.logger.Debug("livereload: client connected", slog.String("remote", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	readWait := s.keepalive + writeWait
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	// Reading is required for control frames to be processed; client
	// messages after the handshake carry nothing we act on.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
		}
	}()

	// Pings go out on a fixed schedule so a steady stream of reloads cannot
	// starve the pong that extends the read deadline.
	ping := time.NewTicker(s.keepalive)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("livereload: client disconnected", slog.String("remote", r.RemoteAddr))
			return

		case reload, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(reloadMessage{Command: "reload", Path: "", LiveCSS: true}); err != nil {
				s.logger.Debug("livereload: send failed", slog.String("error", err.Error()))
				return
			}
			s.logger.Debug("livereload: reload sent", slog.String("build_id", reload.BuildID))

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

var errNotHello = errors.New("livereload: first message is not hello")

func (s *Server) handshake(conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeWait))

	var msg clientMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("livereload: read hello: %w", err)
	}
	if msg.Command != "hello" {
		return errNotHello
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(helloMessage{
		Command:    "hello",
		Protocols:  []string{protocolV7},
		ServerName: s.name,
	})
}

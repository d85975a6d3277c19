// Package stomp serves the chat relay as STOMP 1.2 frames over WebSocket.
package stomp

import (
	"cine-chat/auth"
	"cine-chat/contract"
	"cine-chat/services"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Options struct {
	SendBufferSize int
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxFrameSize   int64
	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.SendBufferSize <= 0 {
		o.SendBufferSize = 256
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.MaxFrameSize <= 0 {
		o.MaxFrameSize = 64 * 1024
	}
	return o
}

// pingPeriod must stay below the pong deadline.
func (o Options) pingPeriod() time.Duration {
	return o.PongTimeout * 9 / 10
}

// Server upgrades HTTP requests and runs one session per connection.
type Server struct {
	log        *slog.Logger
	gatekeeper auth.IGatekeeper
	chat       services.IChatService
	broker     contract.IBroker
	options    Options
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

func NewServer(log *slog.Logger, gatekeeper auth.IGatekeeper, chat services.IChatService,
	broker contract.IBroker, options Options) *Server {
	options = options.withDefaults()
	s := &Server{
		log:        log,
		gatekeeper: gatekeeper,
		chat:       chat,
		broker:     broker,
		options:    options,
		sessions:   make(map[string]*session),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Subprotocols:    []string{"v12.stomp", "v11.stomp", "v10.stomp"},
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin accepts requests without Origin (non browser clients) and
// origins listed in AllowedOrigins. "*" accepts everything.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.options.AllowedOrigins) == 0 {
		return true
	}
	return lo.Contains(s.options.AllowedOrigins, "*") || lo.Contains(s.options.AllowedOrigins, origin)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	sess := newSession(uuid.NewString(), conn, s)
	s.track(sess)
	defer s.untrack(sess)

	s.log.Debug("Connection opened", "session_id", sess.id, "remote", r.RemoteAddr)
	sess.run(r.Context())
	s.log.Debug("Connection closed", "session_id", sess.id)
}

// Shutdown asks every open session to close.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.shutdown(websocket.CloseGoingAway)
	}
}

// Sessions returns the number of open connections.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) track(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
}

func (s *Server) untrack(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.id)
}

package websocket

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"mediamerge/internal/config"
	apierrors "mediamerge/internal/errors"
	"mediamerge/internal/infrastructure"
)

// Options configures the upgrade handshake and keepalive.
type Options struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingPeriod      time.Duration
	PongWait        time.Duration
	// Empty allows any origin; "*" does the same explicitly.
	AllowedOrigins []string
}

// OptionsFrom builds Options from the loaded configuration.
func OptionsFrom(ws config.WebSocketConfig, sec config.SecurityConfig) Options {
	opts := Options{
		ReadBufferSize:  ws.ReadBufferSize,
		WriteBufferSize: ws.WriteBufferSize,
		PingPeriod:      ws.PingPeriod,
		PongWait:        ws.PongWait,
	}
	if sec.EnableCORS {
		opts.AllowedOrigins = sec.AllowedOrigins
	}
	return opts
}

// Server upgrades HTTP requests into session subscribers.
type Server struct {
	hub          *Hub
	upgrader     websocket.Upgrader
	opts         Options
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewServer creates an upgrade handler feeding hub.
func NewServer(hub *Hub, opts Options, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *Server {
	if opts.PongWait <= 0 {
		opts.PongWait = config.WebSocketPongWait
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = opts.PongWait * 9 / 10
	}
	s := &Server{
		hub:          hub,
		opts:         opts,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "websocket_server")),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  opts.ReadBufferSize,
		WriteBufferSize: opts.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			s.errorHandler.HandleError(w, r, apierrors.New(status, "WEBSOCKET_UPGRADE_FAILED", reason.Error()))
		},
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	s.logger.WarnContext(r.Context(), "websocket origin rejected", slog.String("origin", origin))
	return false
}

// ServeSession upgrades the request and subscribes it to sessionID. Errors
// have already been written to w when this returns.
func (s *Server) ServeSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := NewClient(s.hub, WrapConnection(conn), sessionID,
		infrastructure.GetTraceID(r.Context()), s.opts.PingPeriod, s.opts.PongWait)
	client.Attach()
}

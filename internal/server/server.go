// Package server exposes table sessions over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/holdemtable/internal/session"
)

// Server serves the table API.
type Server struct {
	manager  *session.Manager
	hub      *Hub
	logger   zerolog.Logger
	upgrader websocket.Upgrader
	router   chi.Router
	timing   session.Config
}

// Option configures a Server.
type Option func(*Server)

// WithTiming sets the session timing for tables created through the API.
func WithTiming(cfg session.Config) Option {
	return func(s *Server) { s.timing = cfg }
}

// New builds the routes for manager. hub must be the sink the manager's
// sessions publish to.
func New(manager *session.Manager, hub *Hub, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		manager: manager,
		hub:     hub,
		logger:  logger.With().Str("component", "server").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", s.handleTables)
		r.Post("/", s.handleCreateTable)
		r.Route("/{table}", func(r chi.Router) {
			r.Get("/", s.handleState)
			r.Get("/roster", s.handleRoster)
			r.Get("/history", s.handleHistory)
			r.Get("/equity", s.handleEquity)
			r.Get("/ws", s.handleWebSocket)
			r.Post("/start", s.handleStart)
			r.Post("/actions", s.handleAction)
			r.Post("/seats/{seat}", s.handleJoin)
			r.Delete("/seats/{seat}", s.handleLeave)
			r.Delete("/", s.handleClose)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

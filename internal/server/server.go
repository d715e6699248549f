// Package server exposes Casino Hold'em sessions and the analysis engine over
// HTTP and websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/lox/casinoholdem/analysis"
	"github.com/lox/casinoholdem/internal/config"
	"github.com/lox/casinoholdem/internal/game"
	"github.com/lox/casinoholdem/internal/randutil"
)

// expirySweep is how often idle sessions are dropped.
const expirySweep = time.Minute

// Server represents the HTTP and WebSocket server
type Server struct {
	cfg       *config.Config
	rules     game.Rules
	store     *Store
	router    *gin.Engine
	upgrader  websocket.Upgrader
	validator *Validator
	estimator *analysis.Estimator
	clock     quartz.Clock
	logger    *log.Logger

	sessionOpts []game.Option

	rngMu sync.Mutex
	rng   *rand.Rand

	mu          sync.RWMutex
	subscribers map[string]map[*Connection]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for session expiry and timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithSeed makes dealing and simulation reproducible.
func WithSeed(seed int64) Option {
	return func(s *Server) { s.rng = randutil.New(seed) }
}

// withSessionOptions adds options to every session the server creates.
func withSessionOptions(opts ...game.Option) Option {
	return func(s *Server) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// NewServer creates a server from configuration.
func NewServer(cfg *config.Config, logger *log.Logger, opts ...Option) (*Server, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:   cfg,
		rules: game.RulesFromConfig(cfg.Game),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		validator:   validator,
		clock:       quartz.NewReal(),
		logger:      logger.WithPrefix("server"),
		subscribers: make(map[string]map[*Connection]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = randutil.New(randutil.Seed(nil))
	}

	s.estimator = analysis.NewEstimator(analysis.WithLogger(s.logger))
	s.store = NewStore(s.clock, cfg.IdleTimeout(), cfg.Session.MaxSessions)
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store returns the session store.
func (s *Server) Store() *Store {
	return s.store
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Address(),
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweeper := s.clock.TickerFunc(ctx, expirySweep, func() error {
		s.expire()
		return nil
	}, "sweep")

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	_ = sweeper.Wait() // Returns the cancelled context's error
	return nil
}

// newSession creates a session with its own random stream.
func (s *Server) newSession() *game.Session {
	s.rngMu.Lock()
	rng := randutil.Derive(s.rng)
	s.rngMu.Unlock()

	opts := []game.Option{
		game.WithRules(s.rules),
		game.WithRNG(rng),
		game.WithClock(s.clock),
		game.WithLogger(s.logger),
		game.WithEstimator(s.estimator),
	}
	return game.NewSession(append(opts, s.sessionOpts...)...)
}

// deriveRNG hands stateless requests their own stream.
func (s *Server) deriveRNG() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return randutil.Derive(s.rng)
}

// expire drops idle sessions and disconnects their subscribers.
func (s *Server) expire() {
	for _, id := range s.store.Expire() {
		s.logger.Info("Session expired", "session", id)
		s.mu.Lock()
		conns := s.subscribers[id]
		delete(s.subscribers, id)
		s.mu.Unlock()
		for conn := range conns {
			_ = conn.Close() // Ignore close errors for expired sessions
		}
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, conns := range s.subscribers {
		for conn := range conns {
			_ = conn.Close() // Ignore close errors during shutdown
		}
		delete(s.subscribers, id)
	}
}

func (s *Server) subscribe(id string, conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribers[id] == nil {
		s.subscribers[id] = make(map[*Connection]struct{})
	}
	s.subscribers[id][conn] = struct{}{}
	s.logger.Info("Client connected", "session", id, "total", len(s.subscribers[id]))
}

func (s *Server) unsubscribe(id string, conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conns, ok := s.subscribers[id]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(s.subscribers, id)
		}
	}
	s.logger.Info("Client disconnected", "session", id)
}

// broadcast pushes the session's state to every subscribed connection. The
// origin connection, if any, gets its request ID echoed back.
func (s *Server) broadcast(session *game.Session, origin *Connection, requestID string) {
	msg, err := NewMessage(MessageTypeState, session.Snapshot(), s.clock.Now())
	if err != nil {
		s.logger.Error("Failed to encode state", "session", session.ID(), "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.subscribers[session.ID()] {
		out := msg
		if conn == origin && requestID != "" {
			reply := *msg
			reply.RequestID = requestID
			out = &reply
		}
		_ = conn.SendMessage(out) // Slow clients are closed by SendMessage
	}
}

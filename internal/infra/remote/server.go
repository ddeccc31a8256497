// Package remote accepts key presses over HTTP from a handheld remote and
// queues them for the frame loop.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"lego-house/internal/application"
)

// StateReader exposes the installation state for GET /state.
type StateReader interface {
	Snapshot() application.StateSnapshot
}

type Server struct {
	addr        string
	server      *http.Server
	keys        chan rune
	state       StateReader
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	mux         *http.ServeMux
	closeOnce   sync.Once
	rateLimiter *RateLimiter
	authToken   string
	listener    net.Listener

	keysPerMinute int
	trustProxy    bool
}

type Option func(*Server)

// WithTrustedProxy keys the rate limiter on X-Forwarded-For / X-Real-IP.
// Only enable it behind a reverse proxy that sets those headers.
func WithTrustedProxy() Option {
	return func(s *Server) { s.trustProxy = true }
}

func WithKeysPerMinute(n int) Option {
	return func(s *Server) { s.keysPerMinute = n }
}

func NewServer(addr, authToken string, state StateReader, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		addr:          addr,
		keys:          make(chan rune, 32),
		state:         state,
		logger:        logger,
		mux:           http.NewServeMux(),
		authToken:     authToken,
		keysPerMinute: 120,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rateLimiter = NewRateLimiter(s.keysPerMinute, s.trustProxy)
	s.mux.HandleFunc("POST /key", s.rateLimiter.Middleware(s.requireToken(s.handleKey)))
	s.mux.HandleFunc("GET /state", s.requireToken(s.handleState))
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

// Keys is drained by the frame loop once per tick.
func (s *Server) Keys() <-chan rune {
	return s.keys
}

// Addr is the bound address once started, which resolves a ":0" port.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("remote server listening", "addr", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("remote server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	s.closeOnce.Do(func() {
		close(s.keys)
	})
	s.running = false
	return nil
}

func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token != s.authToken {
			s.logger.Warn("unauthorized remote request", "remote_addr", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 16))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// exactly one character; surrounding newlines from curl are tolerated
	text := strings.Trim(string(data), "\r\n")
	if utf8.RuneCountInString(text) != 1 {
		http.Error(w, "body must be a single character", http.StatusBadRequest)
		return
	}
	key, _ := utf8.DecodeRuneInString(text)

	select {
	case s.keys <- key:
		s.logger.Info("received key via remote", "key", text)
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"status":"queued","key":%q}`, text)
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
	}
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.state.Snapshot()); err != nil {
		s.logger.Error("encoding state", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	running := s.running
	queueSize := len(s.keys)
	s.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, `{"status":"%s","running":%t,"queue_size":%d}`, status, running, queueSize)
}

// Package alexa serves the assistant's smart home directives over HTTP.
package alexa

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"alexa-smart-home/internal/domain"
)

const maxDirectiveBytes = 64 << 10

// Dispatcher answers one directive.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *domain.DirectiveRequest) *domain.Response
}

type Server struct {
	addr        string
	server      *http.Server
	dispatcher  Dispatcher
	router      chi.Router
	rateLimiter *RateLimiter
	authToken   string
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
}

// NewServer builds the HTTP surface. An empty authToken disables the token
// check; rateLimit is requests per minute per client IP.
func NewServer(addr, authToken string, rateLimit int, dispatcher Dispatcher, logger *slog.Logger) *Server {
	s := &Server{
		addr:        addr,
		dispatcher:  dispatcher,
		rateLimiter: NewRateLimiter(rateLimit, time.Minute),
		authToken:   authToken,
		logger:      logger,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// No rate limiting on health check
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimiter.Middleware)
		r.Use(s.authenticate)
		r.Post("/alexa/directive", s.handleDirective)
	})

	return r
}

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("directive server starting", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
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
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	s.running = false
	return nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// authenticate checks the X-Auth-Token header, falling back to the token
// query parameter.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.logger.Warn("unauthorized directive request", "remote_addr", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleDirective(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxDirectiveBytes+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(data) > maxDirectiveBytes {
		http.Error(w, "directive too large", http.StatusRequestEntityTooLarge)
		return
	}

	var req domain.DirectiveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Warn("malformed directive", "error", err)
		http.Error(w, "malformed directive", http.StatusBadRequest)
		return
	}
	if req.Directive.Header.Namespace == "" || req.Directive.Header.Name == "" {
		http.Error(w, "directive header needs namespace and name", http.StatusBadRequest)
		return
	}

	s.logger.Info("received directive",
		"namespace", req.Directive.Header.Namespace,
		"name", req.Directive.Header.Name,
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeJSON(w, http.StatusOK, s.dispatcher.Dispatch(r.Context(), &req))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "running": running})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	json.NewEncoder(w).Encode(v)
}

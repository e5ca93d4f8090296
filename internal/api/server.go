package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"voiceops/internal/application"
	"voiceops/internal/domain"
)

const (
	defaultListenSeconds = 5
	maxListenSeconds     = 10
)

// Server exposes the voice pipeline over HTTP for the frontend.
type Server struct {
	addr        string
	pipeline    *application.Pipeline
	executor    *application.Executor
	vocab       *domain.Vocabulary
	server      *http.Server
	mux         *http.ServeMux
	rateLimiter *RateLimiter
	authToken   string
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
}

func NewServer(addr, authToken string, pipeline *application.Pipeline, executor *application.Executor, vocab *domain.Vocabulary, logger *slog.Logger) *Server {
	s := &Server{
		addr:        addr,
		pipeline:    pipeline,
		executor:    executor,
		vocab:       vocab,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(30, time.Minute), // 30 requests per minute per IP
		authToken:   authToken,
		logger:      logger,
	}
	s.mux.HandleFunc("POST /api/voice/process", s.rateLimiter.Middleware(s.authorized(s.handleProcess)))
	s.mux.HandleFunc("POST /api/voice/listen", s.rateLimiter.Middleware(s.authorized(s.handleListen)))
	s.mux.HandleFunc("POST /api/devices/control", s.rateLimiter.Middleware(s.authorized(s.handleControl)))
	// No rate limiting on health check
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("HTTP server starting", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	s.running = false
	return nil
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != s.authToken {
				s.logger.Warn("unauthorized request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req struct {
		Command       string `json:"command"`
		SpeakResponse bool   `json:"speak_response"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Command == "" {
		writeError(w, http.StatusBadRequest, "Command cannot be empty")
		return
	}

	result := s.pipeline.ProcessText(r.Context(), req.Command, req.SpeakResponse)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListen(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req struct {
		Duration      int  `json:"duration"`
		SpeakResponse bool `json:"speak_response"`
	}
	// An empty body means record with the default duration.
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Duration <= 0 {
		req.Duration = defaultListenSeconds
	}
	if req.Duration > maxListenSeconds {
		req.Duration = maxListenSeconds
	}

	result := s.pipeline.ProcessVoice(r.Context(), time.Duration(req.Duration)*time.Second, req.SpeakResponse)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var action domain.Action
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if action.Device == "" || action.Command == "" {
		writeError(w, http.StatusBadRequest, "device and command are required")
		return
	}
	if !s.vocab.Known(s.vocab.Normalize(action.Device)) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown device %q", action.Device))
		return
	}

	actions, delivered := s.executor.Execute(r.Context(), []domain.Action{action})
	writeJSON(w, http.StatusOK, domain.Result{
		Success:         delivered,
		Intent:          domain.IntentDeviceControl,
		Actions:         actions,
		FirebaseSuccess: delivered,
		Timestamp:       time.Now(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK
	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{
		"status":  status,
		"devices": s.vocab.Devices(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

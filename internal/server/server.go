// Package server implements the HTTP server that exposes the LocScout
// conversation engine via a REST API. The server is started by the
// `locscout serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/locscout/locscout-go/internal/logging"
	"github.com/locscout/locscout-go/internal/store"
)

// defaultMaxImageBytes caps uploaded reference images at 8 MiB.
const defaultMaxImageBytes = 8 << 20

// New constructs a Server from the provided conversation engine and config.
func New(engine chatter, cfg *Config) (*Server, error) {
	return newWithRegistry(engine, cfg, prometheus.NewRegistry())
}

// newWithRegistry is the test seam: it accepts an explicit Prometheus
// registry so tests stay hermetic.
func newWithRegistry(engine chatter, cfg *Config, reg *prometheus.Registry) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("server: engine must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover a full search round-trip through the
		// embedding, index, and completion backends.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.MaxImageBytes == 0 {
		cfg.MaxImageBytes = defaultMaxImageBytes
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:3001",
		}
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}
	if cfg.APIKey == "" {
		log.Warn("server: API key not set, authentication disabled")
	}

	s := &Server{
		chat:    engine,
		cfg:     cfg,
		log:     log,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(reg),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	mux := http.NewServeMux()
	mux.Handle("POST /api/chat", rl.middleware(authMiddleware(cfg.APIKey, http.HandlerFunc(s.handleChat))))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	handler := requestLogger(log, corsMiddleware(cfg.AllowedOrigins, mux))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("locscout server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleChat handles POST /api/chat. The request is multipart form data with
// a "message" text field, an optional "session_id", and an optional "image"
// file. A missing session ID starts a new session.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	if err := r.ParseMultipartForm(s.cfg.MaxImageBytes + 1<<20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		s.observeChat("bad_request", start)
		return
	}

	message := r.FormValue("message")
	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	image, err := s.readImage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.observeChat("bad_request", start)
		return
	}

	if message == "" && len(image) == 0 {
		http.Error(w, "message or image is required", http.StatusBadRequest)
		s.observeChat("bad_request", start)
		return
	}

	messages, err := s.chat.HandleMessage(r.Context(), sessionID, message, image)
	if err != nil {
		log.Error("chat handling failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		s.observeChat("error", start)
		return
	}

	s.archive(r.Context(), sessionID, message, messages)

	resp := chatResponse{
		Messages:  messages,
		SessionID: sessionID,
		MessageID: uuid.NewString(),
		Timestamp: time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("chat encode error", slog.Any("error", err))
	}
	s.observeChat("ok", start)

	if s.cfg.SessionCount != nil {
		s.metrics.sessionsActive.Set(float64(s.cfg.SessionCount()))
	}
}

// readImage extracts the optional "image" upload, enforcing the size cap.
// Returns nil bytes when no image was attached.
func (s *Server) readImage(r *http.Request) ([]byte, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid image upload")
	}
	defer file.Close()

	if header.Size > s.cfg.MaxImageBytes {
		return nil, fmt.Errorf("image exceeds %d byte limit", s.cfg.MaxImageBytes)
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("could not read image upload")
	}
	if int64(len(data)) > s.cfg.MaxImageBytes {
		return nil, fmt.Errorf("image exceeds %d byte limit", s.cfg.MaxImageBytes)
	}
	return data, nil
}

// archive best-effort records the turn in the transcript store.
func (s *Server) archive(ctx context.Context, sessionID, message string, responses []string) {
	if s.cfg.Transcripts == nil {
		return
	}
	log := logging.FromContext(ctx)
	if message != "" {
		if err := s.cfg.Transcripts.Append(ctx, sessionID, store.RoleUser, message); err != nil {
			log.Warn("transcript archive failed", slog.Any("error", err))
			return
		}
	}
	for _, resp := range responses {
		if err := s.cfg.Transcripts.Append(ctx, sessionID, store.RoleAssistant, resp); err != nil {
			log.Warn("transcript archive failed", slog.Any("error", err))
			return
		}
	}
}

// observeChat records the outcome and latency of one /api/chat request.
func (s *Server) observeChat(outcome string, start time.Time) {
	s.metrics.chatRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.chatDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

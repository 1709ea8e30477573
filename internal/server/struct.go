package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/locscout/locscout-go/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// AllowedOrigins lists the origins granted CORS access. Defaults to the
	// local development frontends.
	AllowedOrigins []string
	// MaxImageBytes caps the uploaded image size. Defaults to 8 MiB.
	MaxImageBytes int64
	// Transcripts, when non-nil, archives every chat turn. Archive failures
	// are logged and never fail the request.
	Transcripts store.TranscriptStore
	// SessionCount reports the number of live sessions for the metrics gauge.
	SessionCount func() int
}

// chatter is the interface handleChat calls to process one conversation turn.
// *convo.Engine satisfies it; tests inject a fake.
type chatter interface {
	// HandleMessage processes one user turn and returns the user-visible
	// response strings.
	HandleMessage(ctx context.Context, sessionID, text string, image []byte) ([]string, error)
}

// Server is the HTTP server that exposes the conversation engine.
type Server struct {
	// chat processes conversation turns; the engine in production, a fake in
	// tests.
	chat chatter
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatResponse is the JSON body returned by POST /api/chat.
type chatResponse struct {
	// Messages holds the user-visible response strings in order.
	Messages []string `json:"messages"`
	// SessionID echoes (or assigns) the conversation session.
	SessionID string `json:"session_id"`
	// MessageID uniquely identifies this response.
	MessageID string `json:"message_id"`
	// Timestamp is the RFC 3339 time the response was produced.
	Timestamp string `json:"timestamp"`
}

// healthResponse is the JSON body returned by GET /api/health.
type healthResponse struct {
	// Status is "healthy" whenever the process is serving.
	Status string `json:"status"`
	// Message is a human-readable liveness note.
	Message string `json:"message"`
	// Timestamp is the RFC 3339 time of the check.
	Timestamp string `json:"timestamp"`
	// Version is the build version string.
	Version string `json:"version"`
}

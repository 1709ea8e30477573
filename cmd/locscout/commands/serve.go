package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/locscout/locscout-go/internal/completion"
	"github.com/locscout/locscout-go/internal/convo"
	"github.com/locscout/locscout-go/internal/embedding"
	"github.com/locscout/locscout-go/internal/index"
	"github.com/locscout/locscout-go/internal/logging"
	"github.com/locscout/locscout-go/internal/server"
	"github.com/locscout/locscout-go/internal/store"
	"github.com/locscout/locscout-go/internal/tracing"
)

// NewServeCmd constructs the `locscout serve` command, which starts the HTTP
// server exposing the conversational search API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the LocScout HTTP server",
		Long: `Start the LocScout HTTP server on localhost.

The server exposes a REST API for multi-turn conversational location search.
Searches run against the Qdrant vector index, which must be populated first
(see 'locscout seed').

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: film_locations)
  EMBEDDING_PROVIDER   Embedding backend: clip, ollama, openai (default: clip)
  MODEL_PROVIDER       Completion backend for llm strategy and follow-up chat

Examples:
  locscout serve
  locscout serve --port 9090
  CONVERSATION_STRATEGY=llm MODEL_PROVIDER=openai locscout serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting",
				slog.String("embedding_provider", embedding.ResolveBackend()),
				slog.String("model_provider", os.Getenv("MODEL_PROVIDER")),
			)

			// Setup Langfuse tracing: opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			if err := embedding.ValidateForSearch(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			encoder, err := embedding.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedding backend: %w", err)
			}
			log.Info("embedding backend initialised", slog.String("provider", embedding.ResolveBackend()))

			idx, err := buildIndex(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = idx.Close() }()

			// The completer is optional. Without it, confirmation detection
			// and follow-up chat fall back to deterministic keyword behavior.
			var completer completion.Completer
			client, err := completion.NewFromEnv(ctx)
			if err != nil {
				log.Warn("completion backend unavailable, using keyword strategies",
					slog.Any("error", err))
			} else {
				completer = client
				log.Info("completion backend initialised",
					slog.String("provider", getEnvOrDefault("MODEL_PROVIDER", "ollama")))
			}

			strategy := getEnvOrDefault("CONVERSATION_STRATEGY", "keyword")
			confirm, rewriter := convo.NewStrategies(strategy, completer)
			log.Info("conversation strategies selected", slog.String("strategy", strategy))

			engine := convo.NewEngine(&convo.Config{
				Encoder:        encoder,
				Index:          idx,
				Completer:      completer,
				Confirm:        confirm,
				Rewriter:       rewriter,
				Results:        getEnvInt("SEARCH_RESULTS", 0),
				ScoreThreshold: getEnvFloat32("SEARCH_SCORE_THRESHOLD", 0),
				HistoryWindow:  getEnvInt("CONVERSATION_HISTORY_WINDOW", 0),
			})

			transcripts, closeTranscripts := openTranscripts(log)
			defer closeTranscripts()

			pingers := []server.Pinger{
				server.NewQdrantPinger(idx.Client()),
				server.NewEncoderPinger(encoder),
			}
			if completer != nil {
				pingers = append(pingers, server.NewCompleterPinger(completer))
			}

			srv, err := server.New(engine, &server.Config{
				Host:           host,
				Port:           port,
				Logger:         log,
				Pingers:        pingers,
				APIKey:         os.Getenv("LOCSCOUT_API_KEY"),
				AllowedOrigins: splitOrigins(os.Getenv("SERVER_ALLOWED_ORIGINS")),
				Transcripts:    transcripts,
				SessionCount:   engine.Store().Len,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}

// buildIndex connects to Qdrant using the standard env vars and returns a
// ready index with the collection ensured.
func buildIndex(ctx context.Context, log *slog.Logger) (*index.QdrantIndex, error) {
	qdrantHost := getEnvOrDefault("QDRANT_HOST", "localhost")
	qdrantPort := getEnvInt("QDRANT_PORT", 6334)
	collection := getEnvOrDefault("QDRANT_COLLECTION", "film_locations")

	vectorSize := getEnvInt("EMBEDDING_DIMENSIONS", 0)
	if vectorSize == 0 {
		vectorSize = embedding.DefaultDimensions(embedding.ResolveBackend())
	}

	idx, err := index.NewQdrantIndex(ctx, &index.QdrantConfig{
		Host:       qdrantHost,
		Port:       qdrantPort,
		Collection: collection,
		VectorSize: uint64(vectorSize), //nolint:gosec // dimensions are bounded
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", qdrantHost, qdrantPort, err)
	}

	log.Info("qdrant index ready",
		slog.String("host", qdrantHost),
		slog.Int("port", qdrantPort),
		slog.String("collection", collection),
		slog.Int("vector_size", vectorSize),
	)
	return idx, nil
}

// openTranscripts opens the transcript archive. LOCSCOUT_TRANSCRIPT_DB
// overrides the default path (~/.locscout/transcripts.db). Set to "disabled"
// to disable archiving. Failures degrade to no archiving with a warning.
func openTranscripts(log *slog.Logger) (store.TranscriptStore, func()) {
	noop := func() {}

	dbPath := os.Getenv("LOCSCOUT_TRANSCRIPT_DB")
	if dbPath == "disabled" {
		log.Info("transcripts: disabled via LOCSCOUT_TRANSCRIPT_DB=disabled")
		return nil, noop
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("transcripts: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, noop
		}
	}

	ts, err := store.Open(dbPath)
	if err != nil {
		log.Warn("transcripts: failed to open store, disabling", slog.Any("error", err))
		return nil, noop
	}

	log.Info("transcripts: store opened", slog.String("path", dbPath))
	return ts, func() { _ = ts.Close() }
}

// splitOrigins parses a comma-separated origin list. Empty input yields nil
// so the server falls back to its defaults.
func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

package server

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/locscout/locscout-go/internal/completion"
	"github.com/locscout/locscout-go/internal/embedding"
)

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	// client is the Qdrant gRPC client to probe.
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
// Returns nil if Qdrant is reachable, or a descriptive error otherwise.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	_, err := p.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// EncoderPinger probes the embedding backend with a one-word embed request.
type EncoderPinger struct {
	// encoder is the embedding gateway to probe.
	encoder embedding.Encoder
}

// NewEncoderPinger constructs an EncoderPinger for the given encoder.
func NewEncoderPinger(enc embedding.Encoder) *EncoderPinger {
	return &EncoderPinger{encoder: enc}
}

// Name returns the dependency label used in readiness responses.
func (p *EncoderPinger) Name() string { return "embedding" }

// Ping embeds a single short text. Cheap for every supported backend.
func (p *EncoderPinger) Ping(ctx context.Context) error {
	if _, err := p.encoder.EmbedText(ctx, "ping"); err != nil {
		return fmt.Errorf("embed probe failed: %w", err)
	}
	return nil
}

// CompleterPinger probes the chat-completion backend with a minimal
// single-token request. Note this consumes tokens on metered backends, so
// it is only wired when follow-up chat is enabled.
type CompleterPinger struct {
	// completer is the completion gateway to probe.
	completer completion.Completer
}

// NewCompleterPinger constructs a CompleterPinger for the given completer.
func NewCompleterPinger(c completion.Completer) *CompleterPinger {
	return &CompleterPinger{completer: c}
}

// Name returns the dependency label used in readiness responses.
func (p *CompleterPinger) Name() string { return "completion" }

// Ping sends a minimal completion request.
func (p *CompleterPinger) Ping(ctx context.Context) error {
	turns := []completion.Turn{{Role: completion.RoleUser, Content: "ping"}}
	if _, err := p.completer.Complete(ctx, "Reply with the single word: pong.", turns); err != nil {
		return fmt.Errorf("completion probe failed: %w", err)
	}
	return nil
}

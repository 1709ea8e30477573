package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ClipEncoder implements Encoder using a CLIP embedding sidecar that exposes
// POST /embed/text and POST /embed/image. CLIP projects both modalities into
// the same vector space, so text and image queries are directly comparable.
// It is safe for concurrent use.
type ClipEncoder struct {
	// endpoint is the sidecar base URL (e.g. "http://localhost:8001").
	endpoint string
	// model is the CLIP variant name reported to the sidecar (e.g. "ViT-B-32").
	model string
	// dimensions is the vector size the sidecar produces.
	dimensions int
	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// ClipConfig holds the settings for constructing a ClipEncoder.
type ClipConfig struct {
	// Endpoint is the sidecar base URL (e.g. "http://localhost:8001").
	Endpoint string
	// Model is the CLIP variant name (e.g. "ViT-B-32").
	Model string
	// Dimensions is the vector size (ViT-B-32 produces 512).
	Dimensions int
}

// NewClipEncoder constructs a ClipEncoder from the given config.
func NewClipEncoder(cfg *ClipConfig) *ClipEncoder {
	return &ClipEncoder{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Dimensions returns the vector size this encoder produces.
func (e *ClipEncoder) Dimensions() int { return e.dimensions }

// clipEmbedRequest is the JSON body sent to the sidecar endpoints.
// Exactly one of Text or Image (base64) is populated.
type clipEmbedRequest struct {
	Model string `json:"model,omitempty"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// clipEmbedResponse is the JSON body returned from the sidecar endpoints.
type clipEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// EmbedText converts a single text into its embedding.
func (e *ClipEncoder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &EncodingError{Reason: "empty text"}
	}
	return e.post(ctx, "/embed/text", clipEmbedRequest{Model: e.model, Text: text})
}

// EmbedImage converts raw image bytes into an embedding. The payload is
// sniffed locally first so undecodable uploads fail fast with an
// *EncodingError instead of a round-trip to the sidecar.
func (e *ClipEncoder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	if err := ValidateImage(image); err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(image)
	return e.post(ctx, "/embed/image", clipEmbedRequest{Model: e.model, Image: encoded})
}

// post sends an embed request to the sidecar and decodes the vector.
func (e *ClipEncoder) post(ctx context.Context, path string, body clipEmbedRequest) ([]float32, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("clip encoder: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("clip encoder: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clip encoder: request failed: %w", err)
	}
	defer resp.Body.Close()

	var result clipEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("clip encoder: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != "" {
			msg = result.Error
		}
		return nil, fmt.Errorf("clip encoder: %s", msg)
	}

	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("clip encoder: empty embedding in response")
	}
	if e.dimensions > 0 && len(result.Embedding) != e.dimensions {
		return nil, fmt.Errorf("clip encoder: expected %d dimensions, got %d", e.dimensions, len(result.Embedding))
	}

	return Normalize(result.Embedding), nil
}

// imageMagicPrefixes maps the supported image formats to their magic-byte
// prefixes. WebP is sniffed separately because its magic spans two ranges.
var imageMagicPrefixes = map[string][]byte{
	"jpeg": {0xFF, 0xD8, 0xFF},
	"png":  {0x89, 0x50, 0x4E, 0x47},
	"gif":  []byte("GIF8"),
}

// ValidateImage checks that the payload looks like a decodable image in a
// supported format (JPEG, PNG, GIF, WebP). Returns an *EncodingError when
// the bytes are empty or unrecognised.
func ValidateImage(image []byte) error {
	if len(image) == 0 {
		return &EncodingError{Reason: "empty image payload"}
	}
	for _, prefix := range imageMagicPrefixes {
		if bytes.HasPrefix(image, prefix) {
			return nil
		}
	}
	// WebP: "RIFF....WEBP".
	if len(image) >= 12 && bytes.Equal(image[0:4], []byte("RIFF")) && bytes.Equal(image[8:12], []byte("WEBP")) {
		return nil
	}
	return &EncodingError{Reason: "unrecognised image format (supported: jpeg, png, gif, webp)"}
}

package index

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds connection parameters for a Qdrant-backed index.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this collection.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantIndex implements Index backed by a Qdrant instance.
type QdrantIndex struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this index.
	cfg *QdrantConfig
}

// NewQdrantIndex creates a new QdrantIndex, ensuring the target collection
// exists (creating it with cosine distance if necessary), and returns a
// ready-to-use Index.
func NewQdrantIndex(ctx context.Context, cfg *QdrantConfig) (*QdrantIndex, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	clientCfg := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	}

	client, err := qdrant.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	idx := &QdrantIndex{client: client, cfg: cfg}
	if err := idx.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return idx, nil
}

// ensureCollection creates the Qdrant collection if it does not already exist.
func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.cfg.Collection)
	if err != nil {
		return &UnavailableError{Op: "ensure collection", Err: err}
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return &UnavailableError{Op: "ensure collection", Err: err}
	}

	return nil
}

// Upsert stores or updates a batch of entries. Each entry must have its
// embedding pre-computed and normalized.
func (q *QdrantIndex) Upsert(ctx context.Context, entries []Entry) error {
	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, e := range entries {
		payload := map[string]interface{}{
			"title":         e.Payload.Title,
			"reference":     e.Payload.Reference,
			"description":   e.Payload.Description,
			"location_type": e.Payload.LocationType,
		}
		if len(e.Payload.Features) > 0 {
			features := make([]interface{}, len(e.Payload.Features))
			for i, f := range e.Payload.Features {
				features[i] = f
			}
			payload["features"] = features
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(e.ID),
			Vectors: qdrant.NewVectors(e.Vector...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return &UnavailableError{Op: "upsert", Err: err}
	}

	return nil
}

// NearestNeighbors performs a cosine similarity search, returning candidates
// at or above scoreThreshold in descending score order.
func (q *QdrantIndex) NearestNeighbors(ctx context.Context, vector []float32, limit int, scoreThreshold float32) ([]Candidate, error) {
	lim := uint64(limit)
	query := &qdrant.QueryPoints{
		CollectionName: q.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if scoreThreshold > 0 {
		query.ScoreThreshold = &scoreThreshold
	}

	results, err := q.client.Query(ctx, query)
	if err != nil {
		return nil, &UnavailableError{Op: "search", Err: err}
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		c := Candidate{
			ID:    r.Id.GetUuid(),
			Score: r.Score,
		}
		if p := r.Payload; p != nil {
			if v, ok := p["title"]; ok {
				c.Payload.Title = v.GetStringValue()
			}
			if v, ok := p["reference"]; ok {
				c.Payload.Reference = v.GetStringValue()
			}
			if v, ok := p["description"]; ok {
				c.Payload.Description = v.GetStringValue()
			}
			if v, ok := p["location_type"]; ok {
				c.Payload.LocationType = v.GetStringValue()
			}
			if v, ok := p["features"]; ok {
				if list := v.GetListValue(); list != nil {
					for _, item := range list.Values {
						if s := item.GetStringValue(); s != "" {
							c.Payload.Features = append(c.Payload.Features, s)
						}
					}
				}
			}
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// Client exposes the underlying gRPC client for health probes.
func (q *QdrantIndex) Client() *qdrant.Client {
	return q.client
}

// Close closes the underlying Qdrant gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

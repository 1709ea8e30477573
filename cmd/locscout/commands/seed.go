package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/locscout/locscout-go/internal/embedding"
	"github.com/locscout/locscout-go/internal/logging"
	"github.com/locscout/locscout-go/internal/seed"
)

// NewSeedCmd constructs the `locscout seed` command, which embeds the built-in
// location catalog and upserts it into the Qdrant index.
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the vector index with the built-in location catalog",
		Long: `Embed the built-in film location catalog and upsert it into Qdrant.

Seeding is idempotent: entry IDs are derived from location titles, so running
it again updates existing entries in place instead of duplicating them.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: film_locations)
  EMBEDDING_PROVIDER   Embedding backend: clip, ollama, openai (default: clip)

Examples:
  locscout seed
  EMBEDDING_PROVIDER=ollama locscout seed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if err := embedding.ValidateForSearch(log); err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			encoder, err := embedding.NewFromEnv()
			if err != nil {
				return fmt.Errorf("seed: failed to initialise embedding backend: %w", err)
			}
			log.Info("embedding backend initialised", slog.String("provider", embedding.ResolveBackend()))

			idx, err := buildIndex(ctx, log)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			defer func() { _ = idx.Close() }()

			seeder, err := seed.NewSeeder(encoder, idx)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			catalog := seed.Catalog()
			log.Info("seeding catalog", slog.Int("locations", len(catalog)))

			if err := seeder.Seed(ctx, catalog, func(msg string) {
				log.Info(msg)
			}); err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			log.Info("seeding complete", slog.Int("locations", len(catalog)))
			return nil
		},
	}

	return cmd
}

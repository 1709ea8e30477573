// Package seed implements the location catalog seeding pipeline: it embeds
// the description of each catalog entry and upserts the results into the
// vector index. Invoked by the `locscout seed` CLI command so a fresh Qdrant
// instance can serve searches immediately.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/locscout/locscout-go/internal/embedding"
	"github.com/locscout/locscout-go/internal/index"
)

// idNamespace makes catalog entry IDs deterministic: re-seeding updates
// entries in place instead of duplicating them.
var idNamespace = uuid.MustParse("9f2c3b7a-5d41-4e8a-9c06-2b8f0a1d6e53")

// Location is one seedable catalog entry.
type Location struct {
	// Title is the display name, unique within the catalog.
	Title string
	// Reference is a link or catalogue reference for the location.
	Reference string
	// Description is the text that gets embedded for similarity search.
	Description string
	// LocationType categorises the location.
	LocationType string
	// Features lists notable attributes.
	Features []string
}

// Seeder embeds and upserts catalog entries.
type Seeder struct {
	encoder embedding.Encoder
	index   index.Index
}

// NewSeeder constructs a Seeder from the provided gateways.
func NewSeeder(encoder embedding.Encoder, idx index.Index) (*Seeder, error) {
	if encoder == nil {
		return nil, fmt.Errorf("seed: encoder must not be nil")
	}
	if idx == nil {
		return nil, fmt.Errorf("seed: index must not be nil")
	}
	return &Seeder{encoder: encoder, index: idx}, nil
}

// Seed embeds every location description and upserts the batch. Progress is
// reported via the optional callback. Returns the first error encountered.
func (s *Seeder) Seed(ctx context.Context, locations []Location, progress func(msg string)) error {
	if progress == nil {
		progress = func(string) {}
	}

	entries := make([]index.Entry, 0, len(locations))
	for _, loc := range locations {
		progress(fmt.Sprintf("embedding %q", loc.Title))

		vec, err := s.encoder.EmbedText(ctx, embeddingText(loc))
		if err != nil {
			return fmt.Errorf("seed: embedding failed for %q: %w", loc.Title, err)
		}

		entries = append(entries, index.Entry{
			ID:     uuid.NewSHA1(idNamespace, []byte(loc.Title)).String(),
			Vector: vec,
			Payload: index.Payload{
				Title:        loc.Title,
				Reference:    loc.Reference,
				Description:  loc.Description,
				LocationType: loc.LocationType,
				Features:     loc.Features,
			},
		})
	}

	if err := s.index.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("seed: upsert failed: %w", err)
	}
	progress(fmt.Sprintf("seeded %d locations", len(entries)))
	return nil
}

// embeddingText builds the text embedded for a location: the description
// enriched with the type and features so tag-style queries match well.
func embeddingText(loc Location) string {
	text := loc.Description
	if loc.LocationType != "" {
		text += " " + loc.LocationType
	}
	for _, f := range loc.Features {
		text += " " + f
	}
	return text
}

// Catalog returns the built-in film location catalog.
func Catalog() []Location {
	return []Location{
		{
			Title:        "Whitby Abbey",
			Reference:    "https://locations.example.com/whitby-abbey",
			Description:  "Gothic monastery ruins on a headland above the North Sea, windswept and dramatic at dusk.",
			LocationType: "ruins",
			Features:     []string{"gothic", "coastal", "dramatic", "outdoor"},
		},
		{
			Title:        "Glencoe Cabin",
			Reference:    "https://locations.example.com/glencoe-cabin",
			Description:  "Rustic timber cabin in a remote Highland glen, surrounded by mountains and heather.",
			LocationType: "cabin",
			Features:     []string{"rustic", "mountain", "remote", "outdoor"},
		},
		{
			Title:        "Battersea Boiler House",
			Reference:    "https://locations.example.com/battersea-boiler-house",
			Description:  "Cavernous disused industrial hall with exposed brick, steel gantries, and shafts of daylight.",
			LocationType: "warehouse",
			Features:     []string{"industrial", "abandoned", "spacious", "urban"},
		},
		{
			Title:        "Alnwick Castle",
			Reference:    "https://locations.example.com/alnwick-castle",
			Description:  "Medieval castle with intact battlements, courtyards, and state rooms open for filming.",
			LocationType: "castle",
			Features:     []string{"medieval", "gothic", "dramatic"},
		},
		{
			Title:        "Camber Sands",
			Reference:    "https://locations.example.com/camber-sands",
			Description:  "Wide dune-backed beach with miles of flat sand, doubling easily for desert coastline.",
			LocationType: "beach",
			Features:     []string{"coastal", "outdoor", "bright", "spacious"},
		},
		{
			Title:        "Hardraw Force Waterfall",
			Reference:    "https://locations.example.com/hardraw-force",
			Description:  "England's highest single-drop waterfall in a wooded gorge, secluded and atmospheric.",
			LocationType: "waterfall",
			Features:     []string{"forest", "secluded", "outdoor", "dramatic"},
		},
		{
			Title:        "Shoreditch Rooftop",
			Reference:    "https://locations.example.com/shoreditch-rooftop",
			Description:  "Modern rooftop terrace with panoramic city skyline views and an industrial-chic interior below.",
			LocationType: "rooftop",
			Features:     []string{"urban", "modern", "bright"},
		},
		{
			Title:        "St Pancras Grand Staircase",
			Reference:    "https://locations.example.com/st-pancras-staircase",
			Description:  "Sweeping Victorian gothic staircase with vaulted ceilings and ornate ironwork.",
			LocationType: "interior",
			Features:     []string{"victorian", "gothic", "indoor", "dramatic"},
		},
		{
			Title:        "Dungeness Coastguard Cottage",
			Reference:    "https://locations.example.com/dungeness-cottage",
			Description:  "Weatherboard cottage on a shingle headland, stark and eerie under open skies, lighthouse nearby.",
			LocationType: "cottage",
			Features:     []string{"coastal", "eerie", "remote", "vintage"},
		},
		{
			Title:        "Kielder Forest Lodge",
			Reference:    "https://locations.example.com/kielder-lodge",
			Description:  "Cozy log lodge deep in conifer forest beside a still lake, dark skies and total seclusion.",
			LocationType: "cabin",
			Features:     []string{"forest", "cozy", "secluded", "lakeside"},
		},
		{
			Title:        "Manchester Victoria Baths",
			Reference:    "https://locations.example.com/victoria-baths",
			Description:  "Abandoned Edwardian swimming baths with stained glass, glazed tiles, and faded grandeur.",
			LocationType: "interior",
			Features:     []string{"abandoned", "vintage", "indoor", "eerie"},
		},
		{
			Title:        "Isle of Skye Cliffs",
			Reference:    "https://locations.example.com/skye-cliffs",
			Description:  "Towering basalt sea cliffs with pinnacles and crashing surf, vast and otherworldly.",
			LocationType: "cliff",
			Features:     []string{"coastal", "dramatic", "remote", "outdoor"},
		},
	}
}

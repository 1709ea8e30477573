package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/locscout/locscout-go/internal/index"
)

// unitEncoder returns a constant unit vector for any text.
type unitEncoder struct{ calls int }

func (e *unitEncoder) EmbedText(_ context.Context, _ string) ([]float32, error) {
	e.calls++
	return []float32{1, 0, 0}, nil
}

func (e *unitEncoder) EmbedImage(_ context.Context, _ []byte) ([]float32, error) {
	return nil, nil
}

func (e *unitEncoder) Dimensions() int { return 3 }

func TestSeedCatalog(t *testing.T) {
	t.Parallel()

	enc := &unitEncoder{}
	idx := index.NewMemoryIndex()
	s, err := NewSeeder(enc, idx)
	if err != nil {
		t.Fatalf("NewSeeder: %v", err)
	}

	var progressLines []string
	err = s.Seed(context.Background(), Catalog(), func(msg string) {
		progressLines = append(progressLines, msg)
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	catalog := Catalog()
	if idx.Len() != len(catalog) {
		t.Errorf("index holds %d entries, want %d", idx.Len(), len(catalog))
	}
	if enc.calls != len(catalog) {
		t.Errorf("EmbedText calls = %d, want %d", enc.calls, len(catalog))
	}
	if len(progressLines) == 0 || !strings.Contains(progressLines[len(progressLines)-1], "seeded") {
		t.Errorf("progress reporting missing: %v", progressLines)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	t.Parallel()

	idx := index.NewMemoryIndex()
	s, _ := NewSeeder(&unitEncoder{}, idx)

	if err := s.Seed(context.Background(), Catalog(), nil); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := s.Seed(context.Background(), Catalog(), nil); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if idx.Len() != len(Catalog()) {
		t.Errorf("re-seeding duplicated entries: %d", idx.Len())
	}
}

func TestCatalogTitlesUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for _, loc := range Catalog() {
		if _, dup := seen[loc.Title]; dup {
			t.Errorf("duplicate catalog title %q", loc.Title)
		}
		seen[loc.Title] = struct{}{}
		if loc.Description == "" || loc.Reference == "" {
			t.Errorf("catalog entry %q missing description or reference", loc.Title)
		}
	}
}

package convo

import (
	"strings"
	"testing"

	"github.com/locscout/locscout-go/internal/index"
)

func candidate(title string, score float32) index.Candidate {
	return index.Candidate{
		ID:    title + "-id",
		Score: score,
		Payload: index.Payload{
			Title:     title,
			Reference: "https://locations.example.com/" + title,
		},
	}
}

func TestDedupKeepsFirstOccurrence(t *testing.T) {
	t.Parallel()

	in := []index.Candidate{
		candidate("Whitby Abbey", 0.95),
		candidate("Whitby Abbey", 0.91),
		candidate("Alnwick Castle", 0.88),
		candidate("whitby abbey", 0.85), // case-insensitive duplicate
		candidate("Camber Sands", 0.80),
	}

	got := Dedup(in, 5)
	if len(got) != 3 {
		t.Fatalf("got %d uniques, want 3", len(got))
	}
	if got[0].Score != 0.95 {
		t.Errorf("kept occurrence score = %v, want the first (highest) 0.95", got[0].Score)
	}
	if got[1].Payload.Title != "Alnwick Castle" || got[2].Payload.Title != "Camber Sands" {
		t.Errorf("order not preserved: %v, %v", got[1].Payload.Title, got[2].Payload.Title)
	}
}

func TestDedupRespectsDesiredCount(t *testing.T) {
	t.Parallel()

	in := []index.Candidate{
		candidate("A", 0.9), candidate("B", 0.8), candidate("C", 0.7), candidate("D", 0.6),
	}
	got := Dedup(in, 2)
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}
	if got[0].Payload.Title != "A" || got[1].Payload.Title != "B" {
		t.Errorf("wrong candidates kept: %v", got)
	}
}

func TestFormatEmpty(t *testing.T) {
	t.Parallel()

	if got := Format(nil, "text"); got != noMatchesResponse {
		t.Errorf("Format(nil) = %q", got)
	}
}

func TestFormatHeaderAndRanks(t *testing.T) {
	t.Parallel()

	out := Format([]index.Candidate{
		candidate("Whitby Abbey", 0.95),
		candidate("Alnwick Castle", 0.88),
	}, "image and text")

	if !strings.Contains(out, "Found 2 locations matching your image and text search:") {
		t.Errorf("header missing or wrong:\n%s", out)
	}
	if !strings.Contains(out, "1. Whitby Abbey") || !strings.Contains(out, "2. Alnwick Castle") {
		t.Errorf("ranks missing:\n%s", out)
	}
}

func TestFormatOmitsAbsentFields(t *testing.T) {
	t.Parallel()

	out := Format([]index.Candidate{{
		ID:      "x",
		Score:   0.9,
		Payload: index.Payload{Title: "Bare Location", Reference: "ref"},
	}}, "text")

	for _, label := range []string{"Description:", "Type:", "Features:"} {
		if strings.Contains(out, label) {
			t.Errorf("absent field rendered: %s\n%s", label, out)
		}
	}
}

func TestFormatCapsFeatures(t *testing.T) {
	t.Parallel()

	out := Format([]index.Candidate{{
		ID:    "x",
		Score: 0.9,
		Payload: index.Payload{
			Title:    "Feature Rich",
			Features: []string{"one", "two", "three", "four", "five"},
		},
	}}, "text")

	if !strings.Contains(out, "Features: one, two, three") {
		t.Errorf("features not capped at 3:\n%s", out)
	}
	if strings.Contains(out, "four") || strings.Contains(out, "five") {
		t.Errorf("more than 3 features rendered:\n%s", out)
	}
}

func TestFormatSingularNoun(t *testing.T) {
	t.Parallel()

	out := Format([]index.Candidate{candidate("Only One", 0.9)}, "image")
	if !strings.Contains(out, "Found 1 location matching your image search:") {
		t.Errorf("singular header wrong:\n%s", out)
	}
}

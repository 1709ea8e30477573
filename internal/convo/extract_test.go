package convo

import (
	"reflect"
	"testing"
)

func TestExtractVocabulary(t *testing.T) {
	t.Parallel()

	x := NewKeywordExtractor()
	got := x.Extract("I want an outdoor rustic cabin")

	want := []string{"outdoor", "cabin", "rustic"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractCaseInsensitive(t *testing.T) {
	t.Parallel()

	x := NewKeywordExtractor()
	got := x.Extract("Something GOTHIC and Abandoned")

	want := []string{"gothic", "abandoned"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractTriggerPhrase(t *testing.T) {
	t.Parallel()

	x := NewKeywordExtractor()
	// "big red door" matches no vocabulary keyword, so the captured trigger
	// phrase survives as its own tag.
	got := x.Extract("looking for a big red door. It should be old.")

	want := []string{"big red door"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractTriggerPhraseSuppressedByVocabularyHit(t *testing.T) {
	t.Parallel()

	x := NewKeywordExtractor()
	// The phrase after "want" contains vocabulary hits, so only the keyword
	// tags are kept, not the raw phrase.
	got := x.Extract("I want a modern warehouse")

	want := []string{"warehouse", "modern"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractNoMatches(t *testing.T) {
	t.Parallel()

	x := NewKeywordExtractor()
	if got := x.Extract("hello there"); len(got) != 0 {
		t.Errorf("Extract = %v, want empty", got)
	}
}

func TestExtractDeduplicates(t *testing.T) {
	t.Parallel()

	x := NewKeywordExtractor()
	got := x.Extract("beach beach beach, and more beach")

	if !reflect.DeepEqual(got, []string{"beach"}) {
		t.Errorf("Extract = %v, want [beach]", got)
	}
}

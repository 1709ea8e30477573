package convo

import (
	"regexp"
	"strings"
)

// Extractor maps free text to a deduplicated list of requirement tags. It is
// a heuristic, not NLP: false negatives and false positives are expected and
// acceptable. Implementations must be safe for concurrent use.
type Extractor interface {
	Extract(text string) []string
}

// requirementVocabulary is the fixed keyword list matched case-insensitively
// as substrings. Each hit maps to the keyword itself as the canonical tag.
var requirementVocabulary = []string{
	// setting
	"outdoor", "indoor", "urban", "rural", "remote", "rooftop",
	"mountain", "beach", "forest", "desert", "coastal", "lakeside",
	"waterfall", "cliff", "island", "countryside",
	// structures
	"cabin", "castle", "mansion", "warehouse", "barn", "church",
	"lighthouse", "bridge", "tunnel", "ruins", "farmhouse", "cottage",
	// style
	"modern", "rustic", "industrial", "gothic", "victorian", "vintage",
	"minimalist", "futuristic", "medieval", "art deco",
	// mood
	"abandoned", "cozy", "spacious", "dark", "bright", "dramatic",
	"eerie", "romantic", "secluded",
}

// triggerPattern captures a free-form descriptive phrase following a trigger
// word, up to the next sentence boundary.
var triggerPattern = regexp.MustCompile(`(?i)\b(?:looking for|with|need|want)\b\s+([^.!?\n]+)`)

// leadingArticles are stripped from captured phrases.
var leadingArticles = []string{"a ", "an ", "the ", "some "}

// KeywordExtractor is the default Extractor: vocabulary substring matching
// plus trigger-phrase capture.
type KeywordExtractor struct{}

// NewKeywordExtractor returns the default extractor.
func NewKeywordExtractor() *KeywordExtractor { return &KeywordExtractor{} }

// Extract returns requirement tags found in text: every vocabulary keyword
// present as a case-insensitive substring, plus captured trigger phrases
// that contain no vocabulary hit of their own (phrases that do are already
// covered by their keywords). The result is deduplicated, in scan order.
func (x *KeywordExtractor) Extract(text string) []string {
	lower := strings.ToLower(text)

	var tags []string
	seen := make(map[string]struct{})
	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, kw := range requirementVocabulary {
		if strings.Contains(lower, kw) {
			add(kw)
		}
	}

	for _, m := range triggerPattern.FindAllStringSubmatch(lower, -1) {
		phrase := cleanPhrase(m[1])
		if phrase == "" || len(phrase) > 60 {
			continue
		}
		if containsVocabulary(phrase) {
			continue
		}
		add(phrase)
	}

	return tags
}

// cleanPhrase trims whitespace, punctuation, and leading articles from a
// captured trigger phrase.
func cleanPhrase(phrase string) string {
	phrase = strings.TrimSpace(phrase)
	phrase = strings.Trim(phrase, ",;:")
	phrase = strings.TrimSpace(phrase)
	for _, art := range leadingArticles {
		if strings.HasPrefix(phrase, art) {
			phrase = phrase[len(art):]
			break
		}
	}
	return strings.TrimSpace(phrase)
}

// containsVocabulary reports whether any vocabulary keyword occurs in s.
func containsVocabulary(s string) bool {
	for _, kw := range requirementVocabulary {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

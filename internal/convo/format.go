package convo

import (
	"fmt"
	"strings"

	"github.com/locscout/locscout-go/internal/index"
)

// noMatchesResponse is returned when a search yields no candidates.
const noMatchesResponse = "I couldn't find any locations matching your requirements. Try describing the scene differently, or say \"new search\" to start over."

// maxFeaturesShown caps the feature list rendered per candidate.
const maxFeaturesShown = 3

// Dedup scans candidates in index order, keeping the first occurrence of
// each distinct display title (case-insensitive) and stopping once desired
// uniques are collected. The index's native score ordering is trusted; the
// input is never re-sorted.
func Dedup(candidates []index.Candidate, desired int) []index.Candidate {
	seen := make(map[string]struct{}, desired)
	out := make([]index.Candidate, 0, desired)
	for _, c := range candidates {
		key := strings.ToLower(strings.TrimSpace(c.Payload.Title))
		if key == "" {
			key = c.ID
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
		if desired > 0 && len(out) >= desired {
			break
		}
	}
	return out
}

// Format renders a deduplicated candidate list as user-facing text. The
// header states the count and search modality ("text", "image", or
// "image and text"); each candidate gets its 1-based rank, title, and
// reference, followed by only the optional fields actually present.
// Candidates are rendered in the given order.
func Format(candidates []index.Candidate, searchType string) string {
	if len(candidates) == 0 {
		return noMatchesResponse
	}

	var b strings.Builder
	noun := "locations"
	if len(candidates) == 1 {
		noun = "location"
	}
	fmt.Fprintf(&b, "Found %d %s matching your %s search:\n", len(candidates), noun, searchType)

	for i, c := range candidates {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, c.Payload.Title)
		if c.Payload.Reference != "" {
			fmt.Fprintf(&b, "   Reference: %s\n", c.Payload.Reference)
		}
		if c.Payload.LocationType != "" {
			fmt.Fprintf(&b, "   Type: %s\n", c.Payload.LocationType)
		}
		if c.Payload.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", c.Payload.Description)
		}
		if len(c.Payload.Features) > 0 {
			features := c.Payload.Features
			if len(features) > maxFeaturesShown {
				features = features[:maxFeaturesShown]
			}
			fmt.Fprintf(&b, "   Features: %s\n", strings.Join(features, ", "))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

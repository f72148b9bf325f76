package derive

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// UnassignedPath marks entities no rule matched. Every entity gets at
// least this, so resolution_paths is never empty after a compute pass.
const UnassignedPath = "Unassigned"

// HighConnectionThreshold is the link count at which a character reads as
// community-driven regardless of keywords.
const HighConnectionThreshold = 5

// pathRule maps keywords to one resolution path. Rules are data so new
// paths are a table edit, not new code.
type pathRule struct {
	Path     string
	Keywords []string
}

var pathRules = []pathRule{
	{Path: "Black Market", Keywords: []string{"black market", "memory", "trade"}},
	{Path: "Detective", Keywords: []string{"evidence", "clue", "investigation"}},
	{Path: "Third Path", Keywords: []string{"community", "personal", "together"}},
}

// classifyPaths matches the rule table against the given text fragments.
// Matching is case-insensitive; each path appears at most once, in rule
// order. No match yields the Unassigned fallback.
func classifyPaths(fragments ...string) models.StringList {
	text := strings.ToLower(strings.Join(fragments, " "))

	var paths models.StringList
	for _, rule := range pathRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				paths = append(paths, rule.Path)
				break
			}
		}
	}
	if len(paths) == 0 {
		return models.StringList{UnassignedPath}
	}
	return paths
}

/*
Package watch normalizes scraped row text and matches it against the tracked names.
*/
package watch

import (
	"slices"
	"strings"

	"github.com/shanehull/racealert/internal/types"
)

// Normalize lowercases raw and collapses every whitespace run to a single space.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

func NewRow(raw string) types.Row {
	return types.Row{Raw: raw, Normalized: Normalize(raw)}
}

// ParseNames splits a comma-separated list of names.
func ParseNames(s string) []string {
	parts := strings.Split(s, ",")
	var names []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

// Watchlist is a sorted, deduplicated set of lowercase tracked names.
type Watchlist struct {
	names []types.TrackedName
}

func NewWatchlist(names []string) Watchlist {
	seen := make(map[types.TrackedName]struct{}, len(names))
	var list []types.TrackedName
	for _, n := range names {
		name := types.TrackedName(Normalize(n))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		list = append(list, name)
	}
	slices.Sort(list)
	return Watchlist{names: list}
}

func (w Watchlist) Names() []types.TrackedName {
	return slices.Clone(w.names)
}

func (w Watchlist) Len() int {
	return len(w.names)
}

// Match emits one match per (row, name) pair where the normalized row contains the name.
// Rows are visited in order and names alphabetically, so a row naming two horses yields two
// matches. Containment is a plain substring test: "diver" also matches "diversity".
func (w Watchlist) Match(rows []types.Row) []types.Match {
	var matches []types.Match
	for _, row := range rows {
		if row.Normalized == "" && row.Raw != "" {
			row.Normalized = Normalize(row.Raw)
		}
		for _, name := range w.names {
			if strings.Contains(row.Normalized, string(name)) {
				matches = append(matches, types.Match{Name: name, Row: row})
			}
		}
	}
	return matches
}

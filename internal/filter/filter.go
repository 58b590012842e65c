// Package filter decides which nodes the user currently wants to see.
//
// A FilterState is a value: every modifier returns a copy, so a state handed
// to a projection can never change underneath it.
package filter

import (
	"sort"
	"strings"

	"cpgview/internal/domain"
)

// CategoryFilter is one of the category toggles shown to the user
type CategoryFilter = domain.Category

// FilterState is the user's search text plus category toggles
type FilterState struct {
	SearchTerm string                  `json:"search_term" yaml:"search_term"`
	Enabled    map[CategoryFilter]bool `json:"enabled" yaml:"enabled"`
}

// Default matches everything: empty search, all categories enabled
func Default() FilterState {
	enabled := make(map[CategoryFilter]bool, len(domain.Categories))
	for _, c := range domain.Categories {
		enabled[c] = true
	}
	return FilterState{Enabled: enabled}
}

// WithSearch returns a copy with the given search term
func (f FilterState) WithSearch(term string) FilterState {
	out := f.Clone()
	out.SearchTerm = term
	return out
}

// WithCategories returns a copy where exactly the given categories are enabled
func (f FilterState) WithCategories(categories ...CategoryFilter) FilterState {
	out := f.Clone()
	for _, c := range domain.Categories {
		out.Enabled[c] = false
	}
	for _, c := range categories {
		out.Enabled[c] = true
	}
	return out
}

// Toggle returns a copy with category c flipped
func (f FilterState) Toggle(c CategoryFilter) FilterState {
	out := f.Clone()
	out.Enabled[c] = !out.Enabled[c]
	return out
}

// EnabledCategories lists the enabled categories in display order
func (f FilterState) EnabledCategories() []CategoryFilter {
	var out []CategoryFilter
	for _, c := range domain.Categories {
		if f.Enabled[c] {
			out = append(out, c)
		}
	}
	return out
}

// IsDefault reports whether the state matches every node
func (f FilterState) IsDefault() bool {
	if strings.TrimSpace(f.SearchTerm) != "" {
		return false
	}
	return len(f.EnabledCategories()) == len(domain.Categories)
}

// Matches reports whether node passes both the search term and at least one
// enabled category. With no category enabled nothing matches.
func (f FilterState) Matches(node domain.Node) bool {
	tags := node.Tags
	if !tags.Computed {
		tags = domain.DefaultTagger().Tag(node)
	}

	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	if term != "" && !tags.Contains(term) {
		return false
	}

	for c, on := range f.Enabled {
		if on && tags.Has(c) {
			return true
		}
	}
	return false
}

// String renders the state for logs
func (f FilterState) String() string {
	names := make([]string, 0, len(f.Enabled))
	for c, on := range f.Enabled {
		if on {
			names = append(names, string(c))
		}
	}
	sort.Strings(names)
	return "search=" + strings.TrimSpace(f.SearchTerm) + " categories=" + strings.Join(names, ",")
}

// Clone returns a deep copy
func (f FilterState) Clone() FilterState {
	enabled := make(map[CategoryFilter]bool, len(f.Enabled))
	for c, on := range f.Enabled {
		enabled[c] = on
	}
	return FilterState{SearchTerm: f.SearchTerm, Enabled: enabled}
}

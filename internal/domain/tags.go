package domain

import "strings"

// Category is a user-selectable class of nodes
type Category string

const (
	CategoryFunction Category = "function"
	CategoryVariable Category = "variable"
	CategoryOperator Category = "operator"
	CategoryLiteral  Category = "literal"
	CategoryUnsafe   Category = "unsafe"
	CategoryOther    Category = "other"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryFunction,
	CategoryVariable,
	CategoryOperator,
	CategoryLiteral,
	CategoryUnsafe,
	CategoryOther,
}

// ParseCategory converts a string to a Category
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// NodeTags is the classification of a node, computed once by a Tagger
type NodeTags struct {
	Function bool `json:"function,omitempty"`
	Variable bool `json:"variable,omitempty"`
	Operator bool `json:"operator,omitempty"`
	Literal  bool `json:"literal,omitempty"`
	Unsafe   bool `json:"unsafe,omitempty"`

	// Computed is false for nodes that never went through a Tagger
	Computed bool `json:"-"`

	// haystack is the lower-cased label, id and property values joined by NUL
	haystack string
}

// Has reports whether the node belongs to category c.
// CategoryOther holds for nodes outside every specific category.
func (t NodeTags) Has(c Category) bool {
	switch c {
	case CategoryFunction:
		return t.Function
	case CategoryVariable:
		return t.Variable
	case CategoryOperator:
		return t.Operator
	case CategoryLiteral:
		return t.Literal
	case CategoryUnsafe:
		return t.Unsafe
	case CategoryOther:
		return !t.Function && !t.Variable && !t.Operator && !t.Literal && !t.Unsafe
	}
	return false
}

// Names returns the categories the node belongs to
func (t NodeTags) Names() []string {
	var names []string
	for _, c := range Categories {
		if t.Has(c) {
			names = append(names, string(c))
		}
	}
	return names
}

// Contains reports whether the lower-cased term occurs in the label, id or
// any property value of the tagged node
func (t NodeTags) Contains(lowerTerm string) bool {
	return strings.Contains(t.haystack, lowerTerm)
}

// DefaultUnsafeMarkers flag raw-pointer and unchecked-memory usage in node code
var DefaultUnsafeMarkers = []string{
	"unsafe",
	"*mut ",
	"*const ",
	"UnsafeCell",
	"MaybeUninit",
	"assume_init",
	"from_raw",
	"into_raw",
}

// DefaultCategoryKeywords are matched case-insensitively against node labels
var DefaultCategoryKeywords = map[Category][]string{
	CategoryFunction: {"function", "method", "call", "lambda", "constructor"},
	CategoryVariable: {"variable", "value", "field", "parameter", "reference"},
	CategoryOperator: {"operator"},
	CategoryLiteral:  {"literal"},
}

// unsafeFlagKeys are boolean properties the backend may set explicitly
var unsafeFlagKeys = []string{"unsafe", "isUnsafe", "is_unsafe"}

// Tagger derives NodeTags from a node's label and properties
type Tagger struct {
	UnsafeMarkers []string
	Keywords      map[Category][]string
}

// DefaultTagger returns a tagger using the built-in keywords and markers
func DefaultTagger() *Tagger {
	return &Tagger{
		UnsafeMarkers: DefaultUnsafeMarkers,
		Keywords:      DefaultCategoryKeywords,
	}
}

// NewTagger creates a tagger with custom unsafe markers.
// An empty marker list falls back to DefaultUnsafeMarkers.
func NewTagger(markers []string) *Tagger {
	t := DefaultTagger()
	if len(markers) > 0 {
		t.UnsafeMarkers = markers
	}
	return t
}

// Tag computes the tags of n
func (t *Tagger) Tag(n Node) NodeTags {
	label := strings.ToLower(n.Label)
	values := PropertyText(n.Properties)

	tags := NodeTags{
		Function: t.labelHas(label, CategoryFunction),
		Variable: t.labelHas(label, CategoryVariable),
		Operator: t.labelHas(label, CategoryOperator),
		Literal:  t.labelHas(label, CategoryLiteral),
		Unsafe:   t.unsafe(n.Properties, values),
		Computed: true,
	}

	parts := make([]string, 0, len(values)+2)
	parts = append(parts, label, strings.ToLower(n.ID))
	for _, v := range values {
		parts = append(parts, strings.ToLower(v))
	}
	tags.haystack = strings.Join(parts, "\x00")

	return tags
}

// Apply returns n with freshly computed tags
func (t *Tagger) Apply(n Node) Node {
	n.Tags = t.Tag(n)
	return n
}

func (t *Tagger) labelHas(lowerLabel string, c Category) bool {
	for _, kw := range t.Keywords[c] {
		if strings.Contains(lowerLabel, kw) {
			return true
		}
	}
	return false
}

// unsafe prefers an explicit boolean flag from the backend and only scans
// property text for markers when no flag is present
func (t *Tagger) unsafe(props map[string]any, values []string) bool {
	for _, key := range unsafeFlagKeys {
		if v, ok := props[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
	}
	for _, v := range values {
		for _, marker := range t.UnsafeMarkers {
			if marker != "" && strings.Contains(v, marker) {
				return true
			}
		}
	}
	return false
}

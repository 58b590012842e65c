package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Node represents one vertex of the code property graph as returned by the
// analysis backend
type Node struct {
	ID         string         `json:"id" yaml:"id"`
	Label      string         `json:"label" yaml:"label"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`

	// Tags are derived once when the node enters a GraphStore
	Tags NodeTags `json:"tags" yaml:"-"`
}

// NewNode creates a new node with initialized properties
func NewNode(id, label string) Node {
	return Node{
		ID:         id,
		Label:      label,
		Properties: make(map[string]any),
	}
}

// WithProperty returns a copy of the node with key set to value.
// The property map is copied so the receiver is never mutated.
func (n Node) WithProperty(key string, value any) Node {
	props := make(map[string]any, len(n.Properties)+1)
	for k, v := range n.Properties {
		props[k] = v
	}
	props[key] = value
	n.Properties = props
	return n
}

// GetProperty gets a property value
func (n Node) GetProperty(key string) (any, bool) {
	if n.Properties == nil {
		return nil, false
	}
	val, ok := n.Properties[key]
	return val, ok
}

// GetPropertyString gets a property as a string
func (n Node) GetPropertyString(key string) string {
	val, ok := n.GetProperty(key)
	if !ok {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// PropertyText renders every property value as text, in key order.
// Nested values are flattened with fmt so that search and marker scanning
// see the same text the user sees in a tooltip.
func PropertyText(props map[string]any) []string {
	if len(props) == 0 {
		return nil
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, valueText(props[k]))
	}
	return values
}

func valueText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, valueText(item))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// nodeColors mirrors the palette the web UI uses per node label
var nodeColors = map[string]string{
	"ValueDeclaration":    "#4fc3f7",
	"FunctionDeclaration": "#66bb6a",
	"CallExpression":      "#ff8a65",
	"BinaryOperator":      "#ba68c8",
	"VariableDeclaration": "#29b6f6",
	"Field":               "#26c6da",
	"Literal":             "#ffab40",
	"MethodDeclaration":   "#ab47bc",
	"Block":               "#8d6e63",
	"IfStatement":         "#ff7043",
	"ForStatement":        "#7986cb",
	"WhileStatement":      "#42a5f5",
}

// DefaultNodeColor is used for labels without a dedicated colour
const DefaultNodeColor = "#78909c"

// NodeColor returns the display colour hint for a node label
func NodeColor(label string) string {
	if c, ok := nodeColors[label]; ok {
		return c
	}
	return DefaultNodeColor
}

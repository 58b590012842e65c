package domain

// RelationKind is the relationship type of an edge as labelled by the backend
type RelationKind string

const (
	RelationDataFlow       RelationKind = "DFG"
	RelationExecutionOrder RelationKind = "EOG"
	RelationSyntaxTree     RelationKind = "AST"
	RelationReference      RelationKind = "REFERS_TO"
	RelationDependency     RelationKind = "PDG"
	RelationUsage          RelationKind = "USAGE"
	RelationScope          RelationKind = "SCOPE"
)

// RelationKinds lists every relation kind an expansion asks the backend for
var RelationKinds = []RelationKind{
	RelationDataFlow,
	RelationExecutionOrder,
	RelationSyntaxTree,
	RelationReference,
	RelationDependency,
	RelationUsage,
	RelationScope,
}

// Known reports whether k is one of the fixed relation kinds
func (k RelationKind) Known() bool {
	for _, known := range RelationKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Description returns the human readable name of the relation kind
func (k RelationKind) Description() string {
	switch k {
	case RelationDataFlow:
		return "data-flow"
	case RelationExecutionOrder:
		return "execution-order"
	case RelationSyntaxTree:
		return "syntax-tree"
	case RelationReference:
		return "reference"
	case RelationDependency:
		return "dependency"
	case RelationUsage:
		return "usage"
	case RelationScope:
		return "scope"
	default:
		return string(k)
	}
}

// Edge represents a relationship between two nodes
type Edge struct {
	ID         string         `json:"id" yaml:"id"`
	From       string         `json:"from" yaml:"from"`
	To         string         `json:"to" yaml:"to"`
	Label      RelationKind   `json:"label" yaml:"label"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// NewEdge creates a new edge
func NewEdge(id, from, to string, kind RelationKind) Edge {
	return Edge{
		ID:         id,
		From:       from,
		To:         to,
		Label:      kind,
		Properties: make(map[string]any),
	}
}

// Touches reports whether nodeID is one of the edge's endpoints
func (e Edge) Touches(nodeID string) bool {
	return e.From == nodeID || e.To == nodeID
}

// Other returns the endpoint opposite nodeID. For a self-loop it returns nodeID.
func (e Edge) Other(nodeID string) string {
	if e.From == nodeID {
		return e.To
	}
	return e.From
}

// GetProperty gets a property value
func (e Edge) GetProperty(key string) (any, bool) {
	if e.Properties == nil {
		return nil, false
	}
	val, ok := e.Properties[key]
	return val, ok
}

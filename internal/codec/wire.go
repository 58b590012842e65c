package codec

import (
	"fmt"

	"cpgview/internal/domain"
)

// wireFragment is the document layout shared by the JSON and YAML codecs.
// It also accepts a raw /cypher response: node "title" in place of
// "properties" and "relationships" in place of "edges".
type wireFragment struct {
	Nodes         []wireNode `json:"nodes" yaml:"nodes"`
	Edges         []wireEdge `json:"edges" yaml:"edges"`
	Relationships []wireEdge `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

type wireNode struct {
	ID         string         `json:"id" yaml:"id"`
	Label      string         `json:"label" yaml:"label"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Title      map[string]any `json:"title,omitempty" yaml:"title,omitempty"`
}

type wireEdge struct {
	ID         string         `json:"id,omitempty" yaml:"id,omitempty"`
	From       string         `json:"from" yaml:"from"`
	To         string         `json:"to" yaml:"to"`
	Label      string         `json:"label" yaml:"label"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Title      map[string]any `json:"title,omitempty" yaml:"title,omitempty"`
}

// toWire lists a fragment in the shared layout
func toWire(fragment *domain.GraphFragment) wireFragment {
	wf := wireFragment{
		Nodes: make([]wireNode, 0, len(fragment.Nodes)),
		Edges: make([]wireEdge, 0, len(fragment.Edges)),
	}
	for _, node := range fragment.Nodes {
		wf.Nodes = append(wf.Nodes, wireNode{
			ID:         node.ID,
			Label:      node.Label,
			Properties: node.Properties,
		})
	}
	for _, edge := range fragment.Edges {
		wf.Edges = append(wf.Edges, wireEdge{
			ID:         edge.ID,
			From:       edge.From,
			To:         edge.To,
			Label:      string(edge.Label),
			Properties: edge.Properties,
		})
	}
	return wf
}

// fragment converts a decoded document, rejecting nodes without an id and
// edges without both endpoints. Edges without an id get one derived from
// their endpoints and label.
func (wf wireFragment) fragment(format string) (*domain.GraphFragment, error) {
	fragment := domain.NewGraphFragment()

	for i, wn := range wf.Nodes {
		if wn.ID == "" {
			return nil, fmt.Errorf("%w: %s: node %d has no id", ErrParse, format, i)
		}
		node := domain.NewNode(wn.ID, wn.Label)
		if props := firstProps(wn.Properties, wn.Title); props != nil {
			node.Properties = props
		}
		fragment.AddNode(node)
	}

	edges := wf.Edges
	if edges == nil {
		edges = wf.Relationships
	}
	for i, we := range edges {
		if we.From == "" || we.To == "" {
			return nil, fmt.Errorf("%w: %s: edge %d is missing an endpoint", ErrParse, format, i)
		}
		id := we.ID
		if id == "" {
			id = we.From + "-" + we.Label + "-" + we.To
		}
		edge := domain.NewEdge(id, we.From, we.To, domain.RelationKind(we.Label))
		if props := firstProps(we.Properties, we.Title); props != nil {
			edge.Properties = props
		}
		fragment.AddEdge(edge)
	}

	return fragment, nil
}

func firstProps(props, title map[string]any) map[string]any {
	if props != nil {
		return props
	}
	return title
}

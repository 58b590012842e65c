// Package expand grows the displayed graph around a node.
//
// Expansion has two halves. Fetch asks the backend for every edge incident to
// a node and may run concurrently with other fetches. Apply merges the result
// into the store and unions it into the displayed dataset; it must run on the
// goroutine that owns the store. Because merges are idempotent and
// commutative, and Apply unions into whatever is displayed at the time it
// runs, the final state does not depend on the order completions arrive in.
package expand

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cpgview/internal/backend"
	"cpgview/internal/domain"
	"cpgview/internal/store"
	"cpgview/internal/view"
)

// ErrEmptyNodeID is returned when asked to expand a node without an id
var ErrEmptyNodeID = errors.New("node id is empty")

// Kind classifies an applied expansion
type Kind string

const (
	KindExpanded         Kind = "expanded"
	KindNoNewConnections Kind = "no_new_connections"
)

// Outcome reports what an applied expansion changed
type Outcome struct {
	NodeID     string `json:"node_id"`
	AddedNodes int    `json:"added_nodes"`
	AddedEdges int    `json:"added_edges"`
	Kind       Kind   `json:"kind"`
}

// Message renders the outcome for the user
func (o Outcome) Message() string {
	if o.Kind == KindNoNewConnections {
		return "No additional connections found for node " + o.NodeID
	}
	return fmt.Sprintf("Expanded node %s: %d new nodes, %d new edges", o.NodeID, o.AddedNodes, o.AddedEdges)
}

// Querier runs a graph query against the backend. *backend.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, cypher string) (*backend.QueryResult, error)
}

// ExpansionQuery builds the cypher query returning nodeID, every incident
// edge of a known relation kind, and the far-end nodes. Numeric ids are
// matched with id(), anything else with elementId().
func ExpansionQuery(nodeID string) (string, error) {
	if strings.TrimSpace(nodeID) == "" {
		return "", ErrEmptyNodeID
	}

	kinds := make([]string, len(domain.RelationKinds))
	for i, k := range domain.RelationKinds {
		kinds[i] = string(k)
	}

	var match string
	if n, err := strconv.ParseInt(nodeID, 10, 64); err == nil {
		match = fmt.Sprintf("id(n) = %d", n)
	} else {
		match = fmt.Sprintf("elementId(n) = '%s'", escapeCypher(nodeID))
	}

	return fmt.Sprintf(
		"MATCH (n) WHERE %s OPTIONAL MATCH (n)-[r:%s]-(m) RETURN n, r, m",
		match, strings.Join(kinds, "|"),
	), nil
}

func escapeCypher(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// Coordinator fetches node neighbourhoods from the backend
type Coordinator struct {
	querier Querier
}

// NewCoordinator creates a coordinator backed by querier
func NewCoordinator(querier Querier) *Coordinator {
	return &Coordinator{querier: querier}
}

// Fetch retrieves the neighbourhood of nodeID. It touches no shared state and
// is safe to call from many goroutines.
func (c *Coordinator) Fetch(ctx context.Context, nodeID string) (domain.GraphDataset, error) {
	query, err := ExpansionQuery(nodeID)
	if err != nil {
		return domain.GraphDataset{}, err
	}

	result, err := c.querier.Query(ctx, query)
	if err != nil {
		return domain.GraphDataset{}, fmt.Errorf("expand %s: %w", nodeID, err)
	}
	return result.Dataset(), nil
}

// Apply merges incoming into s and returns visible extended by the incoming
// entries. Store copies are used so the view carries computed tags. Edges
// whose endpoints are not both in the new view are left out.
func Apply(s *store.GraphStore, visible, incoming domain.GraphDataset, nodeID string) (domain.GraphDataset, Outcome) {
	merged := s.Merge(incoming)

	outcome := Outcome{
		NodeID:     nodeID,
		AddedNodes: merged.AddedNodes,
		AddedEdges: merged.AddedEdges,
		Kind:       KindExpanded,
	}
	if merged.Empty() {
		outcome.Kind = KindNoNewConnections
	}

	return view.Union(visible, s.Subset(incoming)), outcome
}

// ExpandAllConnected returns the connected component of nodeID from data
// already in the store, without asking the backend
func ExpandAllConnected(s *store.GraphStore, nodeID string) domain.GraphDataset {
	return s.ConnectedComponent(nodeID)
}

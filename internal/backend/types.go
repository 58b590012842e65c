package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cpgview/internal/domain"
)

// QueryResult is a decoded /cypher response
type QueryResult struct {
	Nodes []domain.Node `json:"nodes"`
	Edges []domain.Edge `json:"edges"`
}

// Empty reports a successful query that matched nothing
func (r *QueryResult) Empty() bool {
	return len(r.Nodes) == 0 && len(r.Edges) == 0
}

// Dataset converts the result to a dataset keyed by id
func (r *QueryResult) Dataset() domain.GraphDataset {
	return domain.DatasetOf(r.Nodes, r.Edges)
}

// AnalysisStatus is the outcome class of a conversion
type AnalysisStatus string

const (
	AnalysisSuccess AnalysisStatus = "success"
	AnalysisEmpty   AnalysisStatus = "empty"
	AnalysisError   AnalysisStatus = "error"
)

// ConvertResult is the /convert/ response
type ConvertResult struct {
	Status       AnalysisStatus `json:"analysis_status"`
	UserMessage  string         `json:"user_message"`
	Details      string         `json:"details"`
	Stdout       string         `json:"stdout"`
	Stderr       string         `json:"stderr"`
	ReturnCode   int            `json:"return_code"`
	Neo4jBrowser string         `json:"neo4j_browser"`
}

// Succeeded reports whether the analysis produced a graph
func (r *ConvertResult) Succeeded() bool {
	return r.Status == AnalysisSuccess
}

// DataStatus is the /data-status response
type DataStatus struct {
	HasData   bool   `json:"has_data"`
	NodeCount int    `json:"node_count"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// RemoteConfig is the /config response
type RemoteConfig struct {
	BackendURL string `json:"backend_url"`
	Neo4jURL   string `json:"neo4j_url"`
}

// HealthStatus is the / response
type HealthStatus struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Neo4jURL string `json:"neo4j_url"`
}

// wireResult keeps nil slices distinguishable from empty ones so that a
// missing field can be told apart from an empty result
type wireResult struct {
	Nodes         []wireNode `json:"nodes"`
	Edges         []wireEdge `json:"edges"`
	Relationships []wireEdge `json:"relationships"`
}

type wireNode struct {
	ID         json.RawMessage `json:"id"`
	Label      string          `json:"label"`
	Labels     []string        `json:"labels"`
	Title      map[string]any  `json:"title"`
	Properties map[string]any  `json:"properties"`
}

type wireEdge struct {
	ID         json.RawMessage `json:"id"`
	From       json.RawMessage `json:"from"`
	To         json.RawMessage `json:"to"`
	Label      string          `json:"label"`
	Type       string          `json:"type"`
	Title      map[string]any  `json:"title"`
	Properties map[string]any  `json:"properties"`
}

// decodeQueryResult parses a /cypher body. A body with neither nodes nor
// an edge list is malformed, not empty.
func decodeQueryResult(body []byte) (*QueryResult, error) {
	var wire wireResult
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	edges := wire.Edges
	if edges == nil {
		edges = wire.Relationships
	}
	if wire.Nodes == nil && edges == nil {
		return nil, fmt.Errorf("%w: response has no nodes, edges or relationships", ErrMalformedResponse)
	}

	result := &QueryResult{
		Nodes: make([]domain.Node, 0, len(wire.Nodes)),
		Edges: make([]domain.Edge, 0, len(edges)),
	}

	for _, wn := range wire.Nodes {
		id := idText(wn.ID)
		if id == "" {
			continue
		}
		label := wn.Label
		if label == "" && len(wn.Labels) > 0 {
			label = wn.Labels[0]
		}
		props := wn.Title
		if props == nil {
			props = wn.Properties
		}
		result.Nodes = append(result.Nodes, domain.Node{ID: id, Label: label, Properties: props})
	}

	for _, we := range edges {
		from, to := idText(we.From), idText(we.To)
		if from == "" || to == "" {
			continue
		}
		kind := we.Label
		if kind == "" {
			kind = we.Type
		}
		id := idText(we.ID)
		if id == "" {
			id = from + "-" + kind + "-" + to
		}
		props := we.Title
		if props == nil {
			props = we.Properties
		}
		result.Edges = append(result.Edges, domain.Edge{
			ID:         id,
			From:       from,
			To:         to,
			Label:      domain.RelationKind(kind),
			Properties: props,
		})
	}

	return result, nil
}

// idText accepts ids sent either as JSON strings or as numbers
func idText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

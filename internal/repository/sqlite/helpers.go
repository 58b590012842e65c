package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cpgview/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timeLayout is fixed width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a property map to a nullable JSON string.
// Empty maps are stored as NULL.
func marshalToNull(props map[string]any) (sql.NullString, error) {
	if len(props) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Row Scanners
// ============================================================================
//
// Each row type pairs a column list constant with a scanArgs method. The two
// MUST list columns in the same order.

// snapshotColumns returns the SELECT column list for snapshot queries
const snapshotColumns = `id, name, query, node_count, edge_count, created_at`

type snapshotRow struct {
	ID        string
	Name      string
	Query     sql.NullString
	NodeCount int
	EdgeCount int
	CreatedAt string
}

func (r *snapshotRow) scanArgs() []any {
	return []any{
		&r.ID,        // 1
		&r.Name,      // 2
		&r.Query,     // 3
		&r.NodeCount, // 4
		&r.EdgeCount, // 5
		&r.CreatedAt, // 6
	}
}

func (r *snapshotRow) toDomain() (*domain.Snapshot, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: parse created_at: %w", r.ID, err)
	}
	return &domain.Snapshot{
		ID:        r.ID,
		Name:      r.Name,
		Query:     nullToString(r.Query),
		NodeCount: r.NodeCount,
		EdgeCount: r.EdgeCount,
		CreatedAt: created,
	}, nil
}

// nodeColumns returns the column list for node queries
const nodeColumns = `id, label, properties`

type nodeRow struct {
	ID             string
	Label          string
	PropertiesJSON sql.NullString
}

func (r *nodeRow) scanArgs() []any {
	return []any{
		&r.ID,             // 1
		&r.Label,          // 2
		&r.PropertiesJSON, // 3
	}
}

func (r *nodeRow) toDomain() (domain.Node, error) {
	node := domain.NewNode(r.ID, r.Label)
	if err := unmarshalJSONField(r.PropertiesJSON, &node.Properties); err != nil {
		return domain.Node{}, fmt.Errorf("unmarshal properties: %w", err)
	}
	return node, nil
}

func nodeInsertArgs(node domain.Node) ([]any, error) {
	props, err := marshalToNull(node.Properties)
	if err != nil {
		return nil, err
	}
	return []any{node.ID, node.Label, props}, nil
}

// edgeColumns returns the column list for edge queries
const edgeColumns = `id, from_id, to_id, label, properties`

type edgeRow struct {
	ID             string
	FromID         string
	ToID           string
	Label          string
	PropertiesJSON sql.NullString
}

func (r *edgeRow) scanArgs() []any {
	return []any{
		&r.ID,             // 1
		&r.FromID,         // 2
		&r.ToID,           // 3
		&r.Label,          // 4
		&r.PropertiesJSON, // 5
	}
}

func (r *edgeRow) toDomain() (domain.Edge, error) {
	edge := domain.NewEdge(r.ID, r.FromID, r.ToID, domain.RelationKind(r.Label))
	if err := unmarshalJSONField(r.PropertiesJSON, &edge.Properties); err != nil {
		return domain.Edge{}, fmt.Errorf("unmarshal properties: %w", err)
	}
	return edge, nil
}

func edgeInsertArgs(edge domain.Edge) ([]any, error) {
	props, err := marshalToNull(edge.Properties)
	if err != nil {
		return nil, err
	}
	return []any{edge.ID, edge.From, edge.To, string(edge.Label), props}, nil
}

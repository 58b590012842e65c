package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"cpgview/internal/domain"
	"cpgview/internal/repository"
)

// Repository implements repository.SnapshotRepository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.SnapshotRepository = (*Repository)(nil)

// New opens (or creates) the database at dbPath and migrates the schema
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory
	// database only lives as long as its connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		query TEXT,
		node_count INTEGER NOT NULL DEFAULT 0,
		edge_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshot_nodes (
		snapshot_id TEXT NOT NULL,
		id TEXT NOT NULL,
		label TEXT NOT NULL,
		properties JSON,
		PRIMARY KEY (snapshot_id, id),
		FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS snapshot_edges (
		snapshot_id TEXT NOT NULL,
		id TEXT NOT NULL,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		label TEXT NOT NULL,
		properties JSON,
		PRIMARY KEY (snapshot_id, id),
		FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveSnapshot stores every node and edge of ds under a new snapshot id
func (r *Repository) SaveSnapshot(ctx context.Context, name, query string, ds domain.GraphDataset) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		Query:     query,
		NodeCount: len(ds.Nodes),
		EdgeCount: len(ds.Edges),
		CreatedAt: time.Now().UTC(),
	}
	if snap.Name == "" {
		snap.Name = snap.CreatedAt.Format("2006-01-02 15:04:05")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, name, query, node_count, edge_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Name, stringToNull(snap.Query), snap.NodeCount, snap.EdgeCount, formatTime(snap.CreatedAt)); err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_nodes (snapshot_id, `+nodeColumns+`) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare node statement: %w", err)
	}
	defer nodeStmt.Close()

	for _, id := range ds.NodeIDs() {
		args, err := nodeInsertArgs(ds.Nodes[id])
		if err != nil {
			return nil, fmt.Errorf("failed to encode node %s: %w", id, err)
		}
		if _, err := nodeStmt.ExecContext(ctx, append([]any{snap.ID}, args...)...); err != nil {
			return nil, fmt.Errorf("failed to insert node %s: %w", id, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_edges (snapshot_id, `+edgeColumns+`) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare edge statement: %w", err)
	}
	defer edgeStmt.Close()

	for _, id := range ds.EdgeIDs() {
		args, err := edgeInsertArgs(ds.Edges[id])
		if err != nil {
			return nil, fmt.Errorf("failed to encode edge %s: %w", id, err)
		}
		if _, err := edgeStmt.ExecContext(ctx, append([]any{snap.ID}, args...)...); err != nil {
			return nil, fmt.Errorf("failed to insert edge %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns every snapshot, newest first
func (r *Repository) ListSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]domain.Snapshot, 0)
	for rows.Next() {
		var row snapshotRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snapshots, nil
}

// LoadSnapshot returns a snapshot and the dataset saved with it
func (r *Repository) LoadSnapshot(ctx context.Context, id string) (*domain.Snapshot, domain.GraphDataset, error) {
	var row snapshotRow
	err := r.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.GraphDataset{}, fmt.Errorf("%w: %s", repository.ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, domain.GraphDataset{}, fmt.Errorf("failed to query snapshot: %w", err)
	}
	snap, err := row.toDomain()
	if err != nil {
		return nil, domain.GraphDataset{}, err
	}

	ds := domain.NewGraphDataset()

	nodeRows, err := r.db.QueryContext(ctx, `SELECT `+nodeColumns+` FROM snapshot_nodes WHERE snapshot_id = ?`, id)
	if err != nil {
		return nil, ds, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer nodeRows.Close()

	for nodeRows.Next() {
		var nr nodeRow
		if err := nodeRows.Scan(nr.scanArgs()...); err != nil {
			return nil, ds, fmt.Errorf("failed to scan node: %w", err)
		}
		node, err := nr.toDomain()
		if err != nil {
			return nil, ds, fmt.Errorf("node %s: %w", nr.ID, err)
		}
		ds.AddNode(node)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, ds, fmt.Errorf("error iterating nodes: %w", err)
	}

	edgeRows, err := r.db.QueryContext(ctx, `SELECT `+edgeColumns+` FROM snapshot_edges WHERE snapshot_id = ?`, id)
	if err != nil {
		return nil, ds, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var er edgeRow
		if err := edgeRows.Scan(er.scanArgs()...); err != nil {
			return nil, ds, fmt.Errorf("failed to scan edge: %w", err)
		}
		edge, err := er.toDomain()
		if err != nil {
			return nil, ds, fmt.Errorf("edge %s: %w", er.ID, err)
		}
		ds.AddEdge(edge)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, ds, fmt.Errorf("error iterating edges: %w", err)
	}

	return snap, ds, nil
}

// DeleteSnapshot removes a snapshot with its nodes and edges
func (r *Repository) DeleteSnapshot(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Children first, in case foreign keys are disabled on this connection
	for _, table := range []string{"snapshot_edges", "snapshot_nodes"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE snapshot_id = ?`, id); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", repository.ErrSnapshotNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

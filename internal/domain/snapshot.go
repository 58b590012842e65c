package domain

import "time"

// Snapshot describes a saved copy of a session store
type Snapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Query     string    `json:"query,omitempty"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	CreatedAt time.Time `json:"created_at"`
}

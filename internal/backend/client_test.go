package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpgview/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second)
}

func TestQuery(t *testing.T) {
	t.Run("decodes nodes and edges", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/cypher", r.URL.Path)

			var req cypherRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "MATCH (n) RETURN n", req.Query)

			w.Write([]byte(`{
				"nodes": [
					{"id": "1", "label": "FunctionDeclaration", "title": {"name": "main"}},
					{"id": 2, "label": "Literal", "title": {"value": 42}}
				],
				"edges": [
					{"id": "10", "from": "1", "to": 2, "label": "DFG", "title": {}}
				]
			}`))
		})

		result, err := c.Query(context.Background(), "MATCH (n) RETURN n")
		require.NoError(t, err)
		require.Len(t, result.Nodes, 2)
		require.Len(t, result.Edges, 1)

		assert.Equal(t, "1", result.Nodes[0].ID)
		assert.Equal(t, "main", result.Nodes[0].GetPropertyString("name"))
		assert.Equal(t, "2", result.Nodes[1].ID)

		e := result.Edges[0]
		assert.Equal(t, "10", e.ID)
		assert.Equal(t, "1", e.From)
		assert.Equal(t, "2", e.To)
		assert.Equal(t, domain.RelationDataFlow, e.Label)
		assert.False(t, result.Empty())
	})

	t.Run("accepts relationships and properties", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"nodes": [{"id": "a", "labels": ["Block"], "properties": {"code": "x"}}],
				"relationships": [{"from": "a", "to": "b", "type": "AST"}]
			}`))
		})

		result, err := c.Query(context.Background(), "q")
		require.NoError(t, err)
		require.Len(t, result.Edges, 1)
		assert.Equal(t, "Block", result.Nodes[0].Label)
		assert.Equal(t, "x", result.Nodes[0].GetPropertyString("code"))
		assert.Equal(t, domain.RelationSyntaxTree, result.Edges[0].Label)
		assert.Equal(t, "a-AST-b", result.Edges[0].ID)
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"nodes": [], "edges": []}`))
		})

		result, err := c.Query(context.Background(), "q")
		require.NoError(t, err)
		assert.True(t, result.Empty())
		assert.True(t, result.Dataset().IsEmpty())
	})

	t.Run("nodes only is valid", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"nodes": [{"id": "a", "label": "Block"}]}`))
		})

		result, err := c.Query(context.Background(), "q")
		require.NoError(t, err)
		assert.Len(t, result.Nodes, 1)
		assert.Empty(t, result.Edges)
	})

	t.Run("missing fields is malformed", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"result": "ok"}`))
		})

		_, err := c.Query(context.Background(), "q")
		assert.ErrorIs(t, err, ErrMalformedResponse)
		assert.NotErrorIs(t, err, ErrTransport)
	})

	t.Run("invalid json is malformed", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		})

		_, err := c.Query(context.Background(), "q")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("error status is transport failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail": "Query execution failed: syntax"}`))
		})

		_, err := c.Query(context.Background(), "q")
		require.ErrorIs(t, err, ErrTransport)
		assert.Contains(t, err.Error(), "400")
		assert.Contains(t, err.Error(), "Query execution failed: syntax")
	})

	t.Run("unreachable backend is transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := New(url, time.Second).Query(context.Background(), "q")
		assert.ErrorIs(t, err, ErrTransport)
	})
}

func TestConvert(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/convert/", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "fn main() {}", r.FormValue("code"))

		json.NewEncoder(w).Encode(map[string]any{
			"analysis_status": "empty",
			"user_message":    "Analysis completed but produced no graph data",
			"return_code":     2,
			"neo4j_browser":   "http://localhost:7474",
		})
	})

	result, err := c.Convert(context.Background(), "fn main() {}")
	require.NoError(t, err)
	assert.Equal(t, AnalysisEmpty, result.Status)
	assert.Equal(t, 2, result.ReturnCode)
	assert.False(t, result.Succeeded())
}

func TestDataStatusConfigHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data-status":
			w.Write([]byte(`{"has_data": true, "node_count": 17, "status": "connected"}`))
		case "/config":
			w.Write([]byte(`{"backend_url": "http://backend:8000", "neo4j_url": "http://localhost:7474"}`))
		case "/":
			w.Write([]byte(`{"status": "healthy", "service": "LVing Backend"}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	status, err := c.DataStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.HasData)
	assert.Equal(t, 17, status.NodeCount)

	cfg, err := c.RemoteConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8000", cfg.BackendURL)

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "boom", errorDetail([]byte(`{"detail": "boom"}`)))
	assert.Equal(t, "plain text", errorDetail([]byte("  plain text \n")))
	assert.Len(t, errorDetail(make([]byte, 2000)), maxErrorBody+3)
}

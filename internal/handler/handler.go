package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"cpgview/internal/backend"
	"cpgview/internal/codec"
	"cpgview/internal/domain"
	"cpgview/internal/expand"
	"cpgview/internal/filter"
	"cpgview/internal/repository"
	"cpgview/internal/service"
	"cpgview/internal/session"
)

// maxImportBytes caps uploaded datasets and source files
const maxImportBytes = 32 << 20

var validate = validator.New()

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ViewResponse is the session state with the displayed graph in
// vis-network form
type ViewResponse struct {
	session.Result
	Graph   *domain.Graph `json:"graph"`
	Message string        `json:"message,omitempty"`
}

// FilterRequest replaces the filter state. A missing categories list enables
// every category; an empty one enables none.
type FilterRequest struct {
	Search     string   `json:"search" validate:"max=1024"`
	Categories []string `json:"categories" validate:"omitempty,dive,oneof=function variable operator literal unsafe other"`
}

// QueryRequest runs a Cypher query
type QueryRequest struct {
	Query string `json:"query" validate:"required,max=65536"`
}

// ConvertRequest submits source code for analysis
type ConvertRequest struct {
	Code string `json:"code" validate:"required"`
}

// SnapshotRequest saves the current store
type SnapshotRequest struct {
	Name string `json:"name" validate:"max=200"`
}

// GraphHandler handles session API requests
type GraphHandler struct {
	svc *service.GraphService
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(svc *service.GraphService) *GraphHandler {
	return &GraphHandler{svc: svc}
}

// Register adds every API route to mux
func (h *GraphHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/view", h.GetView)
	mux.HandleFunc("PUT /api/filters", h.SetFilters)

	mux.HandleFunc("GET /api/nodes/{id}", h.GetNode)
	mux.HandleFunc("POST /api/nodes/{id}/expand", h.Expand)
	mux.HandleFunc("POST /api/nodes/{id}/component", h.ExpandComponent)
	mux.HandleFunc("POST /api/nodes/{id}/remove", h.Remove)
	mux.HandleFunc("POST /api/nodes/{id}/focus", h.Focus)

	mux.HandleFunc("POST /api/query", h.RunQuery)
	mux.HandleFunc("POST /api/convert", h.Convert)

	mux.HandleFunc("GET /api/export", h.Export)
	mux.HandleFunc("POST /api/import", h.Import)

	mux.HandleFunc("GET /api/snapshots", h.ListSnapshots)
	mux.HandleFunc("POST /api/snapshots", h.SaveSnapshot)
	mux.HandleFunc("POST /api/snapshots/{id}/restore", h.RestoreSnapshot)
	mux.HandleFunc("DELETE /api/snapshots/{id}", h.DeleteSnapshot)
}

// GetView returns the current session state
func (h *GraphHandler) GetView(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.View(r.Context())
	if err != nil {
		h.fail(w, "Failed to get view", err)
		return
	}
	writeJSON(w, viewResponse(result, ""), http.StatusOK)
}

// SetFilters replaces the filter state and re-projects the view
func (h *GraphHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	state := filter.Default().WithSearch(req.Search)
	if req.Categories != nil {
		categories := make([]filter.CategoryFilter, 0, len(req.Categories))
		for _, name := range req.Categories {
			c, _ := domain.ParseCategory(name)
			categories = append(categories, c)
		}
		state = state.WithCategories(categories...)
	}

	result, err := h.svc.SetFilters(r.Context(), state)
	if err != nil {
		h.fail(w, "Failed to apply filters", err)
		return
	}
	writeJSON(w, viewResponse(result, ""), http.StatusOK)
}

// GetNode returns a stored node with its hidden connections
func (h *GraphHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	detail, err := h.svc.Inspect(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to get node", err)
		return
	}
	writeJSON(w, detail, http.StatusOK)
}

// Expand fetches a node's neighbourhood from the backend
func (h *GraphHandler) Expand(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Expand(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "Failed to expand node", err)
		return
	}
	writeJSON(w, viewResponse(result, result.Expansion.Message()), http.StatusOK)
}

// ExpandComponent shows the node's connected component
func (h *GraphHandler) ExpandComponent(w http.ResponseWriter, r *http.Request) {
	h.viewCommand(w, r, "Failed to expand component", h.svc.ExpandComponent)
}

// Remove hides a node from the view
func (h *GraphHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.viewCommand(w, r, "Failed to remove node", h.svc.Remove)
}

// Focus narrows the view to a node and its neighbours
func (h *GraphHandler) Focus(w http.ResponseWriter, r *http.Request) {
	h.viewCommand(w, r, "Failed to focus node", h.svc.Focus)
}

// RunQuery runs a Cypher query and loads the result
func (h *GraphHandler) RunQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.RunQuery(r.Context(), req.Query)
	if err != nil {
		h.fail(w, "Failed to run query", err)
		return
	}

	msg := ""
	if result.Empty {
		msg = "Query returned no results"
	}
	writeJSON(w, viewResponse(result, msg), http.StatusOK)
}

// Convert submits source code for analysis. Failed analyses are reported in
// the body with status 200; only transport problems are HTTP errors.
func (h *GraphHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.Analyze(r.Context(), req.Code)
	if err != nil {
		h.fail(w, "Failed to analyze code", err)
		return
	}
	writeJSON(w, result, http.StatusOK)
}

// Export downloads the view or the full store
func (h *GraphHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	scope := r.URL.Query().Get("scope")

	var buf strings.Builder
	if err := h.svc.Export(r.Context(), &buf, format, scope); err != nil {
		h.fail(w, "Failed to export graph", err)
		return
	}

	contentType, ext := "application/json", "json"
	if format == "yaml" || format == "yml" {
		contentType, ext = "application/x-yaml", "yml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=graph.%s", ext))
	io.WriteString(w, buf.String())
}

// Import loads an uploaded dataset like a query result
func (h *GraphHandler) Import(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatFromContentType(r.Header.Get("Content-Type"))
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	result, err := h.svc.Import(r.Context(), body, format)
	if err != nil {
		h.fail(w, "Failed to import graph", err)
		return
	}
	writeJSON(w, viewResponse(result, ""), http.StatusOK)
}

// ListSnapshots returns saved snapshots
func (h *GraphHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.svc.ListSnapshots(r.Context())
	if err != nil {
		h.fail(w, "Failed to list snapshots", err)
		return
	}
	writeJSON(w, snapshots, http.StatusOK)
}

// SaveSnapshot stores the current store
func (h *GraphHandler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req SnapshotRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	snap, err := h.svc.SaveSnapshot(r.Context(), req.Name)
	if err != nil {
		h.fail(w, "Failed to save snapshot", err)
		return
	}
	writeJSON(w, snap, http.StatusCreated)
}

// RestoreSnapshot replaces the store with a saved snapshot
func (h *GraphHandler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RestoreSnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "Failed to restore snapshot", err)
		return
	}
	writeJSON(w, viewResponse(result, ""), http.StatusOK)
}

// DeleteSnapshot removes a saved snapshot
func (h *GraphHandler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSnapshot(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, "Failed to delete snapshot", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

func (h *GraphHandler) viewCommand(w http.ResponseWriter, r *http.Request, what string,
	apply func(context.Context, string) (session.Result, error)) {
	result, err := apply(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, what, err)
		return
	}
	writeJSON(w, viewResponse(result, ""), http.StatusOK)
}

// fail maps service errors to status codes
func (h *GraphHandler) fail(w http.ResponseWriter, what string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s: %v", what, err)
	}
	writeError(w, what, err.Error(), status)
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, backend.ErrTransport), errors.Is(err, backend.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrStaleExpansion):
		return http.StatusConflict
	case errors.Is(err, service.ErrNoData):
		return http.StatusConflict
	case errors.Is(err, service.ErrNodeNotFound), errors.Is(err, repository.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyQuery), errors.Is(err, service.ErrInvalidScope),
		errors.Is(err, expand.ErrEmptyNodeID), errors.Is(err, codec.ErrUnsupportedFormat),
		errors.Is(err, codec.ErrParse):
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrSnapshotsDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, session.ErrEngineStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func viewResponse(result session.Result, msg string) ViewResponse {
	return ViewResponse{
		Result:  result,
		Graph:   domain.DeriveGraph(result.View),
		Message: msg,
	}
}

func formatFromContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "yaml"):
		return "yaml"
	default:
		return "json"
	}
}

// decodeAndValidate reads a JSON body into v and runs its validate tags.
// It writes a 400 response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, "Invalid request", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, message, details string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: message, Details: details}, statusCode)
}

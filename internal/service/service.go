package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"cpgview/internal/backend"
	"cpgview/internal/codec"
	"cpgview/internal/domain"
	"cpgview/internal/filter"
	"cpgview/internal/repository"
	"cpgview/internal/session"
)

// Backend is the part of the analysis backend the service talks to.
// *backend.Client satisfies it.
type Backend interface {
	Query(ctx context.Context, cypher string) (*backend.QueryResult, error)
	Convert(ctx context.Context, code string) (*backend.ConvertResult, error)
	DataStatus(ctx context.Context) (*backend.DataStatus, error)
}

// Export scopes
const (
	ScopeView  = "view"
	ScopeStore = "store"
)

// Options configures a GraphService
type Options struct {
	// InitialQuery runs after every successful analysis. Empty skips it.
	InitialQuery string

	// Tagger classifies nodes on merge. Nil uses domain.DefaultTagger.
	Tagger *domain.Tagger
}

// ViewPayload is the payload of a view_updated event
type ViewPayload struct {
	session.Result
	Graph *domain.Graph `json:"graph"`
}

// AnalysisResult is the outcome of Analyze
type AnalysisResult struct {
	Convert *backend.ConvertResult `json:"convert"`
	View    *session.Result        `json:"view,omitempty"`
	NoData  bool                   `json:"no_data,omitempty"`
}

// GraphService drives one exploration session against the analysis backend
type GraphService struct {
	backend  Backend
	repo     repository.SnapshotRepository
	eventBus *EventBus
	engine   *session.Engine

	initialQuery string

	mu        sync.Mutex
	lastQuery string
}

// NewGraphService creates a graph service. repo may be nil, in which case
// snapshot operations return ErrSnapshotsDisabled.
func NewGraphService(b Backend, repo repository.SnapshotRepository, eventBus *EventBus, opts Options) *GraphService {
	s := &GraphService{
		backend:      b,
		repo:         repo,
		eventBus:     eventBus,
		initialQuery: strings.TrimSpace(opts.InitialQuery),
	}
	s.engine = session.NewExpandingEngine(session.New(opts.Tagger), b, s)
	return s
}

// Run runs the session engine until ctx is cancelled
func (s *GraphService) Run(ctx context.Context) error {
	return s.engine.Run(ctx)
}

// ViewUpdated publishes every applied change on the event bus
func (s *GraphService) ViewUpdated(result session.Result) {
	s.eventBus.Publish(Event{
		Type: EventViewUpdated,
		Payload: ViewPayload{
			Result: result,
			Graph:  domain.DeriveGraph(result.View),
		},
	})
}

// Analyze submits source code for analysis. A successful run resets the
// session and loads the initial query.
func (s *GraphService) Analyze(ctx context.Context, code string) (*AnalysisResult, error) {
	converted, err := s.backend.Convert(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	s.eventBus.Publish(Event{Type: EventAnalysisCompleted, Payload: converted})
	result := &AnalysisResult{Convert: converted}

	if !converted.Succeeded() {
		log.Printf("Analysis finished with status %s: %s", converted.Status, converted.UserMessage)
		return result, nil
	}

	if _, err := s.engine.Dispatch(ctx, session.Reset{}); err != nil {
		return nil, err
	}
	s.setLastQuery("")
	s.eventBus.Publish(Event{Type: EventSessionReset})

	if s.initialQuery == "" {
		return result, nil
	}

	view, err := s.RunQuery(ctx, s.initialQuery)
	switch {
	case errors.Is(err, ErrNoData):
		result.NoData = true
	case err != nil:
		return nil, err
	default:
		result.View = &view
	}
	return result, nil
}

// RunQuery runs a Cypher query and loads its result into the session
func (s *GraphService) RunQuery(ctx context.Context, cypher string) (session.Result, error) {
	cypher = strings.TrimSpace(cypher)
	if cypher == "" {
		return session.Result{}, ErrEmptyQuery
	}

	status, err := s.backend.DataStatus(ctx)
	if err != nil {
		return session.Result{}, err
	}
	if !status.HasData {
		return session.Result{}, ErrNoData
	}

	qr, err := s.backend.Query(ctx, cypher)
	if err != nil {
		return session.Result{}, err
	}

	result, err := s.engine.Dispatch(ctx, session.Load{Query: cypher, Result: qr.Dataset()})
	if err != nil {
		return session.Result{}, err
	}
	s.setLastQuery(cypher)

	log.Printf("Query loaded %d nodes, %d edges (%d new nodes)",
		len(qr.Nodes), len(qr.Edges), result.Merge.AddedNodes)
	return result, nil
}

// View returns the current session state
func (s *GraphService) View(ctx context.Context) (session.Result, error) {
	return s.engine.Snapshot(ctx)
}

// Expand fetches a node's neighbourhood and adds it to the view
func (s *GraphService) Expand(ctx context.Context, nodeID string) (session.Result, error) {
	result, err := s.engine.Dispatch(ctx, session.Expand{NodeID: nodeID})
	if err != nil {
		if !errors.Is(err, session.ErrStaleExpansion) {
			s.eventBus.Publish(Event{
				Type:    EventExpansionFailed,
				Payload: map[string]string{"node_id": nodeID, "error": err.Error()},
			})
		}
		return session.Result{}, err
	}
	return result, nil
}

// ExpandComponent shows the whole connected component of a node
func (s *GraphService) ExpandComponent(ctx context.Context, nodeID string) (session.Result, error) {
	return s.engine.Dispatch(ctx, session.ExpandComponent{NodeID: nodeID})
}

// Remove hides a node from the view
func (s *GraphService) Remove(ctx context.Context, nodeID string) (session.Result, error) {
	return s.engine.Dispatch(ctx, session.Remove{NodeID: nodeID})
}

// Focus narrows the view to a node and its neighbours
func (s *GraphService) Focus(ctx context.Context, nodeID string) (session.Result, error) {
	return s.engine.Dispatch(ctx, session.Focus{NodeID: nodeID})
}

// SetFilters replaces the filter state and re-projects the view
func (s *GraphService) SetFilters(ctx context.Context, state filter.FilterState) (session.Result, error) {
	return s.engine.Dispatch(ctx, session.Filter{State: state})
}

// Inspect returns a stored node with its hidden connections
func (s *GraphService) Inspect(ctx context.Context, nodeID string) (session.NodeDetail, error) {
	var (
		detail session.NodeDetail
		found  bool
	)
	err := s.engine.Read(ctx, func(gs *session.GraphSession) {
		detail, found = gs.Inspect(nodeID)
	})
	if err != nil {
		return session.NodeDetail{}, err
	}
	if !found {
		return session.NodeDetail{}, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	return detail, nil
}

// Export writes the view or the full store in the given format
func (s *GraphService) Export(ctx context.Context, w io.Writer, format, scope string) error {
	c, err := codec.ForFormat(format)
	if err != nil {
		return err
	}

	ds, err := s.dataset(ctx, scope)
	if err != nil {
		return err
	}

	return c.Export(domain.FragmentOf(ds), w)
}

// Import parses a dataset and loads it like a query result
func (s *GraphService) Import(ctx context.Context, r io.Reader, format string) (session.Result, error) {
	c, err := codec.ForFormat(format)
	if err != nil {
		return session.Result{}, err
	}

	fragment, err := c.Parse(r)
	if err != nil {
		return session.Result{}, err
	}

	return s.engine.Dispatch(ctx, session.Load{Query: "import:" + c.Format(), Result: fragment.Dataset()})
}

// SaveSnapshot stores a copy of the full store
func (s *GraphService) SaveSnapshot(ctx context.Context, name string) (*domain.Snapshot, error) {
	if s.repo == nil {
		return nil, ErrSnapshotsDisabled
	}

	ds, err := s.dataset(ctx, ScopeStore)
	if err != nil {
		return nil, err
	}

	snap, err := s.repo.SaveSnapshot(ctx, name, s.getLastQuery(), ds)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(Event{Type: EventSnapshotSaved, Payload: snap})
	return snap, nil
}

// ListSnapshots returns saved snapshots, newest first
func (s *GraphService) ListSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	if s.repo == nil {
		return nil, ErrSnapshotsDisabled
	}
	return s.repo.ListSnapshots(ctx)
}

// RestoreSnapshot replaces the session store with a saved snapshot
func (s *GraphService) RestoreSnapshot(ctx context.Context, id string) (session.Result, error) {
	if s.repo == nil {
		return session.Result{}, ErrSnapshotsDisabled
	}

	snap, ds, err := s.repo.LoadSnapshot(ctx, id)
	if err != nil {
		return session.Result{}, err
	}

	result, err := s.engine.Dispatch(ctx, session.Restore{Dataset: ds})
	if err != nil {
		return session.Result{}, err
	}
	s.setLastQuery(snap.Query)

	s.eventBus.Publish(Event{Type: EventSnapshotRestored, Payload: snap})
	return result, nil
}

// DeleteSnapshot removes a saved snapshot
func (s *GraphService) DeleteSnapshot(ctx context.Context, id string) error {
	if s.repo == nil {
		return ErrSnapshotsDisabled
	}
	if err := s.repo.DeleteSnapshot(ctx, id); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventSnapshotDeleted,
		Payload: map[string]string{"snapshot_id": id},
	})
	return nil
}

// dataset copies the view or the full store out of the engine
func (s *GraphService) dataset(ctx context.Context, scope string) (domain.GraphDataset, error) {
	var ds domain.GraphDataset
	var read func(*session.GraphSession)

	switch scope {
	case ScopeView, "":
		read = func(gs *session.GraphSession) { ds = gs.Displayed() }
	case ScopeStore:
		read = func(gs *session.GraphSession) { ds = gs.Store().Snapshot() }
	default:
		return ds, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}

	if err := s.engine.Read(ctx, read); err != nil {
		return ds, err
	}
	return ds, nil
}

func (s *GraphService) setLastQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuery = q
}

func (s *GraphService) getLastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

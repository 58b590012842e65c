package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"cpgview/internal/domain"
	"cpgview/internal/expand"
)

// Fetcher retrieves a node neighbourhood. *expand.Coordinator satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, nodeID string) (domain.GraphDataset, error)
}

// Publisher is notified after every state change the engine applies
type Publisher interface {
	ViewUpdated(result Result)
}

type reply struct {
	result Result
	err    error
}

type request struct {
	ctx   context.Context
	cmd   Command
	read  func(*GraphSession)
	reply chan reply
}

type completion struct {
	ticket Ticket
	data   domain.GraphDataset
	err    error
	reply  chan reply
}

// Engine runs a GraphSession on a single goroutine.
//
// Commands are sent with Dispatch and applied in arrival order. Expand is
// the only command that leaves the loop: its fetch runs on its own goroutine
// and the result comes back through the loop, so the session is only ever
// touched by Run. Any number of expansions may be in flight at once.
type Engine struct {
	session   *GraphSession
	fetcher   Fetcher
	publisher Publisher

	requests    chan request
	completions chan completion
	done        chan struct{}
	stopOnce    sync.Once
	fetches     sync.WaitGroup
}

// NewEngine creates an engine around session. A nil publisher discards
// updates.
func NewEngine(session *GraphSession, fetcher Fetcher, publisher Publisher) *Engine {
	return &Engine{
		session:     session,
		fetcher:     fetcher,
		publisher:   publisher,
		requests:    make(chan request),
		completions: make(chan completion),
		done:        make(chan struct{}),
	}
}

// NewExpandingEngine wires an engine to a coordinator fetching from querier
func NewExpandingEngine(session *GraphSession, querier expand.Querier, publisher Publisher) *Engine {
	return NewEngine(session, expand.NewCoordinator(querier), publisher)
}

// Run applies commands until ctx is cancelled. It waits for in-flight fetches
// to settle before returning.
func (e *Engine) Run(ctx context.Context) error {
	defer e.fetches.Wait()
	defer e.stop()

	for {
		select {
		case req := <-e.requests:
			e.handle(req)

		case c := <-e.completions:
			e.complete(c)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Dispatch sends cmd to the loop and waits for its result. For Expand the
// wait includes the backend round trip.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	req := request{ctx: ctx, cmd: cmd, reply: make(chan reply, 1)}
	if err := e.send(ctx, req); err != nil {
		return Result{}, err
	}

	select {
	case r := <-req.reply:
		return r.result, r.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.done:
		return Result{}, ErrEngineStopped
	}
}

// Read runs fn on the loop goroutine. fn must not retain the session.
func (e *Engine) Read(ctx context.Context, fn func(*GraphSession)) error {
	req := request{ctx: ctx, read: fn, reply: make(chan reply, 1)}
	if err := e.send(ctx, req); err != nil {
		return err
	}

	select {
	case r := <-req.reply:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrEngineStopped
	}
}

// Snapshot returns the current state
func (e *Engine) Snapshot(ctx context.Context) (Result, error) {
	var result Result
	err := e.Read(ctx, func(s *GraphSession) {
		result = s.Snapshot()
	})
	return result, err
}

func (e *Engine) send(ctx context.Context, req request) error {
	select {
	case e.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrEngineStopped
	}
}

func (e *Engine) stop() {
	e.stopOnce.Do(func() { close(e.done) })
}

func (e *Engine) handle(req request) {
	if req.read != nil {
		req.read(e.session)
		req.reply <- reply{}
		return
	}

	if cmd, ok := req.cmd.(Expand); ok {
		e.beginExpand(req.ctx, cmd, req.reply)
		return
	}

	result, err := e.session.Apply(req.cmd)
	commandsTotal.WithLabelValues(req.cmd.Name(), outcomeLabel(err)).Inc()
	if err == nil {
		e.publish(result)
	}
	req.reply <- reply{result: result, err: err}
}

func (e *Engine) beginExpand(ctx context.Context, cmd Expand, out chan reply) {
	ticket := e.session.BeginExpand(cmd.NodeID)
	expansionsInFlight.Inc()

	e.fetches.Add(1)
	go func() {
		defer e.fetches.Done()

		data, err := e.fetcher.Fetch(ctx, ticket.NodeID)
		c := completion{ticket: ticket, data: data, err: err, reply: out}

		select {
		case e.completions <- c:
		case <-e.done:
			expansionsInFlight.Dec()
			out <- reply{err: ErrEngineStopped}
		}
	}()
}

func (e *Engine) complete(c completion) {
	expansionsInFlight.Dec()

	if c.err != nil {
		log.Printf("Expansion of %s failed: %v", c.ticket.NodeID, c.err)
		commandsTotal.WithLabelValues(Expand{}.Name(), outcomeLabel(c.err)).Inc()
		c.reply <- reply{err: c.err}
		return
	}

	result, err := e.session.CompleteExpand(c.ticket, c.data)
	if errors.Is(err, ErrStaleExpansion) {
		staleExpansions.Inc()
		log.Printf("Discarding expansion of %s: %v", c.ticket.NodeID, err)
	}
	commandsTotal.WithLabelValues(Expand{}.Name(), outcomeLabel(err)).Inc()
	if err == nil {
		e.publish(result)
	}
	c.reply <- reply{result: result, err: err}
}

func (e *Engine) publish(result Result) {
	storeNodes.Set(float64(result.StoreNodes))
	if e.publisher != nil {
		e.publisher.ViewUpdated(result)
	}
}

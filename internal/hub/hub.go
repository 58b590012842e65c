// Package hub streams session events to browsers over Server-Sent Events.
//
// Every broadcast gets a sequence number sent as the SSE id. Events that
// implement Named are sent with an SSE event name, and clients may subscribe
// to a subset of names with ?types=a,b. A client that reconnects with a
// Last-Event-ID header is sent the buffered events it missed.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KeepAliveInterval is how often an idle stream gets a comment line
var KeepAliveInterval = 30 * time.Second

// ReplayLimit is how many recent events are kept for reconnecting clients
const ReplayLimit = 32

const clientBuffer = 64

// Named is implemented by events that carry an SSE event name
type Named interface {
	EventName() string
}

type message struct {
	seq   uint64
	name  string
	frame []byte
}

// Client represents a connected SSE client
type Client struct {
	id     string
	types  map[string]bool // nil accepts everything
	lastID uint64
	events chan []byte
}

func (c *Client) accepts(name string) bool {
	return c.types == nil || c.types[name]
}

// Hub manages SSE client connections
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan any
	done       chan struct{}

	// owned by Run
	seq     uint64
	history []message
}

// New creates a new Hub
func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan any, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop. Cancelling ctx closes every client
// stream.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.replay(client)
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("SSE client connected: %s (total: %d)", client.id, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.events)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("SSE client disconnected: %s (total: %d)", client.id, total)

		case event := <-h.broadcast:
			msg, err := h.encode(event)
			if err != nil {
				log.Printf("Failed to marshal event: %v", err)
				continue
			}

			h.mu.RLock()
			for client := range h.clients {
				if !client.accepts(msg.name) {
					continue
				}
				select {
				case client.events <- msg.frame:
				default:
					log.Printf("SSE client %s is slow, skipping event %d", client.id, msg.seq)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// encode frames an event and records it for replay
func (h *Hub) encode(event any) (message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return message{}, err
	}

	h.seq++
	msg := message{seq: h.seq}
	if named, ok := event.(Named); ok {
		msg.name = named.EventName()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "id: %d\n", msg.seq)
	if msg.name != "" {
		fmt.Fprintf(&b, "event: %s\n", msg.name)
	}
	fmt.Fprintf(&b, "data: %s\n\n", data)
	msg.frame = []byte(b.String())

	h.history = append(h.history, msg)
	if len(h.history) > ReplayLimit {
		h.history = h.history[len(h.history)-ReplayLimit:]
	}
	return msg, nil
}

// replay queues the buffered events a reconnecting client has not seen
func (h *Hub) replay(client *Client) {
	if client.lastID == 0 {
		return
	}
	for _, msg := range h.history {
		if msg.seq <= client.lastID || !client.accepts(msg.name) {
			continue
		}
		select {
		case client.events <- msg.frame:
		default:
			return
		}
	}
}

func (h *Hub) closeAll() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.events)
	}
}

// Forward broadcasts everything received on events until ctx is cancelled
// or events is closed
func Forward[T any](ctx context.Context, h *Hub, events <-chan T) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.Broadcast(event)
		}
	}
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event any) {
	select {
	case h.broadcast <- event:
	default:
		log.Println("Broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles SSE connections
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	client := &Client{
		id:     uuid.NewString(),
		types:  parseTypes(r.URL.Query().Get("types")),
		events: make(chan []byte, clientBuffer),
	}
	if last := r.Header.Get("Last-Event-ID"); last != "" {
		id, err := strconv.ParseUint(last, 10, 64)
		if err != nil {
			http.Error(w, "invalid Last-Event-ID", http.StatusBadRequest)
			return
		}
		client.lastID = id
	}

	// Streams outlive the server's write timeout
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Printf("SSE client %s: clearing write deadline: %v", client.id, err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	select {
	case h.register <- client:
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	fmt.Fprintf(w, ": connected %s\n\n", client.id)
	flusher.Flush()

	ticker := time.NewTicker(KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-client.events:
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// parseTypes reads a comma separated event name filter
func parseTypes(raw string) map[string]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	types := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			types[name] = true
		}
	}
	if len(types) == 0 {
		return nil
	}
	return types
}

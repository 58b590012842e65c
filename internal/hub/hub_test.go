package hub

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx)
	}()

	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
	})
	return h, srv
}

// readData returns the next "data:" line from an SSE stream
func readData(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	lines := make(chan string, 1)
	go func() {
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				close(lines)
				return
			}
			if strings.HasPrefix(line, "data: ") {
				lines <- strings.TrimSpace(strings.TrimPrefix(line, "data: "))
				return
			}
		}
	}()
	select {
	case line, ok := <-lines:
		require.True(t, ok, "stream closed before data arrived")
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("no data received")
		return ""
	}
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	h, srv := startHub(t)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	h.Broadcast(map[string]string{"type": "view_updated"})
	assert.JSONEq(t, `{"type":"view_updated"}`, readData(t, bufio.NewReader(resp.Body)))
}

func TestHub_Forward(t *testing.T) {
	h, srv := startHub(t)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	events := make(chan int, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Forward(ctx, h, events)

	events <- 42
	assert.Equal(t, "42", readData(t, bufio.NewReader(resp.Body)))
}

type namedEvent struct {
	Type string `json:"type"`
	N    int    `json:"n"`
}

func (e namedEvent) EventName() string { return e.Type }

// frame is one SSE event as read off the wire
type frame struct {
	id, name, data string
}

// readFrame returns the next complete event from an SSE stream, skipping
// comments
func readFrame(t *testing.T, r *bufio.Reader) frame {
	t.Helper()
	frames := make(chan frame, 1)
	go func() {
		var f frame
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				close(frames)
				return
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "id: "):
				f.id = strings.TrimPrefix(line, "id: ")
			case strings.HasPrefix(line, "event: "):
				f.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				f.data = strings.TrimPrefix(line, "data: ")
			case line == "" && f.data != "":
				frames <- f
				return
			}
		}
	}()
	select {
	case f, ok := <-frames:
		require.True(t, ok, "stream closed before an event arrived")
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return frame{}
	}
}

func connect(t *testing.T, h *Hub, url string, header http.Header, want int) *bufio.Reader {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Eventually(t, func() bool { return h.ClientCount() == want }, 2*time.Second, 5*time.Millisecond)
	return bufio.NewReader(resp.Body)
}

func TestHub_NamedEventsAndTypeFilter(t *testing.T) {
	h, srv := startHub(t)

	all := connect(t, h, srv.URL, nil, 1)
	views := connect(t, h, srv.URL+"?types=view_updated", nil, 2)

	h.Broadcast(namedEvent{Type: "session_reset"})
	h.Broadcast(namedEvent{Type: "view_updated", N: 2})

	first := readFrame(t, all)
	assert.Equal(t, "1", first.id)
	assert.Equal(t, "session_reset", first.name)
	assert.Equal(t, "view_updated", readFrame(t, all).name)

	got := readFrame(t, views)
	assert.Equal(t, "2", got.id)
	assert.Equal(t, "view_updated", got.name)
	assert.JSONEq(t, `{"type":"view_updated","n":2}`, got.data)
}

func TestHub_ReplayAfterLastEventID(t *testing.T) {
	h, srv := startHub(t)

	first := connect(t, h, srv.URL, nil, 1)
	for i := 1; i <= 3; i++ {
		h.Broadcast(namedEvent{Type: "view_updated", N: i})
	}
	for i := 1; i <= 3; i++ {
		readFrame(t, first)
	}

	again := connect(t, h, srv.URL, http.Header{"Last-Event-ID": {"1"}}, 2)
	assert.Equal(t, "2", readFrame(t, again).id)
	assert.Equal(t, "3", readFrame(t, again).id)
}

func TestHub_BadLastEventID(t *testing.T) {
	_, srv := startHub(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", "soon")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestParseTypes(t *testing.T) {
	assert.Nil(t, parseTypes(""))
	assert.Nil(t, parseTypes(" , "))
	assert.Equal(t, map[string]bool{"a": true, "b": true}, parseTypes("a, b,"))
}

func TestHub_ClientDisconnect(t *testing.T) {
	h, srv := startHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

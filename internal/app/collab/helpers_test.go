package collab

import (
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var peerSeq atomic.Int64

// fakePeer records every frame it is offered.
type fakePeer struct {
	id string

	mu     sync.Mutex
	frames []Frame
	reject bool
	closed bool
}

func newFakePeer() *fakePeer {
	return &fakePeer{id: "peer-" + strconv.FormatInt(peerSeq.Add(1), 10)}
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Send(f Frame) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.reject {
		return false
	}
	p.frames = append(p.frames, f)
	return true
}

func (p *fakePeer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

func (p *fakePeer) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
}

func (p *fakePeer) received() []Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]Frame(nil), p.frames...)
}

func (p *fakePeer) ofType(t EventType) []Frame {
	var out []Frame
	for _, f := range p.received() {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

// fakeClock is a settable time source for registries.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestHub(t *testing.T, cfg HubConfig, relay Relay) *Hub {
	t.Helper()

	h := NewHub(cfg, relay)
	t.Cleanup(h.Shutdown)
	return h
}

// queued decodes every frame waiting in an in-process client's send queue.
func queued(t *testing.T, c *Client) []Frame {
	t.Helper()

	var out []Frame
	for {
		select {
		case data := <-c.send:
			var f Frame
			require.NoError(t, json.Unmarshal(data, &f))
			out = append(out, f)
		default:
			return out
		}
	}
}

func frameTypes(frames []Frame) []EventType {
	out := make([]EventType, len(frames))
	for i, f := range frames {
		out[i] = f.Type
	}
	return out
}

func decodeAs[T any](t *testing.T, f Frame) T {
	t.Helper()

	var v T
	require.NoError(t, f.Decode(&v))
	return v
}

func frame(t *testing.T, typ EventType, payload any) []byte {
	t.Helper()

	data, err := json.Marshal(map[string]any{"type": typ, "payload": payload})
	require.NoError(t, err)
	return data
}

/*
Package collab contains the real-time collaboration layer.

This file defines the Hub, the explicitly owned application context of the
collaboration layer. It holds the room and user registries, the assistant
streamer and the set of live connections, and runs the idle reaper and the
optional cross-instance notification relay.
*/
package collab

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/metrics"
)

// HubConfig carries the timing knobs of the collaboration layer.
type HubConfig struct {
	// IdleTimeout is how long a room or presence set may stay untouched before eviction.
	IdleTimeout time.Duration

	// ReapInterval is how often the reaper sweeps the registries.
	ReapInterval time.Duration

	// AIStreamDelay is the pause before each streamed assistant chunk.
	AIStreamDelay time.Duration

	// AIResponse overrides the canned assistant answer when non-empty.
	AIResponse string
}

// Hub coordinates every collaboration connection of this process.
type Hub struct {
	// Rooms tracks resume rooms.
	Rooms *RoomRegistry

	// Users tracks user channels.
	Users *UserRegistry

	streamer *Streamer
	relay    Relay
	cfg      HubConfig

	// relayDown is set when the relay stops on its own; Notify then delivers locally.
	relayDown atomic.Bool

	// clients holds every live connection, keyed by connection id.
	clients map[string]*Client

	// closed is set once Shutdown starts; no new clients are accepted.
	closed bool

	// mu protects clients and closed.
	mu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	// wg waits for the reaper and relay goroutines during shutdown.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs a Hub and starts its background loops. relay may be nil,
// in which case notifications are delivered to local connections only.
func NewHub(cfg HubConfig, relay Relay) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		Rooms:    NewRoomRegistry(),
		Users:    NewUserRegistry(),
		streamer: NewStreamer(cfg.AIResponse, cfg.AIStreamDelay),
		relay:    relay,
		cfg:      cfg,
		clients:  make(map[string]*Client),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logx.Logger().With().Str("component", "Hub").Logger(),
	}

	if cfg.IdleTimeout > 0 && cfg.ReapInterval > 0 {
		h.wg.Add(1)
		go h.runReapLoop()
	}

	if relay != nil {
		h.wg.Add(1)
		go h.runRelay()
	}

	return h
}

// runReapLoop periodically evicts idle rooms and presence sets.
func (h *Hub) runReapLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.cfg.ReapInterval)
	defer ticker.Stop()

	h.logger.Info().
		Dur("interval", h.cfg.ReapInterval).
		Dur("idle_timeout", h.cfg.IdleTimeout).
		Msg("Reap loop started.")

	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info().Msg("Reap loop stopped.")
			return
		case <-ticker.C:
			h.Reap()
		}
	}
}

// Reap runs one eviction sweep over both registries.
func (h *Hub) Reap() (rooms, users int) {
	rooms = h.Rooms.Reap(h.cfg.IdleTimeout)
	users = h.Users.Reap(h.cfg.IdleTimeout)

	metrics.Reaped.WithLabelValues("room").Add(float64(rooms))
	metrics.Reaped.WithLabelValues("presence").Add(float64(users))
	return rooms, users
}

func (h *Hub) runRelay() {
	defer h.wg.Done()

	deliver := func(userID string, payload json.RawMessage) {
		h.Users.Notify(userID, payload)
	}

	err := h.relay.Run(h.ctx, deliver)
	if h.ctx.Err() != nil {
		return
	}

	h.relayDown.Store(true)
	h.logger.Error().Err(err).Msg("Notification relay exited. Notifications now reach local connections only.")
}

// Notify addresses every connection of userID, on this instance and, when a
// relay is configured, on every other instance. A user with no connections is a no-op.
func (h *Hub) Notify(ctx context.Context, userID string, payload json.RawMessage) error {
	if h.relay != nil && !h.relayDown.Load() {
		return h.relay.Publish(ctx, userID, payload)
	}

	h.Users.Notify(userID, payload)
	return nil
}

// Register tracks a new connection. It returns false once the hub is shutting down.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	h.clients[c.ID()] = c
	metrics.WSConnections.Inc()
	return true
}

// Unregister forgets a connection. It is idempotent.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID()]; ok {
		delete(h.clients, c.ID())
		metrics.WSConnections.Dec()
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Shutdown stops the background loops and closes every live connection.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down Hub...")

	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close("Server is shutting down.")
	}

	h.cancel()
	h.wg.Wait()

	h.logger.Info().Int("closed_connections", len(clients)).Msg("Hub shutdown complete.")
}

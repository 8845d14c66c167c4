package collab

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/metrics"
)

type presenceSet struct {
	conns        map[string]Peer
	lastActivity time.Time
}

// UserRegistry maps user ids to their subscribed connections so a user can be
// addressed directly regardless of the resume rooms they are in.
type UserRegistry struct {
	mu     sync.Mutex
	users  map[string]*presenceSet
	now    func() time.Time
	logger zerolog.Logger
}

// NewUserRegistry returns an empty registry.
func NewUserRegistry() *UserRegistry {
	return &UserRegistry{
		users:  make(map[string]*presenceSet),
		now:    time.Now,
		logger: logx.Logger().With().Str("component", "UserRegistry").Logger(),
	}
}

// Subscribe adds the connection to the user's presence set.
func (ur *UserRegistry) Subscribe(userID string, p Peer) {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	set, ok := ur.users[userID]
	if !ok {
		set = &presenceSet{conns: make(map[string]Peer)}
		ur.users[userID] = set
	}
	set.conns[p.ID()] = p
	set.lastActivity = ur.now()
	metrics.PresenceSets.Set(float64(len(ur.users)))

	ur.logger.Debug().
		Str("user_id", userID).
		Str("conn_id", p.ID()).
		Int("connections", len(set.conns)).
		Msg("Connection subscribed to user channel.")
}

// Unsubscribe removes the connection and drops the user entry once empty.
// It reports whether the connection was subscribed.
func (ur *UserRegistry) Unsubscribe(userID string, p Peer) bool {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	set, ok := ur.users[userID]
	if !ok {
		return false
	}
	if _, ok := set.conns[p.ID()]; !ok {
		return false
	}

	delete(set.conns, p.ID())
	if len(set.conns) == 0 {
		delete(ur.users, userID)
	}
	metrics.PresenceSets.Set(float64(len(ur.users)))
	return true
}

// Notify sends a notification frame to every connection of the user and
// returns how many accepted it. Users without connections are skipped.
func (ur *UserRegistry) Notify(userID string, payload json.RawMessage) int {
	ur.mu.Lock()
	set, ok := ur.users[userID]
	if !ok {
		ur.mu.Unlock()
		return 0
	}
	set.lastActivity = ur.now()
	peers := make([]Peer, 0, len(set.conns))
	for _, p := range set.conns {
		peers = append(peers, p)
	}
	ur.mu.Unlock()

	frame := Frame{Type: EventNotification, Payload: payload, Timestamp: ur.now().UnixMilli()}

	delivered := 0
	for _, p := range peers {
		if p.Send(frame) {
			delivered++
		} else {
			ur.logger.Warn().Str("user_id", userID).Str("conn_id", p.ID()).Msg("Notification dropped.")
		}
	}
	return delivered
}

// Reap prunes closed connections from presence sets idle for longer than idle
// and returns how many sets became empty and were removed. A set with a live
// connection is kept however long it has been quiet.
func (ur *UserRegistry) Reap(idle time.Duration) int {
	cutoff := ur.now().Add(-idle)

	ur.mu.Lock()
	defer ur.mu.Unlock()

	removed, pruned := 0, 0
	for id, set := range ur.users {
		if !set.lastActivity.Before(cutoff) {
			continue
		}
		for connID, p := range set.conns {
			if p.Closed() {
				delete(set.conns, connID)
				pruned++
			}
		}
		if len(set.conns) == 0 {
			delete(ur.users, id)
			removed++
		}
	}
	metrics.PresenceSets.Set(float64(len(ur.users)))

	if pruned > 0 {
		ur.logger.Info().
			Int("pruned_connections", pruned).
			Int("removed", removed).
			Dur("idle", idle).
			Msg("Idle presence sets swept.")
	}
	return removed
}

// Touch marks the user's presence set as active.
func (ur *UserRegistry) Touch(userID string) {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	if set, ok := ur.users[userID]; ok {
		set.lastActivity = ur.now()
	}
}

// Connections returns the number of connections subscribed for userID.
func (ur *UserRegistry) Connections(userID string) int {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	if set, ok := ur.users[userID]; ok {
		return len(set.conns)
	}
	return 0
}

// Len returns the number of users with at least one subscribed connection.
func (ur *UserRegistry) Len() int {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	return len(ur.users)
}

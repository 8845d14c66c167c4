/*
Package collab contains the real-time collaboration layer: resume rooms, user
channels, the inbound event router and the mock assistant stream.

This file defines the RoomRegistry, which tracks which collaborators are viewing
which resume together with their ephemeral cursor and selection state.
*/
package collab

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/metrics"
)

// Peer is a connection that can receive frames.
type Peer interface {
	// ID uniquely identifies the connection.
	ID() string

	// Send queues a frame without blocking. It reports whether the frame was queued.
	Send(f Frame) bool

	// Closed reports whether the connection has gone away.
	Closed() bool
}

// roomTracker is implemented by peers that remember which room they joined.
type roomTracker interface {
	roomClosed(resumeID string)
}

type member struct {
	session Collaborator
	peer    Peer
}

// resumeRoom holds the collaborators of one resume.
// Invariant: every key of cursors and selections is also a key of members.
type resumeRoom struct {
	id           string
	members      map[string]*member
	cursors      map[string]json.RawMessage
	selections   map[string]json.RawMessage
	lastActivity time.Time
}

// others returns the peers of every member except userID.
func (r *resumeRoom) others(userID string) []Peer {
	peers := make([]Peer, 0, len(r.members))
	for id, m := range r.members {
		if id != userID {
			peers = append(peers, m.peer)
		}
	}
	return peers
}

// RoomRegistry maps resume ids to rooms. Rooms are created on first join and
// removed as soon as their last collaborator leaves.
type RoomRegistry struct {
	mu     sync.Mutex
	rooms  map[string]*resumeRoom
	now    func() time.Time
	logger zerolog.Logger
}

// NewRoomRegistry returns an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]*resumeRoom),
		now:    time.Now,
		logger: logx.Logger().With().Str("component", "RoomRegistry").Logger(),
	}
}

// Join adds the session to the resume room, creating the room if needed, and
// returns the collaborators that were already present. A session for the same
// user replaces the previous one. The rest of the room receives user_joined.
func (rr *RoomRegistry) Join(resumeID string, session Collaborator, p Peer) []Collaborator {
	session.CurrentResumeID = resumeID

	rr.mu.Lock()

	room, ok := rr.rooms[resumeID]
	if !ok {
		room = &resumeRoom{
			id:         resumeID,
			members:    make(map[string]*member),
			cursors:    make(map[string]json.RawMessage),
			selections: make(map[string]json.RawMessage),
		}
		rr.rooms[resumeID] = room
		rr.logger.Debug().Str("resume_id", resumeID).Msg("Room created.")
	}

	if existing, ok := room.members[session.UserID]; ok && existing.peer.ID() != p.ID() {
		rr.logger.Info().
			Str("resume_id", resumeID).
			Str("user_id", session.UserID).
			Str("stale_conn_id", existing.peer.ID()).
			Msg("Session replaced by a new connection.")
	}

	room.members[session.UserID] = &member{session: session, peer: p}
	room.lastActivity = rr.now()

	present := make([]Collaborator, 0, len(room.members)-1)
	for id, m := range room.members {
		if id != session.UserID {
			present = append(present, m.session)
		}
	}
	sort.Slice(present, func(i, j int) bool { return present[i].UserID < present[j].UserID })

	recipients := room.others(session.UserID)
	total := len(room.members)
	metrics.ActiveRooms.Set(float64(len(rr.rooms)))

	rr.mu.Unlock()

	rr.logger.Info().
		Str("resume_id", resumeID).
		Str("user_id", session.UserID).
		Int("total_users", total).
		Msg("Collaborator joined room.")

	rr.broadcast(recipients, EventUserJoined, UserJoinedPayload{
		ResumeID: resumeID,
		UserID:   session.UserID,
		UserName: session.DisplayName,
	})

	return present
}

// Leave removes userID from the room along with its cursor and selection and
// deletes the room once empty. When p is non-nil the call is ignored unless p
// is the connection currently holding the session. It reports whether a
// session was removed; the rest of the room then receives user_left.
func (rr *RoomRegistry) Leave(resumeID, userID string, p Peer) bool {
	rr.mu.Lock()

	room, ok := rr.rooms[resumeID]
	if !ok {
		rr.mu.Unlock()
		return false
	}

	m, ok := room.members[userID]
	if !ok {
		rr.mu.Unlock()
		return false
	}

	if p != nil && m.peer.ID() != p.ID() {
		rr.mu.Unlock()
		rr.logger.Info().
			Str("resume_id", resumeID).
			Str("user_id", userID).
			Str("stale_conn_id", p.ID()).
			Msg("Ignoring leave for stale connection.")
		return false
	}

	delete(room.members, userID)
	delete(room.cursors, userID)
	delete(room.selections, userID)
	room.lastActivity = rr.now()

	remaining := len(room.members)
	recipients := room.others(userID)
	if remaining == 0 {
		delete(rr.rooms, resumeID)
	}
	metrics.ActiveRooms.Set(float64(len(rr.rooms)))

	rr.mu.Unlock()

	rr.logger.Info().
		Str("resume_id", resumeID).
		Str("user_id", userID).
		Int("total_users", remaining).
		Msg("Collaborator left room.")

	rr.broadcast(recipients, EventUserLeft, UserLeftPayload{ResumeID: resumeID, UserID: userID})
	return true
}

// UpdateCursor stores the latest cursor position of userID and relays it to
// the rest of the room. Updates from non-members are dropped.
func (rr *RoomRegistry) UpdateCursor(resumeID, userID string, position json.RawMessage, p Peer) bool {
	return rr.relay(resumeID, userID, p, func(room *resumeRoom) {
		room.cursors[userID] = position
	}, EventCursorUpdate, CursorUpdatePayload{ResumeID: resumeID, UserID: userID, Position: position})
}

// UpdateSelection stores the latest selection range of userID and relays it
// to the rest of the room. Updates from non-members are dropped.
func (rr *RoomRegistry) UpdateSelection(resumeID, userID string, selection json.RawMessage, p Peer) bool {
	return rr.relay(resumeID, userID, p, func(room *resumeRoom) {
		room.selections[userID] = selection
	}, EventSelectionUpdate, SelectionUpdatePayload{ResumeID: resumeID, UserID: userID, Selection: selection})
}

// ApplyEdit relays an opaque change set to the rest of the room. Nothing is
// merged or stored; concurrent edits are delivered in arrival order.
func (rr *RoomRegistry) ApplyEdit(resumeID, userID string, changes json.RawMessage, p Peer) bool {
	return rr.relay(resumeID, userID, p, nil, EventResumeUpdated, ResumeUpdatedPayload{
		ResumeID:  resumeID,
		UserID:    userID,
		Changes:   changes,
		Timestamp: rr.now().UnixMilli(),
	})
}

// Typing relays a typing indicator to the rest of the room.
func (rr *RoomRegistry) Typing(resumeID, userID string, isTyping bool, p Peer) bool {
	return rr.relay(resumeID, userID, p, nil, EventUserTyping, TypingUpdatePayload{
		ResumeID: resumeID,
		UserID:   userID,
		IsTyping: isTyping,
	})
}

func (rr *RoomRegistry) relay(resumeID, userID string, p Peer, mutate func(*resumeRoom), t EventType, payload any) bool {
	rr.mu.Lock()

	room, ok := rr.rooms[resumeID]
	if !ok {
		rr.mu.Unlock()
		return false
	}

	m, ok := room.members[userID]
	if !ok || (p != nil && m.peer.ID() != p.ID()) {
		rr.mu.Unlock()
		return false
	}

	if mutate != nil {
		mutate(room)
	}
	room.lastActivity = rr.now()
	recipients := room.others(userID)

	rr.mu.Unlock()

	rr.broadcast(recipients, t, payload)
	return true
}

// Reap evicts rooms without activity for longer than idle. Remaining members
// receive room_closed. It returns the number of rooms removed.
func (rr *RoomRegistry) Reap(idle time.Duration) int {
	cutoff := rr.now().Add(-idle)

	type closed struct {
		resumeID string
		peers    []Peer
	}
	var evicted []closed

	rr.mu.Lock()
	for id, room := range rr.rooms {
		if room.lastActivity.Before(cutoff) {
			evicted = append(evicted, closed{resumeID: id, peers: room.others("")})
			delete(rr.rooms, id)
		}
	}
	metrics.ActiveRooms.Set(float64(len(rr.rooms)))
	rr.mu.Unlock()

	for _, c := range evicted {
		rr.logger.Info().Str("resume_id", c.resumeID).Dur("idle", idle).Msg("Idle room evicted.")
		for _, p := range c.peers {
			if t, ok := p.(roomTracker); ok {
				t.roomClosed(c.resumeID)
			}
		}
		rr.broadcast(c.peers, EventRoomClosed, RoomClosedPayload{ResumeID: c.resumeID, Reason: "idle"})
	}

	return len(evicted)
}

// Count returns the number of collaborators in the room, zero if absent.
func (rr *RoomRegistry) Count(resumeID string) int {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if room, ok := rr.rooms[resumeID]; ok {
		return len(room.members)
	}
	return 0
}

// Exists reports whether the registry holds an entry for resumeID.
func (rr *RoomRegistry) Exists(resumeID string) bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	_, ok := rr.rooms[resumeID]
	return ok
}

// Len returns the number of live rooms.
func (rr *RoomRegistry) Len() int {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	return len(rr.rooms)
}

// Collaborators returns the sessions of the room sorted by user id.
func (rr *RoomRegistry) Collaborators(resumeID string) []Collaborator {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	room, ok := rr.rooms[resumeID]
	if !ok {
		return nil
	}

	out := make([]Collaborator, 0, len(room.members))
	for _, m := range room.members {
		out = append(out, m.session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Cursor returns the last stored cursor of userID.
func (rr *RoomRegistry) Cursor(resumeID, userID string) (json.RawMessage, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	room, ok := rr.rooms[resumeID]
	if !ok {
		return nil, false
	}
	pos, ok := room.cursors[userID]
	return pos, ok
}

// Selection returns the last stored selection of userID.
func (rr *RoomRegistry) Selection(resumeID, userID string) (json.RawMessage, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	room, ok := rr.rooms[resumeID]
	if !ok {
		return nil, false
	}
	sel, ok := room.selections[userID]
	return sel, ok
}

func (rr *RoomRegistry) broadcast(peers []Peer, t EventType, payload any) {
	if len(peers) == 0 {
		return
	}

	frame, err := NewFrame(t, payload)
	if err != nil {
		rr.logger.Error().Err(err).Str("event", string(t)).Msg("Failed to build broadcast frame.")
		return
	}

	for _, p := range peers {
		if !p.Send(frame) {
			rr.logger.Warn().
				Str("conn_id", p.ID()).
				Str("event", string(t)).
				Msg("Peer send queue full or closed, frame dropped.")
		}
	}
}

package collab

import (
	"encoding/json"
	"time"

	"roleready/internal/pkg/errs"
)

// EventType names a collaboration frame, inbound or outbound.
type EventType string

// Inbound events, sent by browsers.
const (
	EventJoinResumeRoom  EventType = "join_resume_room"
	EventLeaveResumeRoom EventType = "leave_resume_room"
	EventResumeUpdate    EventType = "resume_update"
	EventResumeCursor    EventType = "resume_cursor"
	EventResumeSelection EventType = "resume_selection"
	EventJoinUserRoom    EventType = "join_user_room"
	EventLeaveUserRoom   EventType = "leave_user_room"
	EventUserTyping      EventType = "user_typing"
	EventAIRequest       EventType = "ai_request"
)

// Outbound events, sent by the server.
const (
	EventCollaboratorsList EventType = "collaborators_list"
	EventUserJoined        EventType = "user_joined"
	EventUserLeft          EventType = "user_left"
	EventResumeUpdated     EventType = "resume_updated"
	EventCursorUpdate      EventType = "cursor_update"
	EventSelectionUpdate   EventType = "selection_update"
	EventUserRoomJoined    EventType = "user_room_joined"
	EventNotification      EventType = "notification"
	EventRoomClosed        EventType = "room_closed"
	EventAIResponseStart   EventType = "ai_response_start"
	EventAIResponseChunk   EventType = "ai_response_chunk"
	EventAIResponseEnd     EventType = "ai_response_end"
	EventAIError           EventType = "ai_error"
	EventError             EventType = "error"
)

// Frame is the envelope of every message on the collaboration socket.
type Frame struct {
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// NewFrame marshals payload into a timestamped frame of the given type.
func NewFrame(t EventType, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: t, Payload: raw, Timestamp: time.Now().UnixMilli()}, nil
}

// Decode unmarshals the frame payload into dst.
func (f Frame) Decode(dst any) error {
	return json.Unmarshal(f.Payload, dst)
}

// Collaborator is a user's presence record inside a resume room.
type Collaborator struct {
	UserID          string `json:"userId"`
	DisplayName     string `json:"userName"`
	CurrentResumeID string `json:"currentResumeId,omitempty"`
}

// --- inbound payloads ---

// RoomPayload addresses a resume room on behalf of a user.
type RoomPayload struct {
	ResumeID string `json:"resumeId"`
	UserID   string `json:"userId"`
}

func (p *RoomPayload) setUserID(id string) { p.UserID = id }

func (p *RoomPayload) validate() *errs.CustomError {
	return requireFields(field{"resumeId", p.ResumeID != ""}, field{"userId", p.UserID != ""})
}

// JoinResumeRoomPayload is sent to enter a resume room.
type JoinResumeRoomPayload struct {
	RoomPayload
	UserName string `json:"userName,omitempty"`
}

// ResumeUpdatePayload carries an opaque change set for the rest of the room.
type ResumeUpdatePayload struct {
	RoomPayload
	Changes json.RawMessage `json:"changes"`
}

func (p *ResumeUpdatePayload) validate() *errs.CustomError {
	if err := p.RoomPayload.validate(); err != nil {
		return err
	}
	return requireFields(field{"changes", present(p.Changes)})
}

// CursorPayload carries a cursor position; its shape is owned by the editor.
type CursorPayload struct {
	RoomPayload
	Position json.RawMessage `json:"position"`
}

func (p *CursorPayload) validate() *errs.CustomError {
	if err := p.RoomPayload.validate(); err != nil {
		return err
	}
	return requireFields(field{"position", present(p.Position)})
}

// SelectionPayload carries a selection range; its shape is owned by the editor.
type SelectionPayload struct {
	RoomPayload
	Selection json.RawMessage `json:"selection"`
}

func (p *SelectionPayload) validate() *errs.CustomError {
	if err := p.RoomPayload.validate(); err != nil {
		return err
	}
	return requireFields(field{"selection", present(p.Selection)})
}

// TypingPayload toggles a typing indicator.
type TypingPayload struct {
	RoomPayload
	IsTyping bool `json:"isTyping"`
}

// UserRoomPayload addresses a user's direct channel.
type UserRoomPayload struct {
	UserID string `json:"userId"`
}

func (p *UserRoomPayload) setUserID(id string) { p.UserID = id }

func (p *UserRoomPayload) validate() *errs.CustomError {
	return requireFields(field{"userId", p.UserID != ""})
}

// AIRequestPayload asks the assistant for a streamed answer.
type AIRequestPayload struct {
	Prompt  string          `json:"prompt"`
	Context json.RawMessage `json:"context,omitempty"`
}

func (p *AIRequestPayload) validate() *errs.CustomError {
	return requireFields(field{"prompt", p.Prompt != ""})
}

// --- outbound payloads ---

// CollaboratorsListPayload is sent to a joiner with everyone already in the room.
type CollaboratorsListPayload struct {
	ResumeID      string         `json:"resumeId"`
	Collaborators []Collaborator `json:"collaborators"`
}

// UserJoinedPayload announces a new collaborator.
type UserJoinedPayload struct {
	ResumeID string `json:"resumeId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// UserLeftPayload announces a departed collaborator.
type UserLeftPayload struct {
	ResumeID string `json:"resumeId"`
	UserID   string `json:"userId"`
}

// ResumeUpdatedPayload relays an edit to the rest of the room.
type ResumeUpdatedPayload struct {
	ResumeID  string          `json:"resumeId"`
	UserID    string          `json:"userId"`
	Changes   json.RawMessage `json:"changes"`
	Timestamp int64           `json:"timestamp"`
}

// CursorUpdatePayload relays a cursor move.
type CursorUpdatePayload struct {
	ResumeID string          `json:"resumeId"`
	UserID   string          `json:"userId"`
	Position json.RawMessage `json:"position"`
}

// SelectionUpdatePayload relays a selection change.
type SelectionUpdatePayload struct {
	ResumeID  string          `json:"resumeId"`
	UserID    string          `json:"userId"`
	Selection json.RawMessage `json:"selection"`
}

// TypingUpdatePayload relays a typing indicator.
type TypingUpdatePayload struct {
	ResumeID string `json:"resumeId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// RoomClosedPayload tells members that the server dropped the room.
type RoomClosedPayload struct {
	ResumeID string `json:"resumeId"`
	Reason   string `json:"reason"`
}

// AIChunkPayload carries one streamed token.
type AIChunkPayload struct {
	RequestID string `json:"requestId"`
	Index     int    `json:"index"`
	Chunk     string `json:"chunk"`
}

// AIStreamPayload marks the start or end of a stream.
type AIStreamPayload struct {
	RequestID string `json:"requestId"`
	Response  string `json:"response,omitempty"`
}

// ErrorPayload reports a rejected frame or failed stream.
type ErrorPayload struct {
	RequestID string `json:"requestId,omitempty"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
}

type field struct {
	name string
	ok   bool
}

func requireFields(fields ...field) *errs.CustomError {
	for _, f := range fields {
		if !f.ok {
			return errs.NewError(errs.ErrMissingField, f.name)
		}
	}
	return nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

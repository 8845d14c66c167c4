package collab

import (
	"encoding/json"

	"roleready/internal/pkg/errs"
	"roleready/internal/pkg/metrics"
)

// eventHandler processes one decoded inbound frame for a connection.
type eventHandler func(c *Client, raw json.RawMessage) *errs.CustomError

// eventHandlers is the dispatch table of inbound events.
var eventHandlers = map[EventType]eventHandler{
	EventJoinResumeRoom:  handleJoinResumeRoom,
	EventLeaveResumeRoom: handleLeaveResumeRoom,
	EventResumeUpdate:    handleResumeUpdate,
	EventResumeCursor:    handleResumeCursor,
	EventResumeSelection: handleResumeSelection,
	EventUserTyping:      handleUserTyping,
	EventJoinUserRoom:    handleJoinUserRoom,
	EventLeaveUserRoom:   handleLeaveUserRoom,
	EventAIRequest:       handleAIRequest,
}

type inboundFrame struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type validator interface {
	validate() *errs.CustomError
}

type userScoped interface {
	setUserID(id string)
}

// HandleFrame decodes and dispatches one raw frame. Rejected frames are
// answered with an error frame and never reach the registries.
func (c *Client) HandleFrame(data []byte) {
	var in inboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		metrics.InboundEvents.WithLabelValues("invalid", "malformed").Inc()
		c.logger.Debug().Err(err).Msg("Malformed frame.")
		c.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	handler, ok := eventHandlers[in.Type]
	if !ok {
		metrics.InboundEvents.WithLabelValues("unknown", "rejected").Inc()
		c.SendError(errs.NewError(errs.ErrUnknownEvent, in.Type))
		return
	}

	c.touchUserRooms()

	if customErr := handler(c, in.Payload); customErr != nil {
		metrics.InboundEvents.WithLabelValues(string(in.Type), "rejected").Inc()
		c.logger.Debug().
			Str("event", string(in.Type)).
			Int("code", customErr.Code).
			Msg("Frame rejected.")
		c.SendError(customErr)
		return
	}

	metrics.InboundEvents.WithLabelValues(string(in.Type), "ok").Inc()
}

// decodePayload unmarshals raw into dst, pins the user id to the socket's
// verified identity when there is one, and validates required fields.
func (c *Client) decodePayload(raw json.RawMessage, dst validator) *errs.CustomError {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if scoped, ok := dst.(userScoped); ok && c.identity != nil {
		scoped.setUserID(c.identity.ID)
	}

	return dst.validate()
}

func handleJoinResumeRoom(c *Client, raw json.RawMessage) *errs.CustomError {
	var p JoinResumeRoomPayload
	if err := c.decodePayload(raw, &p); err != nil {
		return err
	}

	name := p.UserName
	if c.identity != nil {
		name = c.identity.DisplayName()
	}
	if name == "" {
		name = p.UserID
	}

	// a connection sits in one resume room at a time
	if prevResume, prevUser := c.CurrentRoom(); prevResume != "" &&
		(prevResume != p.ResumeID || prevUser != p.UserID) {
		c.hub.Rooms.Leave(prevResume, prevUser, c)
	}

	others := c.hub.Rooms.Join(p.ResumeID, Collaborator{UserID: p.UserID, DisplayName: name}, c)
	c.setRoom(p.ResumeID, p.UserID)

	c.emit(EventCollaboratorsList, CollaboratorsListPayload{ResumeID: p.ResumeID, Collaborators: others})
	return nil
}

func handleLeaveResumeRoom(c *Client, raw json.RawMessage) *errs.CustomError {
	var p RoomPayload
	if err := c.decodePayload(raw, &p); err != nil {
		return err
	}

	c.hub.Rooms.Leave(p.ResumeID, p.UserID, c)
	c.clearRoom(p.ResumeID, p.UserID)
	return nil
}

func handleResumeUpdate(c *Client, raw json.RawMessage) *errs.CustomError {
	var p ResumeUpdatePayload
	if err := c.decodePayload(raw, &p); err != nil {
		return err
	}

	if !c.hub.Rooms.ApplyEdit(p.ResumeID, p.UserID, p.Changes, c) {
		return errs.NewError(errs.ErrNotInRoom, p.ResumeID)
	}
	return nil
}

func handleResumeCursor(c *Client, raw json.RawMessage) *errs.CustomError {
	var p CursorPayload
	if err := c.decodePayload(raw, &p); err != nil {
		return err
	}

	if !c.hub.Rooms.UpdateCursor(p.ResumeID, p.UserID, p.Position, c) {
		return errs.NewError(errs.ErrNotInRoom, p.ResumeID)
	}
	return nil
}

func handleResumeSelection(c *Client, raw json.RawMessage) *errs.CustomError {
	var p SelectionPayload
	if err := c.decodePayload(raw, &p); err != nil {
		return err
	}

	if !c.hub.Rooms.UpdateSelection(p.ResumeID, p.UserID, p.Selection, c) {
		return errs.NewError(errs.ErrNotInRoom, p.ResumeID)
	}
	return nil
}

func handleUserTyping(c *Client, raw json.RawMessage) *errs.CustomError {
	var p TypingPayload
	if err := c.decodePayload(raw, &p); err != nil {
		return err
	}

	if !c.hub.Rooms.Typing(p.ResumeID, p.UserID, p.IsTyping, c) {
		return errs.NewError(errs.ErrNotInRoom, p.ResumeID)
	}
	return nil
}

func handleJoinUserRoom(c *Client, raw json.RawMessage) *errs.CustomError {
	var p UserRoomPayload
	if err := c.decodePayload(raw, &p); err != nil {
		return err
	}

	c.hub.Users.Subscribe(p.UserID, c)
	c.addUserRoom(p.UserID)

	c.emit(EventUserRoomJoined, UserRoomPayload{UserID: p.UserID})
	return nil
}

func handleLeaveUserRoom(c *Client, raw json.RawMessage) *errs.CustomError {
	var p UserRoomPayload
	if err := c.decodePayload(raw, &p); err != nil {
		return err
	}

	c.hub.Users.Unsubscribe(p.UserID, c)
	c.removeUserRoom(p.UserID)
	return nil
}

func handleAIRequest(c *Client, raw json.RawMessage) *errs.CustomError {
	var p AIRequestPayload
	if err := c.decodePayload(raw, &p); err != nil {
		return err
	}

	go c.hub.streamer.Stream(c.ctx, p.Prompt, c.Send)
	return nil
}

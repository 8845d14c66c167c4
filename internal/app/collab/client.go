/*
Package collab contains the real-time collaboration layer.

This file defines the Client struct, representing an active WebSocket connection. It manages the
connection's lifecycle, its read and write loops, and the room and user channels it has joined.
*/
package collab

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roleready/internal/app/user"
	"roleready/internal/pkg/errs"
	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 64 << 10

	// number of outbound frames buffered per connection.
	sendBufferSize = 256
)

// Client struct represents an active WebSocket connection and its associated identity.
type Client struct {
	id string

	hub *Hub

	// underlying WebSocket connection object; nil for in-process clients.
	conn *websocket.Conn

	// identity is the verified account behind the socket, nil for anonymous sockets.
	identity *user.User

	// a buffered channel used to queue frames waiting to be written.
	send chan []byte

	// done is closed when the connection is going away.
	done      chan struct{}
	closeOnce sync.Once

	// ctx is cancelled on disconnect and bounds assistant streams.
	ctx    context.Context
	cancel context.CancelFunc

	disconnectOnce sync.Once

	// mu protects the membership fields below.
	mu        sync.Mutex
	resumeID  string
	userID    string
	userRooms map[string]struct{}

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs and returns a new Client instance.
func NewClient(hub *Hub, wsConn *websocket.Conn, identity *user.User) *Client {
	id := randx.ConnectionID()

	logCtx := logx.Logger().With().Str("conn_id", id)
	if identity != nil {
		logCtx = logCtx.Str("user_id", identity.ID)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		id:        id,
		hub:       hub,
		conn:      wsConn,
		identity:  identity,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		userRooms: make(map[string]struct{}),
		logger:    logCtx.Logger(),
	}
}

// ID implements Peer.
func (c *Client) ID() string {
	return c.id
}

// Send implements Peer. It never blocks: a full queue drops the frame.
func (c *Client) Send(f Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	data, err := json.Marshal(f)
	if err != nil {
		c.logger.Error().Err(err).Str("event", string(f.Type)).Msg("Error marshaling frame for client")
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Str("event", string(f.Type)).Msg("Client send channel full, dropping frame")
		return false
	}
}

// Closed implements Peer.
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// ReadPump handles reading frames from the WebSocket connection.
// It handles heartbeats (Pong), frame dispatch, and performs cleanup upon connection closure.
func (c *Client) ReadPump() {
	defer c.Disconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		c.touchUserRooms()
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			return
		}

		c.HandleFrame(data)
	}
}

// WritePump handles writing frames from the Client.send channel to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case data := <-c.send:
			if !c.write(websocket.TextMessage, data) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			c.drain()
			return
		}
	}
}

// drain flushes frames that were queued before the connection was closed.
func (c *Client) drain() {
	for {
		select {
		case data := <-c.send:
			if !c.write(websocket.TextMessage, data) {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Debug().Err(err).Int("message_type", messageType).Msg("Error writing to connection")
		return false
	}
	return true
}

// Close sends a going-away close frame and stops the connection.
func (c *Client) Close(reason string) {
	if c.conn == nil {
		c.Disconnect()
		return
	}

	closeMessage := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	if err := c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to send close frame.")
	}

	c.closeDone()
}

// Disconnect leaves the current resume room, drops every user channel
// subscription, cancels running streams and unregisters from the hub.
// It is safe to call more than once.
func (c *Client) Disconnect() {
	c.disconnectOnce.Do(func() {
		c.logger.Info().Msg("Client connection cleanup starting.")

		c.cancel()

		c.mu.Lock()
		resumeID, userID := c.resumeID, c.userID
		c.resumeID, c.userID = "", ""
		userRooms := make([]string, 0, len(c.userRooms))
		for u := range c.userRooms {
			userRooms = append(userRooms, u)
		}
		clear(c.userRooms)
		c.mu.Unlock()

		if resumeID != "" {
			c.hub.Rooms.Leave(resumeID, userID, c)
		}
		for _, u := range userRooms {
			c.hub.Users.Unsubscribe(u, c)
		}

		c.hub.Unregister(c)
		c.closeDone()

		if c.conn != nil {
			if err := c.conn.Close(); err != nil {
				c.logger.Debug().Err(err).Msg("Client connection close error")
			}
		}
	})
}

func (c *Client) closeDone() {
	c.closeOnce.Do(func() { close(c.done) })
}

// CurrentRoom returns the resume room and user id the connection is joined as.
func (c *Client) CurrentRoom() (resumeID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.resumeID, c.userID
}

func (c *Client) setRoom(resumeID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resumeID, c.userID = resumeID, userID
}

func (c *Client) clearRoom(resumeID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resumeID == resumeID && c.userID == userID {
		c.resumeID, c.userID = "", ""
	}
}

// roomClosed forgets a resume room the registry evicted.
func (c *Client) roomClosed(resumeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resumeID == resumeID {
		c.resumeID, c.userID = "", ""
	}
}

func (c *Client) addUserRoom(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.userRooms[userID] = struct{}{}
}

func (c *Client) removeUserRoom(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.userRooms, userID)
}

func (c *Client) touchUserRooms() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.userRooms))
	for u := range c.userRooms {
		ids = append(ids, u)
	}
	c.mu.Unlock()

	for _, u := range ids {
		c.hub.Users.Touch(u)
	}
}

// emit builds and queues a frame for this connection only.
func (c *Client) emit(t EventType, payload any) {
	frame, err := NewFrame(t, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event", string(t)).Msg("Failed to build frame.")
		return
	}
	c.Send(frame)
}

// SendError reports a rejected frame back to this connection.
func (c *Client) SendError(customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}
	c.emit(EventError, ErrorPayload{Code: customErr.Code, Message: customErr.Message})
}

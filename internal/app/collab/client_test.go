package collab

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSocketServer(t *testing.T, h *Hub) string {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		c := NewClient(h, conn, nil)
		if !h.Register(c) {
			conn.Close()
			return
		}

		go c.WritePump()
		c.ReadPump()
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ EventType, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame(t, typ, payload)))
}

func read(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f Frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestSocketJoinAndDisconnectScenario(t *testing.T) {
	h := newTestHub(t, HubConfig{}, nil)
	url := newSocketServer(t, h)

	connA := dial(t, url)
	send(t, connA, EventJoinResumeRoom, map[string]string{"resumeId": "r1", "userId": "A", "userName": "Ann"})
	require.Equal(t, EventCollaboratorsList, read(t, connA).Type)

	connB := dial(t, url)
	send(t, connB, EventJoinResumeRoom, map[string]string{"resumeId": "r1", "userId": "B", "userName": "Bob"})

	list := read(t, connB)
	require.Equal(t, EventCollaboratorsList, list.Type)
	collaborators := decodeAs[CollaboratorsListPayload](t, list).Collaborators
	require.Len(t, collaborators, 1)
	assert.Equal(t, "A", collaborators[0].UserID)

	joined := read(t, connA)
	require.Equal(t, EventUserJoined, joined.Type)
	assert.Equal(t, "B", decodeAs[UserJoinedPayload](t, joined).UserID)

	require.NoError(t, connA.Close())

	left := read(t, connB)
	require.Equal(t, EventUserLeft, left.Type)
	assert.Equal(t, UserLeftPayload{ResumeID: "r1", UserID: "A"}, decodeAs[UserLeftPayload](t, left))
	assert.Equal(t, 1, h.Rooms.Count("r1"))

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestSocketMalformedFrameGetsErrorEvent(t *testing.T) {
	h := newTestHub(t, HubConfig{}, nil)
	conn := dial(t, newSocketServer(t, h))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	f := read(t, conn)
	assert.Equal(t, EventError, f.Type)
}

func TestSocketShutdownSendsCloseFrame(t *testing.T) {
	h := NewHub(HubConfig{}, nil)
	conn := dial(t, newSocketServer(t, h))

	send(t, conn, EventJoinUserRoom, map[string]string{"userId": "u1"})
	require.Equal(t, EventUserRoomJoined, read(t, conn).Type)

	h.Shutdown()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err.Error())
}

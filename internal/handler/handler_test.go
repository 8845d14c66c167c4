package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roleready/internal/app/collab"
	"roleready/internal/app/records"
	"roleready/internal/app/storage"
	"roleready/internal/configs"
	"roleready/internal/pkg/auth/jwt"
)

const testSecret = "handler-test-secret"

type testEnv struct {
	deps    *AppDeps
	router  http.Handler
	storage *storage.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hub := collab.NewHub(collab.HubConfig{}, nil)
	t.Cleanup(hub.Shutdown)

	store := storage.NewMemoryStore()
	deps := &AppDeps{
		Hub: hub,
		Config: &configs.AppConfig{
			Environment: "development",
			Host:        "127.0.0.1",
			Port:        3001,
			JWTSecret:   testSecret,
		},
		Records:        records.NewMemoryStore(),
		StorageService: store,
	}

	return &testEnv{deps: deps, router: Router(deps), storage: store}
}

func token(t *testing.T, id string) string {
	t.Helper()

	tok, err := jwt.GenerateToken(&jwt.Payload{ID: id, Email: id + "@example.com", Name: "User " + id}, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, tok, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		r.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndStatusArePublic(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"RoleReady API"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/status", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	status := decodeBody[map[string]any](t, w)
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "development", status["environment"])
	assert.EqualValues(t, 0, status["rooms"])
}

func TestUnauthenticatedCreateResumeIsRejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/resumes", "", `{"title":"Backend"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestInvalidTokenIsRejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/users/profile", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/users/profile"},
		{http.MethodGet, "/api/resumes"},
		{http.MethodGet, "/api/jobs"},
		{http.MethodPost, "/api/jobs"},
		{http.MethodPost, "/api/cloud/save"},
		{http.MethodGet, "/api/cloud/list"},
		{http.MethodGet, "/api/cloud/download?key=u1/1-a.json"},
		{http.MethodPost, "/api/notifications"},
	}
	for _, rt := range routes {
		w := env.do(t, rt.method, rt.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, rt.path)
	}
}

func TestProfileReturnsTokenIdentity(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/users/profile", token(t, "u1"), "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","email":"u1@example.com","name":"User u1"}`, w.Body.String())
}

func TestResumeCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	tok := token(t, "u1")

	w := env.do(t, http.MethodGet, "/api/resumes", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/resumes", tok, `{"title":"Backend","sections":[]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[map[string]any](t, w)
	assert.Equal(t, "Backend", created["title"])
	assert.NotEmpty(t, created["id"])
	assert.NotEmpty(t, created["createdAt"])

	w = env.do(t, http.MethodGet, "/api/resumes", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[[]map[string]any](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, created["id"], list[0]["id"])

	// collections are per owner and per kind
	w = env.do(t, http.MethodGet, "/api/resumes", token(t, "u2"), "")
	assert.JSONEq(t, `[]`, w.Body.String())
	w = env.do(t, http.MethodGet, "/api/jobs", tok, "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRecordEchoPreservesNumbers(t *testing.T) {
	env := newTestEnv(t)
	tok := token(t, "u1")

	w := env.do(t, http.MethodPost, "/api/jobs", tok, `{"company":"Acme","salary":12345678901234567891}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"salary":12345678901234567891`)

	w = env.do(t, http.MethodGet, "/api/jobs", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"salary":12345678901234567891`)
}

func TestJobCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	tok := token(t, "u1")

	w := env.do(t, http.MethodPost, "/api/jobs", tok, `["not","an","object"]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/jobs", tok, `{"company":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{"company":"Acme"}`))
	r.Header.Set("Authorization", "Bearer "+tok)
	r.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	w = env.do(t, http.MethodPost, "/api/jobs", tok, `{"company":"Acme","title":"SRE"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCloudSaveListDownload(t *testing.T) {
	env := newTestEnv(t)
	tok := token(t, "u1")

	w := env.do(t, http.MethodPost, "/api/cloud/save", tok,
		`{"fileName":"resume.json","mimeType":"application/json","content":"{\"title\":\"Backend\"}"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	saved := decodeBody[map[string]any](t, w)
	key, _ := saved["key"].(string)
	assert.True(t, strings.HasPrefix(key, "u1/"), key)
	assert.True(t, strings.HasSuffix(key, "-resume.json"), key)
	assert.NotEmpty(t, saved["id"])
	assert.NotEmpty(t, saved["savedAt"])
	assert.EqualValues(t, 19, saved["size"])

	body, ok := env.storage.Body(key)
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"Backend"}`, string(body))

	w = env.do(t, http.MethodGet, "/api/cloud/list", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[[]map[string]any](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, key, list[0]["key"])
	assert.Equal(t, saved["id"], list[0]["id"])
	assert.Equal(t, "resume.json", list[0]["fileName"])

	w = env.do(t, http.MethodGet, "/api/cloud/list", token(t, "u2"), "")
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/cloud/download?key="+key, tok, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "memory://"))

	w = env.do(t, http.MethodGet, "/api/cloud/download?key="+key, token(t, "u2"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/cloud/download?key=u1/1-missing.json", tok, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCloudSaveValidation(t *testing.T) {
	env := newTestEnv(t)
	tok := token(t, "u1")

	cases := []struct {
		name string
		body string
		code int
	}{
		{"mime mismatch", `{"fileName":"cv.pdf","mimeType":"application/json","content":"{}"}`, http.StatusBadRequest},
		{"image", `{"fileName":"me.png","mimeType":"image/png","content":"x"}`, http.StatusBadRequest},
		{"empty content", `{"fileName":"cv.txt","mimeType":"text/plain","content":""}`, http.StatusBadRequest},
		{"bad base64", `{"fileName":"cv.pdf","mimeType":"application/pdf","content":"***","encoding":"base64"}`, http.StatusBadRequest},
		{"unknown encoding", `{"fileName":"cv.txt","mimeType":"text/plain","content":"x","encoding":"rot13"}`, http.StatusBadRequest},
		{"unknown field", `{"fileName":"cv.txt","mimeType":"text/plain","content":"x","owner":"u2"}`, http.StatusBadRequest},
		{"base64 pdf", `{"fileName":"cv.pdf","mimeType":"application/pdf","content":"JVBERi0xLjQ=","encoding":"base64"}`, http.StatusCreated},
	}
	for _, tc := range cases {
		w := env.do(t, http.MethodPost, "/api/cloud/save", tok, tc.body)
		assert.Equal(t, tc.code, w.Code, tc.name)
	}
}

func TestCloudSaveSizeLimit(t *testing.T) {
	env := newTestEnv(t)
	tok := token(t, "u1")

	save := func(size int) *httptest.ResponseRecorder {
		body := `{"fileName":"cv.txt","mimeType":"text/plain","content":"` + strings.Repeat("a", size) + `"}`
		return env.do(t, http.MethodPost, "/api/cloud/save", tok, body)
	}

	w := save(2 << 20)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = save(storage.MaxObjectSize + 1)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"File is too large."}`, w.Body.String())
}

func TestCloudListIsolatesSlashedUserIDs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/cloud/save", token(t, "a/b"),
		`{"fileName":"secret.txt","mimeType":"text/plain","content":"s"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	key, _ := decodeBody[map[string]any](t, w)["key"].(string)

	w = env.do(t, http.MethodGet, "/api/cloud/list", token(t, "a"), "")
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/cloud/download?key="+url.QueryEscape(key), token(t, "a"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type notifyPeer struct {
	mu     sync.Mutex
	frames []collab.Frame
}

func (p *notifyPeer) ID() string { return "notify-peer" }

func (p *notifyPeer) Closed() bool { return false }

func (p *notifyPeer) Send(f collab.Frame) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, f)
	return true
}

func TestNotifyDeliversToUserChannel(t *testing.T) {
	env := newTestEnv(t)
	peer := &notifyPeer{}
	env.deps.Hub.Users.Subscribe("u2", peer)

	w := env.do(t, http.MethodPost, "/api/notifications", token(t, "u1"), `{"userId":"u2","message":"Resume shared"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"delivered":true}`, w.Body.String())

	peer.mu.Lock()
	defer peer.mu.Unlock()
	require.Len(t, peer.frames, 1)
	assert.Equal(t, collab.EventNotification, peer.frames[0].Type)
	assert.JSONEq(t, `{"message":"Resume shared","from":"u1"}`, string(peer.frames[0].Payload))
}

func TestNotifyWithoutSubscribersStillSucceeds(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/notifications", token(t, "u1"), `{"userId":"nobody"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/notifications", token(t, "u1"), `{"message":"no target"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/notifications", token(t, "u1"), `{"userId":42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecovererAnswersWithJSON(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Recoverer)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/health", "", "")

	w := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "roleready_http_requests_total")
}

func TestWebSocketUpgrade(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token(t, "u1")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "join_resume_room",
		"payload": map[string]string{"resumeId": "r1"},
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f collab.Frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, collab.EventCollaboratorsList, f.Type)

	collaborators := env.deps.Hub.Rooms.Collaborators("r1")
	require.Len(t, collaborators, 1)
	assert.Equal(t, "u1", collaborators[0].UserID)
	assert.Equal(t, "User u1", collaborators[0].DisplayName)
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=garbage"
	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steam-soundboard/backend/internal/models"
	"steam-soundboard/backend/pkg/logger"
)

// pluginFrame decodes any server-to-client message for assertions
type pluginFrame struct {
	Type     string                  `json:"type"`
	Error    string                  `json:"error"`
	Username string                  `json:"username"`
	Sounds   []models.SoundListEntry `json:"sounds"`
}

func newPluginServer(t *testing.T, authTimeout time.Duration) (*httptest.Server, *Registry, *fakeDirectory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := &fakeDirectory{users: make(map[string]*models.User)}
	lib := &fakeLibrary{
		entries:    make(map[string][]models.SoundListEntry),
		sounds:     make(map[uint]*models.Sound),
		audio:      make(map[uint][]byte),
		unreadable: make(map[uint]bool),
	}
	log := logger.New(logger.Config{Level: "error"})

	machine := NewMachine(dir, lib, log)
	registry := NewRegistry()
	gateway := NewGateway(machine, registry, authTimeout, log, nil)

	engine := gin.New()
	engine.GET("/ws/plugin", gateway.ServeWS)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return srv, registry, dir
}

func dialPlugin(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/plugin"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendAuth(t *testing.T, conn *websocket.Conn, steamID string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "steamId64": steamID}))
}

func readFrame(t *testing.T, conn *websocket.Conn) pluginFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame pluginFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestConnAuthTimeout(t *testing.T) {
	srv, registry, _ := newPluginServer(t, 50*time.Millisecond)
	conn := dialPlugin(t, srv)

	// Send nothing; the timer must fire
	frame := readFrame(t, conn)
	assert.Equal(t, TypeAuthError, frame.Type)
	assert.Equal(t, "Authentication timeout", frame.Error)

	// The connection is then closed by the server
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	assert.Equal(t, 0, registry.Count())
}

func TestConnAuthDisarmsTimer(t *testing.T) {
	srv, _, dir := newPluginServer(t, 200*time.Millisecond)
	dir.users["765611"] = &models.User{ID: 1, SteamID64: "765611", Username: "player1"}

	conn := dialPlugin(t, srv)
	sendAuth(t, conn, "765611")

	frame := readFrame(t, conn)
	require.Equal(t, TypeAuthSuccess, frame.Type)
	assert.Equal(t, "player1", frame.Username)

	// Well past the auth deadline the connection still answers
	time.Sleep(400 * time.Millisecond)
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "get_sounds"}))
	frame = readFrame(t, conn)
	assert.Equal(t, TypeSoundsList, frame.Type)
}

func TestConnDisplacement(t *testing.T) {
	srv, registry, dir := newPluginServer(t, time.Minute)
	dir.users["765611"] = &models.User{ID: 1, SteamID64: "765611", Username: "player1"}

	first := dialPlugin(t, srv)
	sendAuth(t, first, "765611")
	require.Equal(t, TypeAuthSuccess, readFrame(t, first).Type)

	second := dialPlugin(t, srv)
	sendAuth(t, second, "765611")
	require.Equal(t, TypeAuthSuccess, readFrame(t, second).Type)

	// The first session is told why and then closed
	frame := readFrame(t, first)
	assert.Equal(t, TypeAuthError, frame.Type)
	assert.Equal(t, DisplacementReason, frame.Error)

	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)

	assert.Equal(t, 1, registry.Count())

	// The surviving session keeps working
	require.NoError(t, second.WriteJSON(map[string]string{"type": "get_sounds"}))
	assert.Equal(t, TypeSoundsList, readFrame(t, second).Type)
}

func TestConnRebindReleasesOldIdentity(t *testing.T) {
	srv, registry, dir := newPluginServer(t, time.Minute)
	dir.users["aaa"] = &models.User{ID: 1, SteamID64: "aaa", Username: "first"}
	dir.users["bbb"] = &models.User{ID: 2, SteamID64: "bbb", Username: "second"}

	conn := dialPlugin(t, srv)
	sendAuth(t, conn, "aaa")
	require.Equal(t, TypeAuthSuccess, readFrame(t, conn).Type)

	// Same socket re-authenticates as a different identity
	sendAuth(t, conn, "bbb")
	frame := readFrame(t, conn)
	require.Equal(t, TypeAuthSuccess, frame.Type)
	assert.Equal(t, "second", frame.Username)

	// Only the new identity may remain bound to this connection
	_, ok := registry.Lookup("aaa")
	assert.False(t, ok)
	_, ok = registry.Lookup("bbb")
	assert.True(t, ok)
	assert.Equal(t, 1, registry.Count())
}

func TestConnRebindSameIdentityKeepsConnection(t *testing.T) {
	srv, registry, dir := newPluginServer(t, time.Minute)
	dir.users["765611"] = &models.User{ID: 1, SteamID64: "765611", Username: "player1"}

	conn := dialPlugin(t, srv)
	sendAuth(t, conn, "765611")
	require.Equal(t, TypeAuthSuccess, readFrame(t, conn).Type)

	sendAuth(t, conn, "765611")
	require.Equal(t, TypeAuthSuccess, readFrame(t, conn).Type)

	assert.Equal(t, 1, registry.Count())

	// No self-displacement: the socket still answers
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "get_sounds"}))
	assert.Equal(t, TypeSoundsList, readFrame(t, conn).Type)
}

package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"go-splendor/auth"
	"go-splendor/controller"
	"go-splendor/decision"
	"go-splendor/dto"
	"go-splendor/lobby"
	"go-splendor/service"
	"go-splendor/utils"
)

type discard struct{}

func (discard) Send(string, dto.Message) {}

type fixedOnline int

func (n fixedOnline) OnlineCount() int { return int(n) }

type env struct {
	engine *gin.Engine
	lobby  *lobby.Manager
	tokens *utils.TokenIssuer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	store := auth.NewMemoryStore()
	store.Cost = bcrypt.MinCost
	tokens := utils.NewTokenIssuer("a", "r", time.Hour, 24*time.Hour)
	m := lobby.NewManager(lobby.Config{Seed: 1}, decision.NewRegistry(), discard{}, logger)
	t.Cleanup(m.Shutdown)

	r := New(Deps{
		Rooms:  controller.NewRoomController(service.NewRoomService(m, fixedOnline(3), 2)),
		Auth:   controller.NewAuthController(service.NewAuthService(store, tokens)),
		Tokens: tokens,
		Logger: logger,
	})
	return &env{engine: r, lobby: m, tokens: tokens}
}

func (e *env) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	code, body := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestAuthEndpoints(t *testing.T) {
	e := newEnv(t)
	creds := map[string]string{"username": "alice", "password": "pw"}

	code, _ := e.do(t, http.MethodPost, "/auth/register", "", creds)
	assert.Equal(t, http.StatusOK, code)
	code, body := e.do(t, http.MethodPost, "/auth/register", "", creds)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, auth.ErrUserExists.Error(), body["error"])

	code, _ = e.do(t, http.MethodPost, "/auth/register", "", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = e.do(t, http.MethodPost, "/auth/login", "", creds)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "alice", data["player_id"])
	claims, err := e.tokens.ParseAccessToken(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.PlayerID)

	code, body = e.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": data["refresh_token"].(string)})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", body["data"].(map[string]interface{})["player_id"])

	code, _ = e.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": data["token"].(string)})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRoomEndpointsNeedToken(t *testing.T) {
	e := newEnv(t)
	code, _ := e.do(t, http.MethodGet, "/room/list", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = e.do(t, http.MethodGet, "/room/list", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRoomEndpoints(t *testing.T) {
	e := newEnv(t)
	token, err := e.tokens.GenerateAccessToken("alice")
	require.NoError(t, err)

	for _, host := range []string{"h1", "h2", "h3"} {
		_, err := e.lobby.Create("r-"+host, host, 2)
		require.NoError(t, err)
	}
	room, err := e.lobby.Create("duel", "alice", 2)
	require.NoError(t, err)

	code, body := e.do(t, http.MethodGet, "/room/list", token, nil)
	require.Equal(t, http.StatusOK, code)
	rooms := body["data"].(map[string]interface{})["rooms"].([]interface{})
	assert.Len(t, rooms, 2)

	code, body = e.do(t, http.MethodGet, "/room/"+room.ID, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "duel", body["data"].(map[string]interface{})["name"])

	code, _ = e.do(t, http.MethodGet, "/room/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.do(t, http.MethodGet, "/room/"+room.ID+"/state", token, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, body = e.do(t, http.MethodGet, "/room/online", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["data"].(map[string]interface{})["online"])
}

func TestGameStateEndpoint(t *testing.T) {
	e := newEnv(t)
	room, err := e.lobby.Create("duel", "alice", 2)
	require.NoError(t, err)
	_, err = e.lobby.Join(room.ID, "bob")
	require.NoError(t, err)
	_, err = e.lobby.ToggleReady("alice")
	require.NoError(t, err)
	_, err = e.lobby.ToggleReady("bob")
	require.NoError(t, err)
	require.NoError(t, e.lobby.Start("alice"))

	token, err := e.tokens.GenerateAccessToken("bob")
	require.NoError(t, err)
	code, body := e.do(t, http.MethodGet, "/room/"+room.ID+"/state", token, nil)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["seat_mapping"], 2)
	state := data["state"].(map[string]interface{})
	assert.Len(t, state["players"], 2)
	assert.Equal(t, "idle", state["phase"])
}

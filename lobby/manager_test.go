package lobby

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"go-splendor/decision"
	"go-splendor/dto"
	"go-splendor/entities"
	"go-splendor/session"
)

type recorder struct {
	mu   sync.Mutex
	msgs map[string][]dto.Message
}

func (r *recorder) Send(identity string, msg dto.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.msgs == nil {
		r.msgs = make(map[string][]dto.Message)
	}
	r.msgs[identity] = append(r.msgs[identity], msg)
}

func (r *recorder) types(identity string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.msgs[identity] {
		out = append(out, m.Type())
	}
	return out
}

func (r *recorder) last(identity, msgType string) dto.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.msgs[identity]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Type() == msgType {
			return list[i]
		}
	}
	return nil
}

type fakeMirror struct {
	mu      sync.Mutex
	saved   map[string]dto.RoomView
	deleted []string
}

func (f *fakeMirror) SaveRoom(view dto.RoomView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = make(map[string]dto.RoomView)
	}
	f.saved[view.ID] = view
}

func (f *fakeMirror) DeleteRoom(roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, roomID)
	f.deleted = append(f.deleted, roomID)
}

func newManager(t *testing.T) (*Manager, *recorder) {
	t.Helper()
	reg := decision.NewRegistry()
	reg.Register("pass", func() decision.Provider {
		return decision.ProviderFunc(func(context.Context, decision.Input) (int, error) {
			return decision.PassIndex, nil
		})
	})
	rec := &recorder{}
	m := NewManager(Config{Seed: 7}, reg, rec, zaptest.NewLogger(t))
	t.Cleanup(m.Shutdown)
	return m, rec
}

// currentPlayer 当前行动座位上的玩家
func currentPlayer(t *testing.T, m *Manager, roomID string) string {
	t.Helper()
	st, _, err := m.GameState(roomID, "")
	require.NoError(t, err)
	return st.Players[st.CurrentSeat].PlayerID
}

func pass(t *testing.T, m *Manager, identity string) {
	t.Helper()
	require.NoError(t, m.GameAction(identity, session.IndexRequest(decision.PassIndex)))
}

func startTwoPlayerGame(t *testing.T, m *Manager) string {
	t.Helper()
	room, err := m.Create("duel", "alice", 2)
	require.NoError(t, err)
	_, err = m.Join(room.ID, "bob")
	require.NoError(t, err)
	_, err = m.ToggleReady("alice")
	require.NoError(t, err)
	_, err = m.ToggleReady("bob")
	require.NoError(t, err)
	require.NoError(t, m.Start("alice"))
	return room.ID
}

func TestCreateRoom(t *testing.T) {
	m, _ := newManager(t)
	mirror := &fakeMirror{}
	m.SetMirror(mirror)

	room, err := m.Create("", "alice", 0)
	require.NoError(t, err)
	assert.Len(t, room.ID, 8)
	assert.Equal(t, DefaultRoomName, room.Name)
	assert.Equal(t, "alice", room.Host)
	assert.Equal(t, MaxPlayers, room.MaxPlayers)
	assert.Equal(t, []string{"alice"}, room.Players)
	assert.Equal(t, string(entities.RoomStatusWaiting), room.Status)
	assert.Equal(t, []string{"random", "random", "random", "random"}, room.BotModels)

	_, err = m.Create("again", "alice", 2)
	assert.ErrorIs(t, err, ErrAlreadyInRoom)

	id, ok := m.RoomOf("alice")
	assert.True(t, ok)
	assert.Equal(t, room.ID, id)
	assert.Contains(t, mirror.saved, room.ID)
}

func TestCreateRoomRejectsCapacity(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Create("solo", "alice", 1)
	assert.ErrorIs(t, err, ErrBadCapacity)
	_, err = m.Create("crowd", "alice", 5)
	assert.ErrorIs(t, err, ErrBadCapacity)
	assert.Empty(t, m.List())
}

func TestJoinRoom(t *testing.T) {
	m, rec := newManager(t)
	room, err := m.Create("lobby", "alice", 2)
	require.NoError(t, err)

	view, err := m.Join(room.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, view.Players)
	assert.Contains(t, rec.types("alice"), dto.MsgPlayerJoined)
	assert.Contains(t, rec.types("bob"), dto.MsgPlayerJoined)

	_, err = m.Join(room.ID, "bob")
	assert.ErrorIs(t, err, ErrAlreadyInRoom)
	_, err = m.Join(room.ID, "carol")
	assert.ErrorIs(t, err, ErrRoomFull)
	_, err = m.Join("missing", "carol")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestLeaveMigratesHost(t *testing.T) {
	m, rec := newManager(t)
	room, err := m.Create("lobby", "alice", 3)
	require.NoError(t, err)
	_, err = m.Join(room.ID, "bob")
	require.NoError(t, err)
	_, err = m.Join(room.ID, "carol")
	require.NoError(t, err)

	require.NoError(t, m.Leave("alice"))
	view, err := m.Get(room.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", view.Host)
	assert.Equal(t, []string{"bob", "carol"}, view.Players)

	changed := rec.last("carol", dto.MsgHostChanged)
	require.NotNil(t, changed)
	assert.Equal(t, "bob", changed["new_host"])
	assert.NotNil(t, rec.last("carol", dto.MsgPlayerLeft))

	_, ok := m.RoomOf("alice")
	assert.False(t, ok)
	assert.ErrorIs(t, m.Leave("alice"), ErrNotInRoom)
}

func TestLeaveLastPlayerDestroysRoom(t *testing.T) {
	m, _ := newManager(t)
	mirror := &fakeMirror{}
	m.SetMirror(mirror)
	room, err := m.Create("lobby", "alice", 2)
	require.NoError(t, err)

	require.NoError(t, m.Leave("alice"))
	assert.Empty(t, m.List())
	_, err = m.Get(room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, []string{room.ID}, mirror.deleted)
}

func TestToggleReady(t *testing.T) {
	m, rec := newManager(t)
	_, err := m.Create("lobby", "alice", 2)
	require.NoError(t, err)

	view, err := m.ToggleReady("alice")
	require.NoError(t, err)
	assert.True(t, view.Ready["alice"])
	view, err = m.ToggleReady("alice")
	require.NoError(t, err)
	assert.False(t, view.Ready["alice"])
	assert.Contains(t, rec.types("alice"), dto.MsgRoomUpdate)

	_, err = m.ToggleReady("nobody")
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestSetBotModel(t *testing.T) {
	m, _ := newManager(t)
	room, err := m.Create("lobby", "alice", 3)
	require.NoError(t, err)
	_, err = m.Join(room.ID, "bob")
	require.NoError(t, err)

	_, err = m.SetBotModel("bob", 2, "greedy")
	assert.ErrorIs(t, err, ErrNotHost)
	_, err = m.SetBotModel("alice", 3, "greedy")
	assert.ErrorIs(t, err, ErrBadSeat)
	// 0 和 1 已经坐了真人
	_, err = m.SetBotModel("alice", 0, "greedy")
	assert.ErrorIs(t, err, ErrBadSeat)
	_, err = m.SetBotModel("alice", 1, "greedy")
	assert.ErrorIs(t, err, ErrBadSeat)
	_, err = m.SetBotModel("alice", 2, "alphazero")
	assert.ErrorIs(t, err, ErrUnknownBotModel)

	view, err := m.SetBotModel("alice", 2, "greedy")
	require.NoError(t, err)
	assert.Equal(t, "greedy", view.BotModels[2])
}

func TestDetachedMirrorStopsSync(t *testing.T) {
	m, _ := newManager(t)
	mirror := &fakeMirror{}
	m.SetMirror(mirror)
	room, err := m.Create("lobby", "alice", 2)
	require.NoError(t, err)

	m.SetMirror(nil)
	_, err = m.Join(room.ID, "bob")
	require.NoError(t, err)
	require.NoError(t, m.Leave("alice"))
	require.NoError(t, m.Leave("bob"))

	assert.Equal(t, []string{"alice"}, mirror.saved[room.ID].Players)
	assert.Empty(t, mirror.deleted)
}

func TestCloseRoom(t *testing.T) {
	m, rec := newManager(t)
	room, err := m.Create("lobby", "alice", 2)
	require.NoError(t, err)
	_, err = m.Join(room.ID, "bob")
	require.NoError(t, err)

	assert.ErrorIs(t, m.Close("bob"), ErrNotHost)
	require.NoError(t, m.Close("alice"))

	assert.NotNil(t, rec.last("bob", dto.MsgRoomClosed))
	_, ok := m.RoomOf("bob")
	assert.False(t, ok)
	assert.Empty(t, m.List())
}

func TestStartGating(t *testing.T) {
	m, rec := newManager(t)
	room, err := m.Create("lobby", "alice", 2)
	require.NoError(t, err)
	_, err = m.Join(room.ID, "bob")
	require.NoError(t, err)

	assert.ErrorIs(t, m.Start("bob"), ErrNotHost)
	assert.ErrorIs(t, m.Start("alice"), ErrNotAllReady)
	_, err = m.ToggleReady("alice")
	require.NoError(t, err)
	assert.ErrorIs(t, m.Start("alice"), ErrNotAllReady)
	_, err = m.ToggleReady("bob")
	require.NoError(t, err)
	require.NoError(t, m.Start("alice"))

	assert.ErrorIs(t, m.Start("alice"), ErrGameStarted)
	_, err = m.ToggleReady("bob")
	assert.ErrorIs(t, err, ErrGameStarted)

	view, err := m.Get(room.ID)
	require.NoError(t, err)
	assert.True(t, view.Started)

	started := rec.last("bob", dto.MsgGameStarted)
	require.NotNil(t, started)
	assert.Len(t, started["seat_mapping"], 2)
	assert.NotNil(t, rec.last("bob", dto.MsgGameStateUpdate))
}

func TestJoinRejectedWhileStarted(t *testing.T) {
	m, _ := newManager(t)
	room, err := m.Create("lobby", "alice", 3)
	require.NoError(t, err)
	_, err = m.ToggleReady("alice")
	require.NoError(t, err)
	_, err = m.SetBotModel("alice", 1, "pass")
	require.NoError(t, err)
	_, err = m.SetBotModel("alice", 2, "pass")
	require.NoError(t, err)
	require.NoError(t, m.Start("alice"))

	_, err = m.Join(room.ID, "carol")
	assert.ErrorIs(t, err, ErrGameStarted)
}

func TestGameActionTurnOrder(t *testing.T) {
	m, rec := newManager(t)
	roomID := startTwoPlayerGame(t, m)

	first := currentPlayer(t, m, roomID)
	second := "alice"
	if first == "alice" {
		second = "bob"
	}

	err := m.GameAction(second, session.IndexRequest(decision.PassIndex))
	assert.ErrorIs(t, err, session.ErrNotYourTurn)

	pass(t, m, first)
	assert.Equal(t, second, currentPlayer(t, m, roomID))
	logMsg := rec.last(second, dto.MsgGameLog)
	require.NotNil(t, logMsg)
	assert.Equal(t, first+" passed", logMsg["message"])

	err = m.GameAction(second, session.IndexRequest(51))
	assert.ErrorIs(t, err, session.ErrIllegalAction)

	err = m.GameAction("nobody", session.IndexRequest(decision.PassIndex))
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestGameActionBeforeStart(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Create("lobby", "alice", 2)
	require.NoError(t, err)
	err = m.GameAction("alice", session.IndexRequest(decision.PassIndex))
	assert.ErrorIs(t, err, ErrGameNotStarted)
}

func TestBotsDrainUntilHumanTurn(t *testing.T) {
	m, rec := newManager(t)
	room, err := m.Create("lobby", "alice", 3)
	require.NoError(t, err)
	_, err = m.SetBotModel("alice", 1, "pass")
	require.NoError(t, err)
	_, err = m.SetBotModel("alice", 2, "pass")
	require.NoError(t, err)
	_, err = m.ToggleReady("alice")
	require.NoError(t, err)
	require.NoError(t, m.Start("alice"))

	require.Eventually(t, func() bool {
		return currentPlayer(t, m, room.ID) == "alice"
	}, time.Second, 5*time.Millisecond)

	st, _, err := m.GameState(room.ID, "")
	require.NoError(t, err)
	turn := st.Turn

	pass(t, m, "alice")
	require.Eventually(t, func() bool {
		st, _, err := m.GameState(room.ID, "")
		return err == nil && st.Turn == turn+3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "alice", currentPlayer(t, m, room.ID))
	assert.Contains(t, rec.types("alice"), dto.MsgGameLog)
}

func TestLeaveDuringGameHandsSeatToBot(t *testing.T) {
	m, rec := newManager(t)
	roomID := startTwoPlayerGame(t, m)

	require.NoError(t, m.Leave("bob"))
	assert.NotNil(t, rec.last("alice", dto.MsgPlayerLeft))

	_, mapping, err := m.GameState(roomID, "alice")
	require.NoError(t, err)
	for _, s := range mapping {
		if s.PlayerID == "bob" {
			assert.True(t, s.Bot)
		}
	}

	if currentPlayer(t, m, roomID) == "alice" {
		pass(t, m, "alice")
	}
	require.Eventually(t, func() bool {
		return currentPlayer(t, m, roomID) == "alice"
	}, time.Second, 5*time.Millisecond)
}

func TestGameOverReturnsRoomToLobby(t *testing.T) {
	m, rec := newManager(t)
	roomID := startTwoPlayerGame(t, m)

	m.mu.RLock()
	r := m.rooms[roomID]
	m.mu.RUnlock()
	r.mu.Lock()
	g := r.Session.Game()
	g.Players[0].Cards = []entities.Card{{ID: 1000, Tier: 3, Bonus: entities.Ruby, Points: 15}}
	winner := g.Players[0].Identity
	r.mu.Unlock()

	pass(t, m, currentPlayer(t, m, roomID))
	pass(t, m, currentPlayer(t, m, roomID))

	over := rec.last("alice", dto.MsgGameOver)
	require.NotNil(t, over)
	assert.Equal(t, winner, over["winner"])
	assert.Equal(t, 0, over["seat"])

	view, err := m.Get(roomID)
	require.NoError(t, err)
	assert.Equal(t, string(entities.RoomStatusFinished), view.Status)
	assert.False(t, view.Ready["alice"])
	assert.False(t, view.Ready["bob"])

	err = m.GameAction("alice", session.IndexRequest(decision.PassIndex))
	assert.ErrorIs(t, err, session.ErrGameOver)

	// 再来一局
	_, err = m.ToggleReady("alice")
	require.NoError(t, err)
	_, err = m.ToggleReady("bob")
	require.NoError(t, err)
	require.NoError(t, m.Start("alice"))
	st, _, err := m.GameState(roomID, "")
	require.NoError(t, err)
	assert.Equal(t, -1, st.Winner)
}

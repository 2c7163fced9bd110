// Package lobby 房间管理：创建/加入/离开、准备、房主迁移、bot 设置、开局以及对局动作转发。
//
// 锁顺序固定为 Manager.mu -> Room.mu，持有房间锁时不再获取管理器锁。
package lobby

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go-splendor/decision"
	"go-splendor/dto"
	"go-splendor/entities"
	"go-splendor/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

var (
	ErrRoomNotFound    = errors.New("Room not found")
	ErrAlreadyInRoom   = errors.New("Already in a room")
	ErrRoomFull        = errors.New("Room is full")
	ErrGameStarted     = errors.New("Game already started")
	ErrNotInRoom       = errors.New("Not in a room")
	ErrNotHost         = errors.New("Only the host can do that")
	ErrNotAllReady     = errors.New("Not all players are ready")
	ErrBadCapacity     = errors.New("max_players must be between 2 and 4")
	ErrBadSeat         = errors.New("Invalid seat index")
	ErrGameNotStarted  = errors.New("Game not started")
	ErrUnknownBotModel = errors.New("Unknown bot model")
)

const (
	MinPlayers      = 2
	MaxPlayers      = 4
	DefaultRoomName = "New Room"
)

// Broadcaster 把消息投递给某个在线玩家，投递失败由实现自行处理
type Broadcaster interface {
	Send(identity string, msg dto.Message)
}

// Mirror 房间目录的外部镜像（如 Redis），调用方持有房间锁，实现不能阻塞
type Mirror interface {
	SaveRoom(view dto.RoomView)
	DeleteRoom(roomID string)
}

type Config struct {
	BotDelay    time.Duration // 自动回合之间的思考时间
	MaxBotSteps int
	Seed        uint64
}

type Manager struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	members map[string]string // identity -> roomID

	registry *decision.Registry
	out      Broadcaster
	logger   *zap.Logger
	cfg      Config

	rngMu sync.Mutex
	rng   *rand.Rand

	// 镜像单独加锁，调用方持有房间锁时也能读取
	mirrorMu sync.RWMutex
	mirror   Mirror

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(cfg Config, registry *decision.Registry, out Broadcaster, logger *zap.Logger) *Manager {
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		rooms:    make(map[string]*Room),
		members:  make(map[string]string),
		registry: registry,
		out:      out,
		logger:   logger,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetMirror 传 nil 摘除镜像，之后的房间变化不再同步
func (m *Manager) SetMirror(mirror Mirror) {
	m.mirrorMu.Lock()
	defer m.mirrorMu.Unlock()
	m.mirror = mirror
}

func (m *Manager) currentMirror() Mirror {
	m.mirrorMu.RLock()
	defer m.mirrorMu.RUnlock()
	return m.mirror
}

// Shutdown 停止所有自动回合并等待其退出
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) newRNG() *rand.Rand {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return rand.New(rand.NewSource(m.rng.Uint64()))
}

func (m *Manager) broadcast(r *Room, msg dto.Message) {
	for _, h := range r.Humans {
		m.out.Send(h, msg)
	}
}

func (m *Manager) saveMirror(r *Room) {
	if mirror := m.currentMirror(); mirror != nil {
		mirror.SaveRoom(r.view())
	}
}

// lockRoomOf 返回 identity 所在的房间，返回时已持有房间锁
func (m *Manager) lockRoomOf(identity string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.members[identity]
	if !ok {
		return nil, ErrNotInRoom
	}
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrNotInRoom
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrNotInRoom
	}
	return r, nil
}

func (m *Manager) Create(name, host string, capacity int) (dto.RoomView, error) {
	if capacity == 0 {
		capacity = MaxPlayers
	}
	if capacity < MinPlayers || capacity > MaxPlayers {
		return dto.RoomView{}, ErrBadCapacity
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultRoomName
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[host]; ok {
		return dto.RoomView{}, ErrAlreadyInRoom
	}

	id := uuid.New().String()[:8]
	models := make([]string, capacity)
	for i := range models {
		models[i] = decision.DefaultModel
	}
	r := &Room{
		ID:        id,
		Name:      name,
		Host:      host,
		Capacity:  capacity,
		Humans:    []string{host},
		Ready:     map[string]bool{},
		BotModels: models,
		Status:    entities.RoomStatusWaiting,
		rng:       m.newRNG(),
	}
	m.rooms[id] = r
	m.members[host] = id

	r.mu.Lock()
	defer r.mu.Unlock()
	m.saveMirror(r)
	m.logger.Info("✅ 房间已创建", zap.String("room", id), zap.String("name", name), zap.String("player", host))
	return r.view(), nil
}

func (m *Manager) Join(roomID, identity string) (dto.RoomView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return dto.RoomView{}, ErrRoomNotFound
	}
	if _, ok := m.members[identity]; ok {
		return dto.RoomView{}, ErrAlreadyInRoom
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.closed:
		return dto.RoomView{}, ErrRoomNotFound
	case len(r.Humans) >= r.Capacity:
		return dto.RoomView{}, ErrRoomFull
	case r.Status == entities.RoomStatusPlaying:
		return dto.RoomView{}, ErrGameStarted
	}

	r.Humans = append(r.Humans, identity)
	r.Ready[identity] = false
	m.members[identity] = roomID

	view := r.view()
	m.broadcast(r, dto.NewMessage(dto.MsgPlayerJoined, map[string]interface{}{"player_id": identity, "room": view}))
	m.saveMirror(r)
	m.logger.Info("玩家加入房间", zap.String("room", roomID), zap.String("player", identity))
	return view, nil
}

// Leave 离开房间。房间空了就销毁；房主离开时按加入顺序移交；对局中离开由 bot 接管座位。
func (m *Manager) Leave(identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.members[identity]
	if !ok {
		return ErrNotInRoom
	}
	delete(m.members, identity)
	r, ok := m.rooms[id]
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(identity)
	log := m.logger.With(zap.String("room", id), zap.String("player", identity))
	log.Info("玩家离开房间")

	if len(r.Humans) == 0 {
		m.destroyLocked(r)
		log.Info("房间已销毁（无人）")
		return nil
	}

	if r.Status == entities.RoomStatusPlaying && r.Session != nil {
		if err := r.Session.ReplaceWithBot(identity, decision.DefaultModel); err == nil {
			log.Info("🤖 座位由 bot 接管")
		}
	}

	if r.Host == identity {
		r.Host = r.Humans[0]
		m.broadcast(r, dto.NewMessage(dto.MsgHostChanged, map[string]interface{}{"new_host": r.Host}))
	}
	view := r.view()
	m.broadcast(r, dto.NewMessage(dto.MsgPlayerLeft, map[string]interface{}{"player_id": identity, "room": view}))
	m.broadcast(r, dto.NewMessage(dto.MsgRoomUpdate, map[string]interface{}{"room": view}))
	m.saveMirror(r)

	if r.Status == entities.RoomStatusPlaying && r.Session != nil {
		m.publishState(r)
		m.kickDrain(r)
	}
	return nil
}

// destroyLocked 持有 m.mu 和 r.mu
func (m *Manager) destroyLocked(r *Room) {
	r.closed = true
	r.stopDrain()
	for _, h := range r.Humans {
		delete(m.members, h)
	}
	delete(m.rooms, r.ID)
	if mirror := m.currentMirror(); mirror != nil {
		mirror.DeleteRoom(r.ID)
	}
}

func (m *Manager) ToggleReady(identity string) (dto.RoomView, error) {
	r, err := m.lockRoomOf(identity)
	if err != nil {
		return dto.RoomView{}, err
	}
	defer r.mu.Unlock()
	if r.Status == entities.RoomStatusPlaying {
		return dto.RoomView{}, ErrGameStarted
	}

	r.Ready[identity] = !r.Ready[identity]
	view := r.view()
	m.broadcast(r, dto.NewMessage(dto.MsgRoomUpdate, map[string]interface{}{"room": view}))
	m.saveMirror(r)
	return view, nil
}

func (m *Manager) SetBotModel(identity string, seat int, model string) (dto.RoomView, error) {
	r, err := m.lockRoomOf(identity)
	if err != nil {
		return dto.RoomView{}, err
	}
	defer r.mu.Unlock()

	switch {
	case r.Host != identity:
		return dto.RoomView{}, ErrNotHost
	case r.Status == entities.RoomStatusPlaying:
		return dto.RoomView{}, ErrGameStarted
	// 只有真人之后的空位才会由机器人补上
	case seat < len(r.Humans) || seat >= r.Capacity:
		return dto.RoomView{}, ErrBadSeat
	case !m.registry.Has(model):
		return dto.RoomView{}, fmt.Errorf("%w: %s", ErrUnknownBotModel, model)
	}

	r.BotModels[seat] = model
	view := r.view()
	m.broadcast(r, dto.NewMessage(dto.MsgRoomUpdate, map[string]interface{}{"room": view}))
	m.saveMirror(r)
	return view, nil
}

// Close 房主解散房间，所有成员收到 ROOM_CLOSED
func (m *Manager) Close(identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.members[identity]
	if !ok {
		return ErrNotInRoom
	}
	r, ok := m.rooms[id]
	if !ok {
		return ErrNotInRoom
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Host != identity {
		return ErrNotHost
	}

	m.broadcast(r, dto.NewMessage(dto.MsgRoomClosed, map[string]interface{}{"room_id": r.ID}))
	m.destroyLocked(r)
	m.logger.Info("房间已解散", zap.String("room", id), zap.String("player", identity))
	return nil
}

// Start 房主开局：人类 + 空位 bot 打乱座位后建立对局
func (m *Manager) Start(identity string) error {
	r, err := m.lockRoomOf(identity)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	switch {
	case r.Host != identity:
		return ErrNotHost
	case r.Status == entities.RoomStatusPlaying:
		return ErrGameStarted
	case !r.allReady():
		return ErrNotAllReady
	}

	seats := make([]session.Seat, 0, r.Capacity)
	for _, h := range r.Humans {
		seats = append(seats, session.Seat{Identity: h})
	}
	for i := len(r.Humans); i < r.Capacity; i++ {
		seats = append(seats, session.Seat{Identity: fmt.Sprintf("bot-%d", i+1), Bot: true, Model: r.BotModels[i]})
	}
	r.rng.Shuffle(len(seats), func(i, j int) { seats[i], seats[j] = seats[j], seats[i] })

	sess, err := session.New(seats, m.registry, r.rng, m.logger.With(zap.String("room", r.ID)))
	if err != nil {
		return err
	}
	if m.cfg.MaxBotSteps > 0 {
		sess.MaxBotSteps = m.cfg.MaxBotSteps
	}
	r.stopDrain()
	r.Session = sess
	r.Status = entities.RoomStatusPlaying

	m.broadcast(r, dto.NewMessage(dto.MsgGameStarted, map[string]interface{}{
		"room":         r.view(),
		"seat_mapping": sess.SeatMapping(),
	}))
	m.publishState(r)
	m.saveMirror(r)
	m.logger.Info("✅ 游戏开始", zap.String("room", r.ID), zap.Int("seats", len(seats)))

	m.kickDrain(r)
	return nil
}

func (m *Manager) GameAction(identity string, req session.ActionRequest) error {
	r, err := m.lockRoomOf(identity)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()
	if r.Session == nil {
		return ErrGameNotStarted
	}

	out, err := r.Session.Submit(identity, req)
	if err != nil {
		return err
	}
	m.publishOutcome(r, out)
	m.kickDrain(r)
	return nil
}

// publishState 每个人看到的是自己视角的快照
func (m *Manager) publishState(r *Room) {
	mapping := r.Session.SeatMapping()
	for _, h := range r.Humans {
		m.out.Send(h, dto.NewMessage(dto.MsgGameStateUpdate, map[string]interface{}{
			"state":        r.Session.State(h),
			"seat_mapping": mapping,
		}))
	}
}

func (m *Manager) publishOutcome(r *Room, out session.Outcome) {
	m.broadcast(r, dto.NewMessage(dto.MsgGameLog, map[string]interface{}{"message": out.Log}))
	m.publishState(r)
	if out.Winner >= 0 {
		m.finish(r)
	}
}

// finish 对局结束，房间回到可再开一局的状态
func (m *Manager) finish(r *Room) {
	seat, winner := r.Session.Winner()
	m.broadcast(r, dto.NewMessage(dto.MsgGameOver, map[string]interface{}{"winner": winner, "seat": seat}))
	r.Status = entities.RoomStatusFinished
	for h := range r.Ready {
		r.Ready[h] = false
	}
	m.saveMirror(r)
	m.logger.Info("🏆 游戏结束", zap.String("room", r.ID), zap.String("winner", winner), zap.Int("seat", seat))
}

// kickDrain 持有 r.mu。轮到 bot 时启动后台推进，同一房间同时最多一个。
func (m *Manager) kickDrain(r *Room) {
	if r.draining || r.Session == nil || !r.Session.BotPending() {
		return
	}
	ctx, cancel := context.WithCancel(m.ctx)
	r.cancel = cancel
	r.draining = true
	sess := r.Session

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		r.mu.Lock()
		defer r.mu.Unlock()
		defer func() {
			r.draining = false
			r.cancel = nil
			// 等锁期间开了新的一局
			if !r.closed && r.Session != sess {
				m.kickDrain(r)
			}
		}()
		if r.closed || r.Session != sess {
			return
		}
		sess.Drain(ctx, &r.mu, m.cfg.BotDelay, func(out session.Outcome) {
			if r.closed || r.Session != sess {
				return
			}
			m.publishOutcome(r, out)
		})
	}()
}

func (m *Manager) List() []dto.RoomView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	views := make([]dto.RoomView, 0, len(m.rooms))
	for _, r := range m.rooms {
		views = append(views, r.View())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}

func (m *Manager) Get(roomID string) (dto.RoomView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return dto.RoomView{}, ErrRoomNotFound
	}
	return r.View(), nil
}

// GameState viewer 为空时返回公共视角
func (m *Manager) GameState(roomID, viewer string) (dto.GameState, []dto.SeatInfo, error) {
	m.mu.RLock()
	r, ok := m.rooms[roomID]
	if !ok {
		m.mu.RUnlock()
		return dto.GameState{}, nil, ErrRoomNotFound
	}
	r.mu.Lock()
	m.mu.RUnlock()
	defer r.mu.Unlock()
	if r.Session == nil {
		return dto.GameState{}, nil, ErrGameNotStarted
	}
	return r.Session.State(viewer), r.Session.SeatMapping(), nil
}

func (m *Manager) RoomOf(identity string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.members[identity]
	return id, ok
}

// Disconnect 连接断开时的级联清理
func (m *Manager) Disconnect(identity string) {
	if err := m.Leave(identity); err != nil && !errors.Is(err, ErrNotInRoom) {
		m.logger.Warn("⚠️ 断线清理失败", zap.String("player", identity), zap.Error(err))
	}
}

func (m *Manager) Models() []string {
	return m.registry.Tags()
}

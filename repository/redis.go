// Package repository 房间目录的 Redis 镜像。权威状态在内存里，Redis 只供外部查看。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"go-splendor/dto"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const roomIndexKey = "rooms"

func roomInfoKey(roomID string) string {
	return fmt.Sprintf("room:%s:roomInfo", roomID)
}

func InitRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}
	return rdb, nil
}

type mirrorOp struct {
	view   dto.RoomView
	delete bool
}

// RoomMirror 实现 lobby.Mirror。写入走缓冲队列由后台协程完成，调用方持有房间锁时不会被网络阻塞。
type RoomMirror struct {
	rdb    *redis.Client
	logger *zap.Logger
	ops    chan mirrorOp
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewRoomMirror(rdb *redis.Client, queue int, logger *zap.Logger) *RoomMirror {
	if queue <= 0 {
		queue = 256
	}
	m := &RoomMirror{rdb: rdb, logger: logger, ops: make(chan mirrorOp, queue)}
	m.wg.Add(1)
	go m.run()
	return m
}

func (m *RoomMirror) SaveRoom(view dto.RoomView) {
	m.enqueue(mirrorOp{view: view})
}

func (m *RoomMirror) DeleteRoom(roomID string) {
	m.enqueue(mirrorOp{view: dto.RoomView{ID: roomID}, delete: true})
}

func (m *RoomMirror) enqueue(op mirrorOp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// 关闭后到达的更新直接丢弃
	if m.closed {
		return
	}
	select {
	case m.ops <- op:
	default:
		m.logger.Warn("⚠️ Redis 镜像队列已满，丢弃更新", zap.String("room", op.view.ID))
	}
}

func (m *RoomMirror) run() {
	defer m.wg.Done()
	ctx := context.Background()
	for op := range m.ops {
		var err error
		if op.delete {
			err = m.remove(ctx, op.view.ID)
		} else {
			err = m.write(ctx, op.view)
		}
		if err != nil {
			m.logger.Warn("⚠️ 同步房间到 Redis 失败", zap.String("room", op.view.ID), zap.Error(err))
		}
	}
}

func (m *RoomMirror) write(ctx context.Context, view dto.RoomView) error {
	players, err := json.Marshal(view.Players)
	if err != nil {
		return err
	}
	models, err := json.Marshal(view.BotModels)
	if err != nil {
		return err
	}
	ready, err := json.Marshal(view.Ready)
	if err != nil {
		return err
	}
	pipe := m.rdb.TxPipeline()
	pipe.HSet(ctx, roomInfoKey(view.ID), map[string]interface{}{
		"name":       view.Name,
		"userID":     view.Host,
		"maxPlayers": view.MaxPlayers,
		"players":    string(players),
		"ready":      string(ready),
		"botModels":  string(models),
		"gameStatus": view.Status,
		"roomStatus": strconv.FormatBool(view.Started),
	})
	pipe.SAdd(ctx, roomIndexKey, view.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (m *RoomMirror) remove(ctx context.Context, roomID string) error {
	pipe := m.rdb.TxPipeline()
	pipe.Del(ctx, roomInfoKey(roomID))
	pipe.SRem(ctx, roomIndexKey, roomID)
	_, err := pipe.Exec(ctx)
	return err
}

// Close 写完队列中剩余的更新后返回
func (m *RoomMirror) Close() error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.ops)
	}
	m.mu.Unlock()
	m.wg.Wait()
	return nil
}

// LoadRoom 读回镜像中的房间
func LoadRoom(ctx context.Context, rdb *redis.Client, roomID string) (dto.RoomView, error) {
	info, err := rdb.HGetAll(ctx, roomInfoKey(roomID)).Result()
	if err != nil {
		return dto.RoomView{}, err
	}
	if len(info) == 0 {
		return dto.RoomView{}, redis.Nil
	}
	view := dto.RoomView{
		ID:     roomID,
		Name:   info["name"],
		Host:   info["userID"],
		Status: info["gameStatus"],
	}
	if view.MaxPlayers, err = strconv.Atoi(info["maxPlayers"]); err != nil {
		return dto.RoomView{}, fmt.Errorf("maxPlayers 解析失败: %w", err)
	}
	if view.Started, err = strconv.ParseBool(info["roomStatus"]); err != nil {
		return dto.RoomView{}, fmt.Errorf("roomStatus 解析失败: %w", err)
	}
	if err := json.Unmarshal([]byte(info["players"]), &view.Players); err != nil {
		return dto.RoomView{}, err
	}
	if err := json.Unmarshal([]byte(info["ready"]), &view.Ready); err != nil {
		return dto.RoomView{}, err
	}
	if err := json.Unmarshal([]byte(info["botModels"]), &view.BotModels); err != nil {
		return dto.RoomView{}, err
	}
	return view, nil
}

// RoomIDs 镜像中所有房间
func RoomIDs(ctx context.Context, rdb *redis.Client) ([]string, error) {
	return rdb.SMembers(ctx, roomIndexKey).Result()
}

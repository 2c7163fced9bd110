package lobby

import (
	"context"
	"sync"

	"go-splendor/dto"
	"go-splendor/entities"
	"go-splendor/session"

	"golang.org/x/exp/rand"
)

// Room 的字段都由 mu 保护
type Room struct {
	mu sync.Mutex

	ID        string
	Name      string
	Host      string
	Capacity  int
	Humans    []string // 加入顺序
	Ready     map[string]bool
	BotModels []string // 按座位，空位开局时由 bot 补齐
	Status    entities.RoomStatus
	Session   *session.Session

	closed   bool
	draining bool
	cancel   context.CancelFunc
	rng      *rand.Rand
}

func (r *Room) view() dto.RoomView {
	ready := make(map[string]bool, len(r.Humans))
	for _, h := range r.Humans {
		ready[h] = r.Ready[h]
	}
	return dto.RoomView{
		ID:         r.ID,
		Name:       r.Name,
		Host:       r.Host,
		Players:    append([]string{}, r.Humans...),
		MaxPlayers: r.Capacity,
		Ready:      ready,
		BotModels:  append([]string{}, r.BotModels...),
		Status:     string(r.Status),
		Started:    r.Status == entities.RoomStatusPlaying,
	}
}

func (r *Room) View() dto.RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view()
}

func (r *Room) has(identity string) bool {
	for _, h := range r.Humans {
		if h == identity {
			return true
		}
	}
	return false
}

func (r *Room) remove(identity string) {
	for i, h := range r.Humans {
		if h == identity {
			r.Humans = append(r.Humans[:i:i], r.Humans[i+1:]...)
			break
		}
	}
	delete(r.Ready, identity)
}

func (r *Room) allReady() bool {
	for _, h := range r.Humans {
		if !r.Ready[h] {
			return false
		}
	}
	return true
}

func (r *Room) stopDrain() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

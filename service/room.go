package service

import (
	"go-splendor/dto"
	"go-splendor/lobby"
	"go-splendor/utils"
)

// OnlineCounter 当前在线（已登录）连接数
type OnlineCounter interface {
	OnlineCount() int
}

type RoomService struct {
	lobby  *lobby.Manager
	online OnlineCounter
	limit  int
}

func NewRoomService(m *lobby.Manager, online OnlineCounter, limit int) *RoomService {
	return &RoomService{lobby: m, online: online, limit: limit}
}

func (s *RoomService) GetRoomList() []dto.RoomView {
	return utils.SafeSlice(s.lobby.List(), s.limit)
}

func (s *RoomService) GetRoomInfo(roomID string) (dto.RoomView, error) {
	return s.lobby.Get(roomID)
}

// GetGameState 以 viewer 的视角返回快照，只有本人能看到自己的预留卡
func (s *RoomService) GetGameState(roomID, viewer string) (dto.GameState, []dto.SeatInfo, error) {
	return s.lobby.GameState(roomID, viewer)
}

func (s *RoomService) GetOnlinePlayer() int {
	if s.online == nil {
		return 0
	}
	return s.online.OnlineCount()
}

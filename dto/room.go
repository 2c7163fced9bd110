package dto

// RoomView 房间对外展示的信息
type RoomView struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Host       string          `json:"host"`
	Players    []string        `json:"players"`
	MaxPlayers int             `json:"max_players"`
	Ready      map[string]bool `json:"ready"`
	BotModels  []string        `json:"bot_models"` // 按座位，空位由 bot 补齐
	Status     string          `json:"status"`
	Started    bool            `json:"started"`
}

type GetRoomList struct {
	Rooms []RoomView `json:"rooms"`
}

type AuthRequest struct {
	Username string `json:"username" binding:"required" mapstructure:"username"`
	Password string `json:"password" binding:"required" mapstructure:"password"`
}

type AuthResponse struct {
	PlayerID     string `json:"player_id"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type CreateRoomRequest struct {
	Name       string `mapstructure:"name"`
	MaxPlayers int    `mapstructure:"max_players"`
}

type JoinRoomRequest struct {
	RoomID string `mapstructure:"room_id"`
}

type BotSettingsRequest struct {
	SeatIdx int    `mapstructure:"seat_idx"`
	Model   string `mapstructure:"model"`
}

package dto

import "go-splendor/entities"

type TierView struct {
	Open      []entities.Card `json:"open"`
	DeckCount int             `json:"deck_count"`
}

type PlayerState struct {
	PlayerID  string           `json:"player_id"`
	Seat      int              `json:"seat"`
	Bot       bool             `json:"bot"`
	Model     string           `json:"model,omitempty"`
	Tokens    entities.Tokens  `json:"tokens"`
	Discounts entities.Cost    `json:"discounts"`
	Score     int              `json:"score"`
	Cards     []entities.Card  `json:"cards"`
	Reserved  []entities.Card  `json:"reserved,omitempty"` // 只有本人能看到
	Nobles    []entities.Noble `json:"nobles"`

	ReservedCount int `json:"reserved_count"`
}

// GameState 某个玩家视角的对局快照
type GameState struct {
	Bank         entities.Tokens  `json:"bank"`
	Tiers        []TierView       `json:"tiers"`
	Nobles       []entities.Noble `json:"nobles"`
	Players      []PlayerState    `json:"players"`
	CurrentSeat  int              `json:"current_seat"`
	Phase        string           `json:"phase"`
	Turn         int              `json:"turn"`
	Winner       int              `json:"winner"`
	LegalActions []int            `json:"legal_actions,omitempty"` // 轮到本人时的合法动作下标
}

type SeatInfo struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"player_id"`
	Bot      bool   `json:"bot"`
	Model    string `json:"model,omitempty"`
}

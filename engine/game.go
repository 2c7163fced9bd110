// Package engine 实现游戏的权威状态机：发牌、合法动作、动作执行、回合与胜负判定。
// 这里没有任何 I/O，所有并发保护由调用方负责。
package engine

import (
	"errors"
	"fmt"
	"time"

	"go-splendor/const_data"
	"go-splendor/entities"

	"golang.org/x/exp/rand"
)

const (
	Tiers        = 3
	OpenPerTier  = 4
	MaxReserved  = 3
	TokenLimit   = 10
	WinningScore = 15
	GoldSupply   = 5
)

var (
	ErrPlayerCount   = errors.New("player count must be between 2 and 4")
	ErrIllegalAction = errors.New("illegal action")
	ErrGameOver      = errors.New("game is over")
)

// 每种颜色的初始宝石数量，按玩家人数
var colorSupply = map[int]int{2: 4, 3: 5, 4: 7}

type Player struct {
	Identity string           `json:"identity"`
	Cards    []entities.Card  `json:"cards"`
	Reserved []entities.Card  `json:"reserved"`
	Nobles   []entities.Noble `json:"nobles"`
	Tokens   entities.Tokens  `json:"tokens"`
}

// Discounts 已购卡牌带来的永久折扣
func (p *Player) Discounts() entities.Cost {
	var d entities.Cost
	for _, c := range p.Cards {
		d[c.Bonus]++
	}
	return d
}

func (p *Player) Score() int {
	pts := 0
	for _, c := range p.Cards {
		pts += c.Points
	}
	for _, n := range p.Nobles {
		pts += n.Points
	}
	return pts
}

func (p *Player) TokenCount() int {
	return p.Tokens.Total()
}

// CanAfford 同色宝石 + 折扣不足的部分能否用 Gold 补齐
func (p *Player) CanAfford(card entities.Card) bool {
	discounts := p.Discounts()
	shortage := 0
	for c := 0; c < entities.ColorCount; c++ {
		need := card.Cost[c] - discounts[c] - p.Tokens[c]
		if need > 0 {
			shortage += need
		}
	}
	return p.Tokens[entities.Gold] >= shortage
}

// Board 每个等级的翻开卡牌和牌堆，牌堆从头部抽牌
type Board struct {
	Open  [Tiers][]entities.Card `json:"open"`
	Decks [Tiers][]entities.Card `json:"decks"`
}

type PhaseKind int

const (
	PhaseIdle PhaseKind = iota
	PhaseMustDiscard
	PhaseTerminal
)

func (k PhaseKind) String() string {
	switch k {
	case PhaseIdle:
		return "idle"
	case PhaseMustDiscard:
		return "must_discard"
	case PhaseTerminal:
		return "terminal"
	}
	return fmt.Sprintf("phase(%d)", int(k))
}

// Phase 显式的回合状态：Idle(seat) / MustDiscard(seat) / Terminal
type Phase struct {
	Kind PhaseKind
	Seat int
}

type Game struct {
	Players []Player
	Board   Board
	Bank    entities.Tokens
	Supply  entities.Tokens
	Nobles  []entities.Noble
	Phase   Phase
	Turn    int
	Winner  int
}

// New 按座位顺序创建一局游戏，rng 为 nil 时使用当前时间作为种子
func New(identities []string, rng *rand.Rand) (*Game, error) {
	n := len(identities)
	base, ok := colorSupply[n]
	if !ok {
		return nil, fmt.Errorf("%w: got %d", ErrPlayerCount, n)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}

	g := &Game{Winner: -1}
	for c := 0; c < entities.ColorCount; c++ {
		g.Supply[c] = base
	}
	g.Supply[entities.Gold] = GoldSupply
	g.Bank = g.Supply

	g.Players = make([]Player, n)
	for i, id := range identities {
		g.Players[i] = Player{
			Identity: id,
			Cards:    []entities.Card{},
			Reserved: []entities.Card{},
			Nobles:   []entities.Noble{},
		}
	}

	for t := 0; t < Tiers; t++ {
		deck := make([]entities.Card, len(const_data.SplendorCards[t]))
		copy(deck, const_data.SplendorCards[t])
		rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
		g.Board.Open[t] = append([]entities.Card{}, deck[:OpenPerTier]...)
		g.Board.Decks[t] = append([]entities.Card{}, deck[OpenPerTier:]...)
	}

	nobles := make([]entities.Noble, len(const_data.NobleTilesList))
	copy(nobles, const_data.NobleTilesList)
	rng.Shuffle(len(nobles), func(i, j int) { nobles[i], nobles[j] = nobles[j], nobles[i] })
	g.Nobles = nobles[:n+1]

	return g, nil
}

func (g *Game) CurrentSeat() int {
	return g.Phase.Seat
}

func (g *Game) CurrentPlayer() *Player {
	return &g.Players[g.Phase.Seat]
}

func (g *Game) Terminal() bool {
	return g.Phase.Kind == PhaseTerminal
}

// Clone 深拷贝，用于决策方的模拟推演
func (g *Game) Clone() *Game {
	c := *g
	c.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		c.Players[i] = Player{
			Identity: p.Identity,
			Cards:    append([]entities.Card{}, p.Cards...),
			Reserved: append([]entities.Card{}, p.Reserved...),
			Nobles:   append([]entities.Noble{}, p.Nobles...),
			Tokens:   p.Tokens,
		}
	}
	for t := 0; t < Tiers; t++ {
		c.Board.Open[t] = append([]entities.Card{}, g.Board.Open[t]...)
		c.Board.Decks[t] = append([]entities.Card{}, g.Board.Decks[t]...)
	}
	c.Nobles = append([]entities.Noble{}, g.Nobles...)
	return &c
}

// CheckInvariants 校验宝石守恒和翻牌补齐
func (g *Game) CheckInvariants() error {
	for c := 0; c < entities.GemCount; c++ {
		total := g.Bank[c]
		for i := range g.Players {
			if g.Players[i].Tokens[c] < 0 {
				return fmt.Errorf("seat %d holds negative %s tokens", i, entities.Gem(c))
			}
			total += g.Players[i].Tokens[c]
		}
		if g.Bank[c] < 0 || total != g.Supply[c] {
			return fmt.Errorf("%s tokens not conserved: bank=%d total=%d supply=%d",
				entities.Gem(c), g.Bank[c], total, g.Supply[c])
		}
	}
	for t := 0; t < Tiers; t++ {
		if len(g.Board.Decks[t]) > 0 && len(g.Board.Open[t]) != OpenPerTier {
			return fmt.Errorf("tier %d shows %d cards with %d in deck",
				t+1, len(g.Board.Open[t]), len(g.Board.Decks[t]))
		}
	}
	for i := range g.Players {
		if len(g.Players[i].Reserved) > MaxReserved {
			return fmt.Errorf("seat %d reserved %d cards", i, len(g.Players[i].Reserved))
		}
	}
	return nil
}

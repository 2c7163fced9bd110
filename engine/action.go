package engine

import (
	"fmt"

	"go-splendor/entities"
)

type ActionType string

const (
	DiscardToken ActionType = "discard_token"
	GetToken     ActionType = "get_token"
	BuyCard      ActionType = "buy_card"
	BuyReserved  ActionType = "buy_reserved"
	ReserveCard  ActionType = "reserve_card"
	ReserveDeck  ActionType = "reserve_deck"
	DoNothing    ActionType = "do_nothing"
)

// Action 卡牌用 (Tier, Slot) 定位：Tier 为 1..3，Slot 为翻开位置或预留卡下标
type Action struct {
	Type   ActionType      `json:"type" mapstructure:"type"`
	Gem    entities.Gem    `json:"gem,omitempty" mapstructure:"gem"`
	Tokens entities.Tokens `json:"tokens,omitempty" mapstructure:"tokens"`
	Tier   int             `json:"tier,omitempty" mapstructure:"tier"`
	Slot   int             `json:"slot,omitempty" mapstructure:"slot"`
}

func (a Action) String() string {
	switch a.Type {
	case DiscardToken:
		return fmt.Sprintf("%s(%s)", a.Type, a.Gem)
	case GetToken:
		return fmt.Sprintf("%s%v", a.Type, a.Tokens)
	case BuyCard, ReserveCard:
		return fmt.Sprintf("%s(tier=%d slot=%d)", a.Type, a.Tier, a.Slot)
	case BuyReserved:
		return fmt.Sprintf("%s(slot=%d)", a.Type, a.Slot)
	case ReserveDeck:
		return fmt.Sprintf("%s(tier=%d)", a.Type, a.Tier)
	}
	return string(a.Type)
}

// Combinations 返回 0..n-1 中选 k 个的全部组合，按字典序
func Combinations(n, k int) [][]int {
	var out [][]int
	var walk func(start int, cur []int)
	walk = func(start int, cur []int) {
		if len(cur) == k {
			out = append(out, append([]int{}, cur...))
			return
		}
		for i := start; i < n; i++ {
			walk(i+1, append(cur, i))
		}
	}
	walk(0, make([]int, 0, k))
	return out
}

// AvailableColors 银行中数量大于 0 的颜色（不含 Gold）
func (g *Game) AvailableColors() []int {
	var avail []int
	for c := 0; c < entities.ColorCount; c++ {
		if g.Bank[c] > 0 {
			avail = append(avail, c)
		}
	}
	return avail
}

// DistinctTakeSize 拿不同颜色时必须拿的数量：min(3, 可用颜色数)
func (g *Game) DistinctTakeSize() int {
	return min(3, len(g.AvailableColors()))
}

// ValidActions 当前座位的全部合法动作
func (g *Game) ValidActions() []Action {
	p := g.CurrentPlayer()
	var actions []Action

	switch g.Phase.Kind {
	case PhaseTerminal:
		return nil
	case PhaseMustDiscard:
		for c := 0; c < entities.GemCount; c++ {
			if p.Tokens[c] > 0 {
				actions = append(actions, Action{Type: DiscardToken, Gem: entities.Gem(c)})
			}
		}
		return actions
	}

	for c := 0; c < entities.ColorCount; c++ {
		if g.Bank[c] >= 4 {
			var t entities.Tokens
			t[c] = 2
			actions = append(actions, Action{Type: GetToken, Tokens: t})
		}
	}

	avail := g.AvailableColors()
	if n := g.DistinctTakeSize(); n > 0 {
		for _, combo := range Combinations(len(avail), n) {
			var t entities.Tokens
			for _, i := range combo {
				t[avail[i]] = 1
			}
			actions = append(actions, Action{Type: GetToken, Tokens: t})
		}
	}

	for t := 0; t < Tiers; t++ {
		for s, card := range g.Board.Open[t] {
			if p.CanAfford(card) {
				actions = append(actions, Action{Type: BuyCard, Tier: t + 1, Slot: s})
			}
		}
	}
	for s, card := range p.Reserved {
		if p.CanAfford(card) {
			actions = append(actions, Action{Type: BuyReserved, Slot: s})
		}
	}

	if len(p.Reserved) < MaxReserved {
		for t := 0; t < Tiers; t++ {
			for s := range g.Board.Open[t] {
				actions = append(actions, Action{Type: ReserveCard, Tier: t + 1, Slot: s})
			}
		}
		for t := 0; t < Tiers; t++ {
			if len(g.Board.Decks[t]) > 0 {
				actions = append(actions, Action{Type: ReserveDeck, Tier: t + 1})
			}
		}
	}

	actions = append(actions, Action{Type: DoNothing})
	return actions
}

func illegal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalAction, fmt.Sprintf(format, args...))
}

// Validate 在不修改状态的前提下检查动作是否合法
func (g *Game) Validate(a Action) error {
	if g.Phase.Kind == PhaseTerminal {
		return ErrGameOver
	}
	p := g.CurrentPlayer()

	if g.Phase.Kind == PhaseMustDiscard {
		if a.Type != DiscardToken {
			return illegal("must discard down to %d tokens", TokenLimit)
		}
		if !a.Gem.Valid() || p.Tokens[a.Gem] <= 0 {
			return illegal("no %s token to discard", a.Gem)
		}
		return nil
	}

	switch a.Type {
	case DiscardToken:
		return illegal("discard only allowed above %d tokens", TokenLimit)

	case GetToken:
		return g.validateTake(a.Tokens)

	case BuyCard:
		card, err := g.openCard(a.Tier, a.Slot)
		if err != nil {
			return err
		}
		if !p.CanAfford(card) {
			return illegal("cannot afford card %d", card.ID)
		}

	case BuyReserved:
		if a.Slot < 0 || a.Slot >= len(p.Reserved) {
			return illegal("no reserved card at slot %d", a.Slot)
		}
		if !p.CanAfford(p.Reserved[a.Slot]) {
			return illegal("cannot afford reserved card %d", p.Reserved[a.Slot].ID)
		}

	case ReserveCard:
		if len(p.Reserved) >= MaxReserved {
			return illegal("already holding %d reserved cards", MaxReserved)
		}
		if _, err := g.openCard(a.Tier, a.Slot); err != nil {
			return err
		}

	case ReserveDeck:
		if len(p.Reserved) >= MaxReserved {
			return illegal("already holding %d reserved cards", MaxReserved)
		}
		if a.Tier < 1 || a.Tier > Tiers {
			return illegal("tier %d out of range", a.Tier)
		}
		if len(g.Board.Decks[a.Tier-1]) == 0 {
			return illegal("tier %d deck is empty", a.Tier)
		}

	case DoNothing:

	default:
		return illegal("unknown action type %q", a.Type)
	}
	return nil
}

func (g *Game) validateTake(t entities.Tokens) error {
	if t[entities.Gold] != 0 {
		return illegal("gold tokens cannot be taken")
	}
	colors, total := 0, 0
	for c := 0; c < entities.ColorCount; c++ {
		if t[c] < 0 {
			return illegal("negative token count")
		}
		if t[c] > 0 {
			colors++
			total += t[c]
		}
	}

	if colors == 0 {
		return illegal("no tokens requested")
	}

	// 同色两个
	if colors == 1 && total == 2 {
		for c := 0; c < entities.ColorCount; c++ {
			if t[c] == 2 && g.Bank[c] < 4 {
				return illegal("need at least 4 %s in bank to take two", entities.Gem(c))
			}
		}
		return nil
	}

	// 不同颜色各一个
	if total != colors {
		return illegal("take two of one color or one each of distinct colors")
	}
	if want := g.DistinctTakeSize(); colors != want {
		return illegal("must take exactly %d distinct colors", want)
	}
	for c := 0; c < entities.ColorCount; c++ {
		if t[c] > 0 && g.Bank[c] < t[c] {
			return illegal("bank has no %s", entities.Gem(c))
		}
	}
	return nil
}

func (g *Game) openCard(tier, slot int) (entities.Card, error) {
	if tier < 1 || tier > Tiers {
		return entities.Card{}, illegal("tier %d out of range", tier)
	}
	open := g.Board.Open[tier-1]
	if slot < 0 || slot >= len(open) {
		return entities.Card{}, illegal("no open card at tier %d slot %d", tier, slot)
	}
	return open[slot], nil
}

// Package decision 定义决策接口（52 槽动作空间、合法掩码、观测向量），
// 服务端的 AI 回合和所有决策实现都只通过这里和引擎交互。
package decision

import (
	"errors"
	"fmt"

	"go-splendor/engine"
	"go-splendor/entities"
)

// 动作空间布局
const (
	ActionSpace = 52

	takeTwoBase     = 0  // 0-4   同色拿 2 个
	takeThreeBase   = 5  // 5-14  三种不同颜色各 1 个
	buyOpenBase     = 15 // 15-26 购买翻开的卡 tier*4+slot
	buyReservedBase = 27 // 27-29 购买预留卡
	reserveOpenBase = 30 // 30-41 预留翻开的卡
	reserveDeckBase = 42 // 42-44 盲抽预留
	PassIndex       = 45
	discardBase     = 46 // 46-51 弃 1 个宝石
)

var (
	ErrBadIndex   = errors.New("action index out of range")
	ErrNotCurrent = errors.New("seat is not the current seat")
)

// threeCombos C(5,3) 按字典序，下标对应 5..14
var threeCombos = engine.Combinations(entities.ColorCount, 3)

type ActionMask [ActionSpace]bool

// Legal 掩码中合法的下标
func (m ActionMask) Legal() []int {
	var idx []int
	for i, ok := range m {
		if ok {
			idx = append(idx, i)
		}
	}
	return idx
}

func (m ActionMask) Any() bool {
	for _, ok := range m {
		if ok {
			return true
		}
	}
	return false
}

// Decode 把下标翻译成 seat 的动作，只检查下标范围和行动座位，不检查合法性
func Decode(g *engine.Game, seat, idx int) (engine.Action, error) {
	if g.CurrentSeat() != seat {
		return engine.Action{}, fmt.Errorf("%w: seat %d", ErrNotCurrent, seat)
	}
	return decode(idx)
}

func decode(idx int) (engine.Action, error) {
	switch {
	case idx < 0 || idx >= ActionSpace:
		return engine.Action{}, fmt.Errorf("%w: %d", ErrBadIndex, idx)
	case idx < takeThreeBase:
		var t entities.Tokens
		t[idx-takeTwoBase] = 2
		return engine.Action{Type: engine.GetToken, Tokens: t}, nil
	case idx < buyOpenBase:
		var t entities.Tokens
		for _, c := range threeCombos[idx-takeThreeBase] {
			t[c] = 1
		}
		return engine.Action{Type: engine.GetToken, Tokens: t}, nil
	case idx < buyReservedBase:
		i := idx - buyOpenBase
		return engine.Action{Type: engine.BuyCard, Tier: i/engine.OpenPerTier + 1, Slot: i % engine.OpenPerTier}, nil
	case idx < reserveOpenBase:
		return engine.Action{Type: engine.BuyReserved, Slot: idx - buyReservedBase}, nil
	case idx < reserveDeckBase:
		i := idx - reserveOpenBase
		return engine.Action{Type: engine.ReserveCard, Tier: i/engine.OpenPerTier + 1, Slot: i % engine.OpenPerTier}, nil
	case idx < PassIndex:
		return engine.Action{Type: engine.ReserveDeck, Tier: idx - reserveDeckBase + 1}, nil
	case idx == PassIndex:
		return engine.Action{Type: engine.DoNothing}, nil
	default:
		return engine.Action{Type: engine.DiscardToken, Gem: entities.Gem(idx - discardBase)}, nil
	}
}

// Encode 动作对应的下标；拿 1~2 种不同颜色这类动作没有编码
func Encode(a engine.Action) (int, bool) {
	switch a.Type {
	case engine.GetToken:
		var picked []int
		for c := 0; c < entities.ColorCount; c++ {
			switch a.Tokens[c] {
			case 0:
			case 1:
				picked = append(picked, c)
			case 2:
				if a.Tokens.Total() == 2 {
					return takeTwoBase + c, true
				}
				return 0, false
			default:
				return 0, false
			}
		}
		if len(picked) != 3 || a.Tokens[entities.Gold] != 0 {
			return 0, false
		}
		for i, combo := range threeCombos {
			if combo[0] == picked[0] && combo[1] == picked[1] && combo[2] == picked[2] {
				return takeThreeBase + i, true
			}
		}
	case engine.BuyCard:
		if i, ok := boardIndex(a); ok {
			return buyOpenBase + i, true
		}
	case engine.BuyReserved:
		if a.Slot >= 0 && a.Slot < engine.MaxReserved {
			return buyReservedBase + a.Slot, true
		}
	case engine.ReserveCard:
		if i, ok := boardIndex(a); ok {
			return reserveOpenBase + i, true
		}
	case engine.ReserveDeck:
		if a.Tier >= 1 && a.Tier <= engine.Tiers {
			return reserveDeckBase + a.Tier - 1, true
		}
	case engine.DoNothing:
		return PassIndex, true
	case engine.DiscardToken:
		if a.Gem.Valid() {
			return discardBase + int(a.Gem), true
		}
	}
	return 0, false
}

func boardIndex(a engine.Action) (int, bool) {
	if a.Tier < 1 || a.Tier > engine.Tiers || a.Slot < 0 || a.Slot >= engine.OpenPerTier {
		return 0, false
	}
	return (a.Tier-1)*engine.OpenPerTier + a.Slot, true
}

// Mask seat 的合法掩码，非行动座位全为 false。掩码为 true 的下标 Step 一定成功。
func Mask(g *engine.Game, seat int) ActionMask {
	var m ActionMask
	if g.Terminal() || g.CurrentSeat() != seat {
		return m
	}
	for i := 0; i < ActionSpace; i++ {
		a, _ := decode(i)
		m[i] = g.Validate(a) == nil
	}
	return m
}

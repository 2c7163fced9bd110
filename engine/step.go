package engine

import (
	"sort"

	"go-splendor/entities"
)

// Step 执行一个动作。动作先校验，不合法时状态保持不变。
// 返回本次结算出的赢家座位号，没有赢家时为 -1。
func (g *Game) Step(a Action) (int, error) {
	if err := g.Validate(a); err != nil {
		return -1, err
	}
	p := g.CurrentPlayer()

	switch a.Type {
	case DiscardToken:
		p.Tokens[a.Gem]--
		g.Bank[a.Gem]++

	case GetToken:
		for c := 0; c < entities.ColorCount; c++ {
			if a.Tokens[c] > 0 {
				p.Tokens[c] += a.Tokens[c]
				g.Bank[c] -= a.Tokens[c]
			}
		}

	case BuyCard:
		t := a.Tier - 1
		card := g.Board.Open[t][a.Slot]
		g.pay(p, card)
		p.Cards = append(p.Cards, card)
		g.refill(t, a.Slot)
		g.checkNobles(g.Phase.Seat)

	case BuyReserved:
		card := p.Reserved[a.Slot]
		g.pay(p, card)
		p.Cards = append(p.Cards, card)
		p.Reserved = append(p.Reserved[:a.Slot:a.Slot], p.Reserved[a.Slot+1:]...)
		g.checkNobles(g.Phase.Seat)

	case ReserveCard, ReserveDeck:
		if g.Bank[entities.Gold] > 0 {
			g.Bank[entities.Gold]--
			p.Tokens[entities.Gold]++
		}
		t := a.Tier - 1
		if a.Type == ReserveCard {
			p.Reserved = append(p.Reserved, g.Board.Open[t][a.Slot])
			g.refill(t, a.Slot)
		} else {
			p.Reserved = append(p.Reserved, g.Board.Decks[t][0])
			g.Board.Decks[t] = g.Board.Decks[t][1:]
		}

	case DoNothing:
	}

	g.endAction()
	return g.settle(), nil
}

// pay 先用同色宝石支付，差额最后一次性用 Gold 补齐
func (g *Game) pay(p *Player, card entities.Card) {
	discounts := p.Discounts()
	gold := 0
	for c := 0; c < entities.ColorCount; c++ {
		due := max(0, card.Cost[c]-discounts[c])
		paid := min(p.Tokens[c], due)
		p.Tokens[c] -= paid
		g.Bank[c] += paid
		gold += due - paid
	}
	if gold > 0 {
		p.Tokens[entities.Gold] -= gold
		g.Bank[entities.Gold] += gold
	}
}

// refill 移走 slot 上的卡，用牌堆顶原位补上；牌堆空时该位置消失
func (g *Game) refill(t, slot int) {
	open := g.Board.Open[t]
	if len(g.Board.Decks[t]) > 0 {
		open[slot] = g.Board.Decks[t][0]
		g.Board.Decks[t] = g.Board.Decks[t][1:]
		return
	}
	g.Board.Open[t] = append(open[:slot:slot], open[slot+1:]...)
}

// checkNobles 每次购买后检查贵族。多个候选时，优先拿走对手最接近的那一位。
func (g *Game) checkNobles(seat int) {
	p := &g.Players[seat]
	discounts := p.Discounts()

	var candidates []int
	for i, n := range g.Nobles {
		ok := true
		for c := 0; c < entities.ColorCount; c++ {
			if discounts[c] < n.Cost[c] {
				ok = false
				break
			}
		}
		if ok {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return
	}

	target := candidates[0]
	if len(candidates) > 1 {
		best := -1
		for _, i := range candidates {
			closest := -1
			for s := range g.Players {
				if s == seat {
					continue
				}
				m := missing(g.Nobles[i], g.Players[s].Discounts())
				if closest < 0 || m < closest {
					closest = m
				}
			}
			if best < 0 || closest < best {
				best = closest
				target = i
			}
		}
	}

	p.Nobles = append(p.Nobles, g.Nobles[target])
	g.Nobles = append(g.Nobles[:target:target], g.Nobles[target+1:]...)
}

func missing(n entities.Noble, discounts entities.Cost) int {
	total := 0
	for c := 0; c < entities.ColorCount; c++ {
		total += max(0, n.Cost[c]-discounts[c])
	}
	return total
}

// endAction 宝石不超过上限才轮到下一位，否则停在 MustDiscard
func (g *Game) endAction() {
	if g.CurrentPlayer().TokenCount() > TokenLimit {
		g.Phase.Kind = PhaseMustDiscard
		return
	}
	g.advance()
}

func (g *Game) advance() {
	g.Turn++
	next := (g.Phase.Seat + 1) % len(g.Players)
	kind := PhaseIdle
	if g.Players[next].TokenCount() > TokenLimit {
		kind = PhaseMustDiscard
	}
	g.Phase = Phase{Kind: kind, Seat: next}
}

// ForceAdvance 无视宝石上限直接跳到下一位，用于卡死保护
func (g *Game) ForceAdvance() int {
	if g.Terminal() {
		return g.Winner
	}
	g.advance()
	return g.settle()
}

func (g *Game) settle() int {
	w := g.CheckWinner()
	if w >= 0 {
		g.Winner = w
		g.Phase.Kind = PhaseTerminal
	}
	return w
}

// CheckWinner 只在一整轮结束（轮到 0 号座位）时判定。
// 排序：分数高 > 卡牌少 > 宝石多 > 座位号大
func (g *Game) CheckWinner() int {
	if g.Phase.Seat != 0 {
		return -1
	}
	var candidates []int
	for i := range g.Players {
		if g.Players[i].Score() >= WinningScore {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return -1
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		pa, pb := &g.Players[candidates[a]], &g.Players[candidates[b]]
		if pa.Score() != pb.Score() {
			return pa.Score() > pb.Score()
		}
		if len(pa.Cards) != len(pb.Cards) {
			return len(pa.Cards) < len(pb.Cards)
		}
		if pa.TokenCount() != pb.TokenCount() {
			return pa.TokenCount() > pb.TokenCount()
		}
		return candidates[a] > candidates[b]
	})
	return candidates[0]
}

package decision

import (
	"context"

	"go-splendor/engine"
	"go-splendor/entities"
)

// Greedy 单步前瞻：在副本上逐个试走合法动作，取局面评分最高的，同分取下标小的
type Greedy struct{}

func (Greedy) Decide(ctx context.Context, in Input) (int, error) {
	best, bestScore := -1, 0.0
	for _, idx := range in.Mask.Legal() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		a, err := decode(idx)
		if err != nil {
			continue
		}
		g := in.Game.Clone()
		winner, err := g.Step(a)
		if err != nil {
			continue
		}
		score := evaluate(g, in.Seat)
		if winner == in.Seat {
			score += 1e6
		}
		if best < 0 || score > bestScore {
			best, bestScore = idx, score
		}
	}
	if best < 0 {
		return 0, ErrNoLegalAction
	}
	return best, nil
}

// evaluate 分数 > 折扣 > 贵族进度 > 宝石，Gold 比普通宝石值钱
func evaluate(g *engine.Game, seat int) float64 {
	p := &g.Players[seat]
	discounts := p.Discounts()

	v := 100 * float64(p.Score())
	for c := 0; c < entities.ColorCount; c++ {
		v += 8 * float64(discounts[c])
		v += float64(p.Tokens[c])
	}
	v += 2 * float64(p.Tokens[entities.Gold])

	for _, n := range g.Nobles {
		gap := 0
		for c := 0; c < entities.ColorCount; c++ {
			gap += max(0, n.Cost[c]-discounts[c])
		}
		v -= float64(gap)
	}

	// 预留卡占位但还没兑现
	v += float64(len(p.Reserved))
	return v
}

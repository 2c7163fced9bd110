package decision

import (
	"context"
	"errors"
	"fmt"

	"go-splendor/engine"

	"golang.org/x/exp/rand"
)

var ErrNoLegalAction = errors.New("no legal action")

// Input 决策所需的全部信息。Game 是副本，决策方可以随意在上面推演。
type Input struct {
	Observation []float32
	Mask        ActionMask
	Game        *engine.Game
	Seat        int
}

// Provider 自动座位的决策方，返回 52 槽中的下标
type Provider interface {
	Decide(ctx context.Context, in Input) (int, error)
}

type ProviderFunc func(ctx context.Context, in Input) (int, error)

func (f ProviderFunc) Decide(ctx context.Context, in Input) (int, error) {
	return f(ctx, in)
}

func NewInput(g *engine.Game, seat int) Input {
	return Input{
		Observation: Observe(g, seat),
		Mask:        Mask(g, seat),
		Game:        g.Clone(),
		Seat:        seat,
	}
}

// Choice 一次决策的结果；Fallback 表示决策方出错或给了非法下标，改用随机合法动作
type Choice struct {
	Index    int
	Action   engine.Action
	Fallback bool
	Err      error
}

// Choose 调用决策方并保证返回的动作合法
func Choose(ctx context.Context, p Provider, g *engine.Game, seat int, rng *rand.Rand) (Choice, error) {
	in := NewInput(g, seat)
	legal := in.Mask.Legal()
	if len(legal) == 0 {
		return Choice{}, ErrNoLegalAction
	}

	var (
		idx int
		err error
	)
	if p != nil {
		idx, err = p.Decide(ctx, in)
		if err == nil && (idx < 0 || idx >= ActionSpace || !in.Mask[idx]) {
			err = fmt.Errorf("%w: provider chose %d", ErrBadIndex, idx)
		}
	} else {
		err = errors.New("no provider")
	}

	c := Choice{Index: idx}
	if err != nil {
		c.Index = legal[rng.Intn(len(legal))]
		c.Fallback = true
		c.Err = err
	}
	c.Action, _ = decode(c.Index)
	return c, nil
}

package decision

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/exp/rand"

	"go-splendor/engine"
	"go-splendor/entities"
)

func newGame(t *testing.T, n int, seed uint64) *engine.Game {
	t.Helper()
	ids := []string{"alice", "bob", "carol", "dave"}[:n]
	g, err := engine.New(ids, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return g
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	g := newGame(t, 2, 1)
	for i := 0; i < ActionSpace; i++ {
		a, err := Decode(g, 0, i)
		require.NoError(t, err)
		idx, ok := Encode(a)
		require.True(t, ok, "index %d (%s)", i, a)
		assert.Equal(t, i, idx)
	}

	_, err := Decode(g, 0, ActionSpace)
	assert.ErrorIs(t, err, ErrBadIndex)
	_, err = Decode(g, 0, -1)
	assert.ErrorIs(t, err, ErrBadIndex)
	_, err = Decode(g, 1, PassIndex)
	assert.ErrorIs(t, err, ErrNotCurrent)
}

func TestDecodeLayout(t *testing.T) {
	g := newGame(t, 2, 1)
	cases := map[int]engine.Action{
		0:  {Type: engine.GetToken, Tokens: entities.Tokens{2, 0, 0, 0, 0, 0}},
		5:  {Type: engine.GetToken, Tokens: entities.Tokens{1, 1, 1, 0, 0, 0}},
		14: {Type: engine.GetToken, Tokens: entities.Tokens{0, 0, 1, 1, 1, 0}},
		15: {Type: engine.BuyCard, Tier: 1, Slot: 0},
		26: {Type: engine.BuyCard, Tier: 3, Slot: 3},
		28: {Type: engine.BuyReserved, Slot: 1},
		33: {Type: engine.ReserveCard, Tier: 1, Slot: 3},
		44: {Type: engine.ReserveDeck, Tier: 3},
		45: {Type: engine.DoNothing},
		51: {Type: engine.DiscardToken, Gem: entities.Gold},
	}
	for idx, want := range cases {
		got, err := Decode(g, 0, idx)
		require.NoError(t, err)
		assert.Equal(t, want, got, "index %d", idx)
	}
}

func TestEncodeRejectsPartialTake(t *testing.T) {
	_, ok := Encode(engine.Action{Type: engine.GetToken, Tokens: entities.Tokens{1, 1, 0, 0, 0, 0}})
	assert.False(t, ok)
	_, ok = Encode(engine.Action{Type: engine.GetToken, Tokens: entities.Tokens{2, 1, 0, 0, 0, 0}})
	assert.False(t, ok)
}

// 掩码为 true 的下标一定能执行；引擎给出的可编码合法动作一定在掩码里
func TestMaskSoundness(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		g := newGame(t, 2+int(seed%3), seed)
		rng := rand.New(rand.NewSource(seed * 7))

		for step := 0; step < 400 && !g.Terminal(); step++ {
			seat := g.CurrentSeat()
			m := Mask(g, seat)
			legal := m.Legal()
			require.NotEmpty(t, legal)

			for _, idx := range legal {
				a, err := Decode(g, seat, idx)
				require.NoError(t, err)
				_, err = g.Clone().Step(a)
				require.NoError(t, err, "seed %d step %d index %d", seed, step, idx)
			}
			for _, a := range g.ValidActions() {
				if idx, ok := Encode(a); ok {
					assert.True(t, m[idx], "valid action %s missing from mask", a)
				}
			}

			other := (seat + 1) % len(g.Players)
			assert.False(t, Mask(g, other).Any())

			a, _ := Decode(g, seat, legal[rng.Intn(len(legal))])
			_, err := g.Step(a)
			require.NoError(t, err)
			require.NoError(t, g.CheckInvariants())
		}
	}
}

func TestMaskMustDiscardOnlyDiscards(t *testing.T) {
	g := newGame(t, 2, 3)
	g.Bank = entities.Tokens{0, 0, 0, 0, 2, 4}
	g.Players[0].Tokens = entities.Tokens{4, 4, 4, 0, 0, 1}
	g.Phase.Kind = engine.PhaseMustDiscard

	assert.Equal(t, []int{46, 47, 48, 51}, Mask(g, 0).Legal())
}

func TestMaskEmptyWhenTerminal(t *testing.T) {
	g := newGame(t, 2, 3)
	g.Phase.Kind = engine.PhaseTerminal
	assert.False(t, Mask(g, 0).Any())
}

func TestObserveLayout(t *testing.T) {
	for n := 2; n <= 4; n++ {
		g := newGame(t, n, 5)
		obs := Observe(g, 0)
		require.Len(t, obs, ObservationSize)

		for c, v := range g.Bank {
			assert.Equal(t, float32(v), obs[c])
		}
		first := g.Board.Open[0][0]
		for c, v := range first.Cost {
			assert.Equal(t, float32(v), obs[6+c])
		}
		assert.Equal(t, float32(first.Points), obs[11])
		assert.Equal(t, float32(first.Bonus), obs[12])
	}
}

func TestObserveIsSeatRelative(t *testing.T) {
	g := newGame(t, 3, 5)
	g.Bank[entities.Ruby] -= 2
	g.Players[1].Tokens[entities.Ruby] = 2

	own := 6 + 12*cardFeatures
	obs := Observe(g, 1)
	assert.Equal(t, float32(2), obs[own+int(entities.Ruby)])

	// 0 号座位视角下，1 号是第一个对手
	firstOpponent := own + 6 + 5 + 1 + engine.MaxReserved*cardFeatures
	obs = Observe(g, 0)
	assert.Equal(t, float32(0), obs[own+int(entities.Ruby)])
	assert.Equal(t, float32(2), obs[firstOpponent+int(entities.Ruby)])
}

func TestChooseUsesProviderIndex(t *testing.T) {
	g := newGame(t, 2, 9)
	p := ProviderFunc(func(_ context.Context, in Input) (int, error) {
		assert.Len(t, in.Observation, ObservationSize)
		assert.Equal(t, 0, in.Seat)
		return PassIndex, nil
	})
	c, err := Choose(context.Background(), p, g, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.False(t, c.Fallback)
	assert.Equal(t, PassIndex, c.Index)
	assert.Equal(t, engine.Action{Type: engine.DoNothing}, c.Action)
}

func TestChooseFallsBackToLegalRandom(t *testing.T) {
	g := newGame(t, 2, 9)
	rng := rand.New(rand.NewSource(1))
	mask := Mask(g, 0)

	providers := map[string]Provider{
		"illegal": ProviderFunc(func(context.Context, Input) (int, error) { return 51, nil }),
		"range":   ProviderFunc(func(context.Context, Input) (int, error) { return 99, nil }),
		"error":   ProviderFunc(func(context.Context, Input) (int, error) { return 0, errors.New("boom") }),
		"nil":     nil,
	}
	for name, p := range providers {
		c, err := Choose(context.Background(), p, g, 0, rng)
		require.NoError(t, err, name)
		assert.True(t, c.Fallback, name)
		assert.Error(t, c.Err, name)
		assert.True(t, mask[c.Index], name)
	}
}

func TestChooseWithoutLegalAction(t *testing.T) {
	g := newGame(t, 2, 9)
	g.Phase.Kind = engine.PhaseTerminal
	_, err := Choose(context.Background(), Greedy{}, g, 0, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrNoLegalAction)
}

func TestRandomStaysInMask(t *testing.T) {
	g := newGame(t, 4, 11)
	in := NewInput(g, 0)
	r := NewRandom(3)
	for i := 0; i < 50; i++ {
		idx, err := r.Decide(context.Background(), in)
		require.NoError(t, err)
		assert.True(t, in.Mask[idx])
	}
}

func TestGreedyBuysPointCard(t *testing.T) {
	g := newGame(t, 2, 13)
	g.Board.Open[2][0] = entities.Card{ID: 900, Tier: 3, Bonus: entities.Onyx, Points: 5, Cost: entities.Cost{1, 0, 0, 0, 0}}
	g.Bank[entities.Diamond]--
	g.Players[0].Tokens[entities.Diamond] = 1

	idx, err := Greedy{}.Decide(context.Background(), NewInput(g, 0))
	require.NoError(t, err)
	assert.Equal(t, buyOpenBase+2*engine.OpenPerTier, idx)
}

func TestGreedyDoesNotMutateGame(t *testing.T) {
	g := newGame(t, 3, 13)
	before := g.Clone()
	in := NewInput(g, 0)
	_, err := Greedy{}.Decide(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, before, g)
}

func testWeights(hidden int) MLPWeights {
	matrix := func(rows, cols int) [][]float64 {
		m := make([][]float64, rows)
		for i := range m {
			m[i] = make([]float64, cols)
		}
		return m
	}
	w := MLPWeights{
		Fc0W: matrix(ObservationSize, hidden),
		Fc0B: make([]float64, hidden),
		Fc1W: matrix(hidden, hidden),
		Fc1B: make([]float64, hidden),
		ActW: matrix(hidden, ActionSpace),
		ActB: make([]float64, ActionSpace),
	}
	for i := range w.ActB {
		w.ActB[i] = float64(i)
	}
	return w
}

func TestMLPMaskedArgmax(t *testing.T) {
	m, err := NewMLP(testWeights(4))
	require.NoError(t, err)

	g := newGame(t, 2, 17)
	idx, err := m.Decide(context.Background(), NewInput(g, 0))
	require.NoError(t, err)
	// 偏置递增，最大的合法下标是 pass，弃宝石不合法
	assert.Equal(t, PassIndex, idx)
}

func TestMLPHiddenLayers(t *testing.T) {
	w := testWeights(2)
	for i := range w.ActB {
		w.ActB[i] = 0
	}
	// 观测第 0 维（银行钻石数）经两层 tanh 后推高第 20 号 logit
	w.Fc0W[0][0] = 1
	w.Fc1W[0][1] = 1
	w.ActW[1][20] = 5
	m, err := NewMLP(w)
	require.NoError(t, err)

	var in Input
	in.Observation = make([]float32, ObservationSize)
	in.Observation[0] = 3
	in.Mask[20] = true
	in.Mask[PassIndex] = true
	idx, err := m.Decide(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 20, idx)

	in.Observation[0] = -3
	idx, err = m.Decide(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, PassIndex, idx)
}

func TestNewMLPRejectsBadShape(t *testing.T) {
	w := testWeights(4)
	w.Fc0W = w.Fc0W[:10]
	_, err := NewMLP(w)
	assert.Error(t, err)

	w = testWeights(4)
	w.ActB = w.ActB[:10]
	for i := range w.ActW {
		w.ActW[i] = w.ActW[i][:10]
	}
	_, err = NewMLP(w)
	assert.Error(t, err)
}

func TestRegistryLoadModels(t *testing.T) {
	dir := t.TempDir()
	raw, err := json.Marshal(testWeights(3))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lite.json"), raw, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	r := NewRegistry()
	n, err := r.LoadModels(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{GreedyModel, "lite", DefaultModel}, r.Tags())
	assert.True(t, r.Has("lite"))
	assert.False(t, r.Has("broken"))

	p, err := r.New("lite")
	require.NoError(t, err)
	assert.IsType(t, &MLP{}, p)

	_, err = r.New("missing")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

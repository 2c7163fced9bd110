package decision

import (
	"context"
	"sync"

	"golang.org/x/exp/rand"
)

// Random 在掩码内均匀随机
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Decide(_ context.Context, in Input) (int, error) {
	legal := in.Mask.Legal()
	if len(legal) == 0 {
		return 0, ErrNoLegalAction
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return legal[r.rng.Intn(len(legal))], nil
}

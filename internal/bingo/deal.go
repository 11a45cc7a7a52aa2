package bingo

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/samber/lo"

	"dailybingo/internal/types"
)

// ErrPoolTooSmall is returned when more cards are requested than the pool holds.
var ErrPoolTooSmall = errors.New("phrase pool too small")

// Shuffle returns a uniformly random permutation of pool. pool is not modified.
func Shuffle(pool []string, rng *rand.Rand) []string {
	out := make([]string, len(pool))
	copy(out, pool)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Deal shuffles pool and returns the first count phrases as unselected cards.
func Deal(pool []string, count int, rng *rand.Rand) ([]types.Card, error) {
	if count < 0 || count > len(pool) {
		return nil, fmt.Errorf("%w: want %d cards, have %d phrases", ErrPoolTooSmall, count, len(pool))
	}
	shuffled := Shuffle(pool, rng)[:count]
	return lo.Map(shuffled, func(text string, _ int) types.Card {
		return types.Card{Text: text}
	}), nil
}

// Dealer deals from a fixed pool. It is safe for concurrent use.
type Dealer struct {
	pool []string
	mu   sync.Mutex
	rng  *rand.Rand
}

// NewDealer returns a Dealer over a private copy of pool. A nil rng is
// replaced by a ChaCha8 generator seeded from crypto/rand.
func NewDealer(pool []string, rng *rand.Rand) *Dealer {
	if rng == nil {
		rng = newSeededRand()
	}
	p := make([]string, len(pool))
	copy(p, pool)
	return &Dealer{pool: p, rng: rng}
}

// Deal returns count fresh cards.
func (d *Dealer) Deal(count int) ([]types.Card, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Deal(d.pool, count, d.rng)
}

// PoolSize returns the number of phrases the dealer draws from.
func (d *Dealer) PoolSize() int {
	return len(d.pool)
}

func newSeededRand() *rand.Rand {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

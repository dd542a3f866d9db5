package services

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the randomness source for breakthrough rolls and outcome draws.
// Services take it as a dependency so tests can force a roll.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// NewRand returns a time-seeded source safe for concurrent handlers.
func NewRand() Rand {
	return &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// SuccessCheck draws once against a [0,1] chance.
func SuccessCheck(r Rand, chance float64) bool {
	return r.Float64() < clamp01(chance)
}

// WeightedPick returns an index drawn proportionally to weights. Zero and
// negative weights are treated as zero; an all-zero table falls back to a
// uniform pick.
func WeightedPick(r Rand, weights []int) int {
	if len(weights) == 0 {
		return 0
	}
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return r.Intn(len(weights))
	}
	roll := r.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if roll < w {
			return i
		}
		roll -= w
	}
	return len(weights) - 1
}

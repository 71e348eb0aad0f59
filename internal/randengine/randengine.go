// Package randengine provides a thread-safe random number source for the
// reporter's jittered retry backoff.
package randengine

import (
	"sync"

	"golang.org/x/exp/rand"
)

// Engine wraps golang.org/x/exp/rand.Rand with a mutex so it can be shared
// by concurrent callers without each needing its own lock.
type Engine struct {
	*rand.Rand
	mtx sync.Mutex
}

// New creates an Engine seeded from seed.
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed))}
}

// Float64Safe returns a random float64 in [0.0, 1.0), safe for concurrent use.
func (e *Engine) Float64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64()
}

// Int63nSafe returns a random int64 in [0, n), safe for concurrent use.
func (e *Engine) Int63nSafe(n int64) int64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Int63n(n)
}

package dataflow

import "sync"

// Guard serialises access to an Engine shared between goroutines.
type Guard struct {
	mu     sync.Mutex
	engine *Engine
}

// NewGuard wraps e.
func NewGuard(e *Engine) *Guard {
	return &Guard{engine: e}
}

// Do runs fn with exclusive access to the engine.
func (g *Guard) Do(fn func(*Engine) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.engine)
}

package mux

import "sync"

// Cell guards a value shared between the timer context and the main loop.
// Every access goes through With, which holds the lock only for the
// duration of fn. fn must not block or call back into the cell.
type Cell[T any] struct {
	mu sync.Mutex
	v  T
}

// With runs fn with exclusive access to the value.
func (c *Cell[T]) With(fn func(v *T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.v)
}

// Load returns a copy of the value.
func (c *Cell[T]) Load() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

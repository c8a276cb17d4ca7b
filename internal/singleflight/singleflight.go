package singleflight

import (
	"context"
	"fmt"
	"sync"
)

// Group coalesces concurrent calls that share a key into one execution.
type Group[T any] struct {
	mu sync.Mutex
	m  map[string]*call[T]
}

// call represents an in-flight function call.
type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// New creates a new singleflight Group.
func New[T any]() *Group[T] {
	return &Group[T]{
		m: make(map[string]*call[T]),
	}
}

// Do executes and returns the results of the given function, making sure that
// only one execution is in-flight for a given key at a time. A duplicate
// caller waits for the original to complete and receives the same results,
// with shared set to true. A waiter whose ctx ends first returns ctx.Err().
// The key is released as soon as fn returns.
func (g *Group[T]) Do(ctx context.Context, key string, fn func() (T, error)) (val T, err error, shared bool) {
	g.mu.Lock()
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err, true
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err(), true
		}
	}

	c := &call[T]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	g.run(c, key, fn)
	return c.val, c.err, false
}

func (g *Group[T]) run(c *call[T], key string, fn func() (T, error)) {
	defer func() {
		r := recover()
		if r != nil {
			c.err = fmt.Errorf("%w: %v", ErrCallPanicked, r)
		}

		g.mu.Lock()
		if g.m[key] == c {
			delete(g.m, key)
		}
		g.mu.Unlock()
		close(c.done)

		if r != nil {
			panic(r)
		}
	}()

	c.val, c.err = fn()
}

// Forget releases key so the next call executes even if one is in flight.
func (g *Group[T]) Forget(key string) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}

// InFlight returns the number of keys currently executing.
func (g *Group[T]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}

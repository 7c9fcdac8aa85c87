// Package idgenerator allocates unique client IDs for accepted
// connections.
package idgenerator

import "sync/atomic"

// IdGenerator hands out monotonically increasing uint32 IDs. The first
// call to Next returns start+1. Safe for concurrent use.
type IdGenerator struct {
	id atomic.Uint32
}

// New creates a generator whose first Next() returns start+1.
func New(start uint32) *IdGenerator {
	g := &IdGenerator{}
	g.id.Store(start)
	return g
}

// Next atomically returns the next unique ID.
func (g *IdGenerator) Next() uint32 {
	return g.id.Add(1)
}

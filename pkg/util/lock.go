package util

import (
	"sync/atomic"

	"github.com/petermattis/goid"
)

// OwnerCheck is a single-owner assertion, active in every build. A
// Chunk or Vector is not internally synchronized and must never be
// touched by two goroutines concurrently; this replaces the teacher's
// reentrant-lock idiom (which tolerated repeat entry by the same
// goroutine, the opposite invariant) with the check the core actually
// needs.
type OwnerCheck struct {
	owner atomic.Int64
}

// Bind records the calling goroutine as the sole owner, lazily, on
// first use.
func (c *OwnerCheck) Bind() {
	c.owner.CompareAndSwap(0, goid.Get())
}

// Verify raises an InvariantViolation (via AssertFunc) if the calling
// goroutine differs from the one bound by the first Bind.
func (c *OwnerCheck) Verify() {
	c.Bind()
	AssertFunc(c.owner.Load() == goid.Get())
}

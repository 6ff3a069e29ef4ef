/*
Package quadtree implements point quadtrees that are safe for concurrent use.

Two implementations share the Quadtree interface. LockfreeQuadtree never
blocks: buckets are persistent lists swapped in with compare and swap, and
replaced bucket headers are recycled through hazard pointers.
LockbasedQuadtree guards every node with a mutex and serves as a baseline
and as an oracle in tests; for the same sequence of inserts both return the
same query results.

Currently, it only stores points, not ancillary data.
*/
package quadtree

import (
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Quadtree is a set of points supporting concurrent insert and range query.
type Quadtree interface {
	// Insert adds p. It returns false if p is outside the boundary.
	Insert(p Point) bool
	// Query returns every stored point that b contains. Concurrent inserts
	// may or may not be reflected.
	Query(b BoundingBox) []Point
	Boundary() BoundingBox
}

// WalkFunc is called for each node visited by Walk.
type WalkFunc func(depth int, boundary BoundingBox, leaf bool)

// Walker is implemented by trees that expose their structure.
type Walker interface {
	Walk(fn WalkFunc)
}

// Kind selects a Quadtree implementation.
type Kind int

const (
	LockFree Kind = iota
	LockBased
)

func (k Kind) String() string {
	switch k {
	case LockFree:
		return "lockfree"
	case LockBased:
		return "lockbased"
	}
	return "unknown"
}

// New creates a Quadtree of the given kind. Each leaf holds up to capacity
// points before it subdivides.
func New(kind Kind, b BoundingBox, capacity int) (Quadtree, error) {
	switch kind {
	case LockFree:
		return NewLockFree(b, capacity), nil
	case LockBased:
		return NewLockBased(b, capacity), nil
	}
	return nil, ErrUnknownKind.GenWithStackByArgs(int(kind))
}

func adjustCapacity(capacity int) int {
	if capacity < 1 {
		log.Warn("quadtree capacity must be positive, use 1 instead", zap.Int("capacity", capacity))
		return 1
	}
	return capacity
}

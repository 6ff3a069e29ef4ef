package quadtree

import (
	"context"
	"runtime"

	"github.com/pingcap/errors"
	"github.com/rob05c/cquadtree/internal/hazard"
)

// maxFreePointLists bounds the number of reclaimed headers a worker keeps for
// reuse.
const maxFreePointLists = 64

// worker is the per-goroutine reclamation state: the retirement lists and
// the headers already reclaimed and ready to be reused.
type worker struct {
	local *hazard.Local[PointList, PointListNode]
	free  []*PointList
}

func newWorker(r *hazard.Registry) *worker {
	w := &worker{}
	// list nodes go back to the garbage collector: a node dropped by disperse
	// can still be reachable from an older header that another reader holds
	w.local = hazard.NewLocal[PointList, PointListNode](r, w.recycle, nil)
	return w
}

func (w *worker) newPointList(first *PointListNode, capacity, length int) *PointList {
	if n := len(w.free); n > 0 {
		l := w.free[n-1]
		w.free[n-1] = nil
		w.free = w.free[:n-1]
		l.First, l.Capacity, l.Length = first, capacity, length
		return l
	}
	return &PointList{First: first, Capacity: capacity, Length: length}
}

// recycle makes l available to newPointList. l must not be reachable by any
// other goroutine.
func (w *worker) recycle(l *PointList) {
	*l = PointList{}
	if len(w.free) < maxFreePointLists {
		w.free = append(w.free, l)
	}
}

func (w *worker) collect() {
	headers, nodes := w.local.Collect()
	if headers > 0 {
		reclaimedHeaders.Add(float64(headers))
	}
	if nodes > 0 {
		reclaimedNodes.Add(float64(nodes))
	}
}

// Handle is one goroutine's access to a LockfreeQuadtree. Objects that the
// goroutine unlinks from the tree stay on the handle until no other
// goroutine can be reading them, so a Handle must not be used by more than
// one goroutine at a time.
type Handle struct {
	tree *LockfreeQuadtree
	w    *worker
}

// NewHandle returns a handle for inserting into q.
func (q *LockfreeQuadtree) NewHandle() *Handle {
	return &Handle{tree: q, w: newWorker(q.shared.registry)}
}

func (h *Handle) Insert(p Point) bool {
	return h.tree.insert(h.w, p) == nil
}

// TryInsert adds p, returning ErrOutOfBoundary if the tree does not contain
// it or ErrNoQuadrant if no child accepted it.
func (h *Handle) TryInsert(p Point) error {
	return h.tree.insert(h.w, p)
}

func (h *Handle) Query(b BoundingBox) []Point {
	return h.tree.Query(b)
}

func (h *Handle) Boundary() BoundingBox {
	return h.tree.boundary
}

// CanComplete reports whether the handle holds no retired objects, so the
// owning goroutine may exit without leaving anything unreclaimed.
func (h *Handle) CanComplete() bool {
	return h.w.local.Empty()
}

// Pending returns the number of retired headers waiting for reclamation.
func (h *Handle) Pending() int {
	return h.w.local.Pending()
}

// Drain reclaims retired objects until none are left or ctx is done. Other
// goroutines' hazards only last for one bucket read, so this normally
// returns after a few rounds.
func (h *Handle) Drain(ctx context.Context) error {
	for {
		h.w.collect()
		if h.CanComplete() {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Trace(ctx.Err())
		default:
			runtime.Gosched()
		}
	}
}

// Close hands the handle's remaining retired objects to the tree's shared
// pool. The handle must not be used afterwards.
func (h *Handle) Close() {
	h.w.collect()
	h.tree.shared.workers.Put(h.w)
	h.w = nil
}

package quadtree

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pingcap/log"
	"github.com/rob05c/cquadtree/internal/hazard"
	"go.uber.org/zap"
)

// maxSpins is how many times a goroutine that lost a child publish race
// re-reads the slot before it starts yielding between reads.
const maxSpins = 64

// shared is the state common to every node of one tree.
type shared struct {
	registry *hazard.Registry
	workers  sync.Pool
}

// LockfreeQuadtree is a quadtree node that is safe for concurrent use
// without locks.
//
// A node is a leaf while points is not nil. When a leaf is full it publishes
// four children, drains its bucket into them and stores nil, after which it
// only routes to its children. Children are published once and never
// replaced.
type LockfreeQuadtree struct {
	boundary BoundingBox
	capacity int
	points   atomic.Pointer[PointList]
	children [4]atomic.Pointer[LockfreeQuadtree]
	shared   *shared
}

var (
	_ Quadtree = (*LockfreeQuadtree)(nil)
	_ Walker   = (*LockfreeQuadtree)(nil)
)

// NewLockFree creates an empty lock-free quadtree covering boundingBox.
func NewLockFree(boundingBox BoundingBox, capacity int) *LockfreeQuadtree {
	s := &shared{registry: hazard.NewRegistry(hazardSlotCounter.Inc)}
	s.workers.New = func() any {
		return newWorker(s.registry)
	}
	return newLockfreeNode(boundingBox, adjustCapacity(capacity), s)
}

func newLockfreeNode(boundingBox BoundingBox, capacity int, s *shared) *LockfreeQuadtree {
	q := &LockfreeQuadtree{boundary: boundingBox, capacity: capacity, shared: s}
	q.points.Store(NewPointList(capacity))
	return q
}

func (q *LockfreeQuadtree) Boundary() BoundingBox {
	return q.boundary
}

func (q *LockfreeQuadtree) Nw() *LockfreeQuadtree { return q.children[nw].Load() }
func (q *LockfreeQuadtree) Ne() *LockfreeQuadtree { return q.children[ne].Load() }
func (q *LockfreeQuadtree) Se() *LockfreeQuadtree { return q.children[se].Load() }
func (q *LockfreeQuadtree) Sw() *LockfreeQuadtree { return q.children[sw].Load() }

// IsLeaf reports whether the node currently holds points itself.
func (q *LockfreeQuadtree) IsLeaf() bool {
	return q.points.Load() != nil
}

// Insert adds p using a pooled handle. Goroutines inserting in a loop should
// hold their own Handle instead.
func (q *LockfreeQuadtree) Insert(p Point) bool {
	w := q.shared.workers.Get().(*worker)
	defer q.shared.workers.Put(w)
	// insertChild has already logged anything but an out of boundary point
	return q.insert(w, p) == nil
}

// TryInsert is Insert reporting why a point was not stored.
func (q *LockfreeQuadtree) TryInsert(p Point) error {
	w := q.shared.workers.Get().(*worker)
	defer q.shared.workers.Put(w)
	return q.insert(w, p)
}

func (q *LockfreeQuadtree) Query(b BoundingBox) []Point {
	return q.query(nil, b)
}

func (q *LockfreeQuadtree) Walk(fn WalkFunc) {
	q.walk(0, fn)
}

func (q *LockfreeQuadtree) walk(depth int, fn WalkFunc) {
	fn(depth, q.boundary, q.IsLeaf())
	for i := range q.children {
		if child := q.children[i].Load(); child != nil {
			child.walk(depth+1, fn)
		}
	}
}

func (q *LockfreeQuadtree) insert(w *worker, p Point) error {
	// we don't need to check the boundary within the CAS loop, because it can't change.
	if !q.boundary.Contains(p) {
		return ErrOutOfBoundary.FastGenByArgs(p, q.boundary)
	}

	slot := q.shared.registry.Acquire()
	var oldPoints *PointList
	for {
		// the hazard keeps oldPoints from being recycled while we read it
		oldPoints = hazard.Protect(slot, &q.points)
		// a nil or full bucket means we must go to a subtree
		if oldPoints == nil || oldPoints.Full() {
			break
		}

		newPoints := w.newPointList(NewPointListNode(p, oldPoints.First), oldPoints.Capacity, oldPoints.Length+1)
		if q.points.CompareAndSwap(oldPoints, newPoints) {
			// the new header shares every node, only the old header is garbage
			w.local.Retire(oldPoints)
			w.collect()
			q.shared.registry.Release(slot)
			return nil
		}
		// newPoints was never published, so nobody else can hold it
		w.recycle(newPoints)
		insertRetries.Inc()
	}
	q.shared.registry.Release(slot)

	if oldPoints != nil {
		q.subdivide(w)
	}
	return q.insertChild(w, p)
}

// insertChild inserts p into the first child whose boundary contains it.
// All four children must already be published.
func (q *LockfreeQuadtree) insertChild(w *worker, p Point) error {
	for i := range q.children {
		child := q.children[i].Load()
		if child != nil && child.boundary.Contains(p) {
			return child.insert(w, p)
		}
	}
	err := ErrNoQuadrant.GenWithStackByArgs(q.boundary, p)
	log.Error("no quadrant accepted point", zap.Stringer("point", p), zap.Stringer("boundary", q.boundary), zap.Error(err))
	return err
}

// subdivide publishes the four children and drains the bucket into them.
// It is safe to call from any number of goroutines at once: each child slot
// has exactly one winner and every caller helps disperse.
func (q *LockfreeQuadtree) subdivide(w *worker) {
	quadrants := q.boundary.Quadrants()
	capacity := childCapacity(q.capacity, quadrants[nw].HalfDimension)
	for i, b := range quadrants {
		if q.children[i].Load() != nil {
			continue
		}
		candidate := newLockfreeNode(b, capacity, q.shared)
		if !q.children[i].CompareAndSwap(nil, candidate) {
			// someone else's child won, drop ours
			q.awaitChild(i)
		}
	}
	q.disperse(w)
}

// awaitChild waits until child slot i is published.
func (q *LockfreeQuadtree) awaitChild(i int) *LockfreeQuadtree {
	for spins := 0; ; spins++ {
		if child := q.children[i].Load(); child != nil {
			return child
		}
		if spins >= maxSpins {
			runtime.Gosched()
		}
	}
}

// disperse moves the bucket's points into the children one at a time, then
// stores nil, making q permanently internal.
func (q *LockfreeQuadtree) disperse(w *worker) {
	slot := q.shared.registry.Acquire()
	defer q.shared.registry.Release(slot)
	for {
		oldPoints := hazard.Protect(slot, &q.points)
		if oldPoints == nil {
			// another goroutine finished dispersing
			return
		}
		if oldPoints.Length == 0 {
			if q.points.CompareAndSwap(oldPoints, nil) {
				w.local.Retire(oldPoints)
				w.collect()
				lockfreeSubdivides.Inc()
				return
			}
			disperseRetries.Inc()
			continue
		}

		// capacity 0 turns away inserts while we drain
		first := oldPoints.First
		newPoints := w.newPointList(first.Next, 0, oldPoints.Length-1)
		if !q.points.CompareAndSwap(oldPoints, newPoints) {
			w.recycle(newPoints)
			disperseRetries.Inc()
			continue
		}
		// first is no longer shared by the current header
		w.local.RetireWithNode(oldPoints, first)
		w.collect()

		if err := q.insertChild(w, first.Point); err != nil {
			// the point has left the bucket and no child holds it
			log.Error("disperse lost a point", zap.Stringer("point", first.Point), zap.Error(err))
			panic(err)
		}
	}
}

func (q *LockfreeQuadtree) query(points []Point, b BoundingBox) []Point {
	if !q.boundary.Intersects(b) {
		return points
	}
	slot := q.shared.registry.Acquire()
	if qPoints := hazard.Protect(slot, &q.points); qPoints != nil {
		points = qPoints.Points(points, b)
	}
	q.shared.registry.Release(slot)

	// a node being dispersed may already have pushed points into its children,
	// so always descend
	for i := range q.children {
		if child := q.children[i].Load(); child != nil {
			points = child.query(points, b)
		}
	}
	return points
}

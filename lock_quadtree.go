package quadtree

import (
	"sync"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// LockbasedQuadtree is a quadtree guarded by one mutex per node. Buckets are
// modified in place and there is no structural sharing.
type LockbasedQuadtree struct {
	points   *PointList
	children [4]*LockbasedQuadtree
	mutex    sync.RWMutex
	boundary BoundingBox
	capacity int
}

var (
	_ Quadtree = (*LockbasedQuadtree)(nil)
	_ Walker   = (*LockbasedQuadtree)(nil)
)

func NewLockBased(boundingBox BoundingBox, capacity int) *LockbasedQuadtree {
	capacity = adjustCapacity(capacity)
	return &LockbasedQuadtree{boundary: boundingBox, capacity: capacity, points: NewPointList(capacity)}
}

func (q *LockbasedQuadtree) Boundary() BoundingBox {
	return q.boundary
}

func (q *LockbasedQuadtree) Nw() *LockbasedQuadtree { return q.child(nw) }
func (q *LockbasedQuadtree) Ne() *LockbasedQuadtree { return q.child(ne) }
func (q *LockbasedQuadtree) Se() *LockbasedQuadtree { return q.child(se) }
func (q *LockbasedQuadtree) Sw() *LockbasedQuadtree { return q.child(sw) }

func (q *LockbasedQuadtree) child(i int) *LockbasedQuadtree {
	q.mutex.RLock()
	defer q.mutex.RUnlock()
	return q.children[i]
}

func (q *LockbasedQuadtree) Insert(p Point) bool {
	// if the quadtree were changed to allow changing the Boundary, this would no longer be threadsafe.
	if !q.boundary.Contains(p) {
		return false
	}

	q.mutex.Lock()
	if q.points != nil {
		if !q.points.Full() {
			q.points.First = NewPointListNode(p, q.points.First)
			q.points.Length++
			q.mutex.Unlock()
			return true
		}
		q.subdivide()
	}
	// children never change once the bucket is gone
	children := q.children
	q.mutex.Unlock()

	for _, child := range children {
		if child.boundary.Contains(p) {
			return child.Insert(p)
		}
	}
	log.Error("no quadrant accepted point", zap.Stringer("point", p), zap.Stringer("boundary", q.boundary))
	return false
}

func (q *LockbasedQuadtree) Query(b BoundingBox) []Point {
	return q.query(nil, b)
}

func (q *LockbasedQuadtree) query(points []Point, b BoundingBox) []Point {
	if !q.boundary.Intersects(b) {
		return points
	}
	q.mutex.RLock()
	defer q.mutex.RUnlock()
	if q.points != nil {
		return q.points.Points(points, b)
	}
	for _, child := range q.children {
		points = child.query(points, b)
	}
	return points
}

func (q *LockbasedQuadtree) Walk(fn WalkFunc) {
	q.walk(0, fn)
}

func (q *LockbasedQuadtree) walk(depth int, fn WalkFunc) {
	q.mutex.RLock()
	leaf, children := q.points != nil, q.children
	q.mutex.RUnlock()
	fn(depth, q.boundary, leaf)
	if leaf {
		return
	}
	for _, child := range children {
		child.walk(depth+1, fn)
	}
}

// helper function of Insert()
// subdivides the tree into quadrants.
// The caller must hold the write lock.
func (q *LockbasedQuadtree) subdivide() {
	quadrants := q.boundary.Quadrants()
	capacity := childCapacity(q.capacity, quadrants[nw].HalfDimension)
	for i, b := range quadrants {
		q.children[i] = &LockbasedQuadtree{boundary: b, capacity: capacity, points: NewPointList(capacity)}
	}
	q.disperse()
	lockSubdivides.Inc()
}

func (q *LockbasedQuadtree) disperse() {
	for q.points.First != nil {
		p := q.points.First.Point
		q.points.First = q.points.First.Next
		q.points.Length--
		if !q.insertChild(p) {
			err := ErrNoQuadrant.GenWithStackByArgs(q.boundary, p)
			log.Error("disperse lost a point", zap.Stringer("point", p), zap.Error(err))
			panic(err)
		}
	}
	q.points = nil
}

func (q *LockbasedQuadtree) insertChild(p Point) bool {
	for _, child := range q.children {
		if child.boundary.Contains(p) {
			return child.Insert(p)
		}
	}
	return false
}

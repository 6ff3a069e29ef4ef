package quadtree

// PointListNode is one element of a bucket's point list. Nodes are immutable
// once reachable from a published PointList, and successive lists share
// their tails: pushing a point links the new node in front of the old First.
type PointListNode struct {
	Point
	Next *PointListNode
}

func NewPointListNode(point Point, next *PointListNode) *PointListNode {
	return &PointListNode{
		Point: point,
		Next:  next,
	}
}

// PointList is the header of a leaf's bucket. A published header is never
// written; every change installs a new header with compare and swap and
// retires the old one.
type PointList struct {
	First    *PointListNode
	Capacity int
	Length   int // this is a cache for speed; it could be calculated from the PointsList
}

func NewPointList(capacity int) *PointList {
	return &PointList{
		First:    nil,
		Capacity: capacity,
	}
}

// Full reports whether the list can not take another point.
func (l *PointList) Full() bool {
	return l.Length >= l.Capacity
}

// Points appends every point in the list that b contains to dst.
func (l *PointList) Points(dst []Point, b BoundingBox) []Point {
	for node := l.First; node != nil; node = node.Next {
		if b.Contains(node.Point) {
			dst = append(dst, node.Point)
		}
	}
	return dst
}

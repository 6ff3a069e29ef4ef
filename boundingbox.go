package quadtree

import (
	"fmt"
)

// BoundingBox is an axis-aligned rectangle given by its center and its
// half width and half height.
//
// Contains is inclusive on every edge while Intersects is strict, so a point
// on an edge shared by two sibling quadrants may be stored in either of
// them, but a query box that only touches a quadrant along that edge does
// not visit it.
type BoundingBox struct {
	Center        Point
	HalfDimension Point
}

func (b BoundingBox) Contains(p Point) bool {
	return p.X >= b.Center.X-b.HalfDimension.X &&
		p.X <= b.Center.X+b.HalfDimension.X &&
		p.Y >= b.Center.Y-b.HalfDimension.Y &&
		p.Y <= b.Center.Y+b.HalfDimension.Y
}

func (b BoundingBox) Intersects(other BoundingBox) bool {
	return b.Center.X+b.HalfDimension.X > other.Center.X-other.HalfDimension.X &&
		b.Center.X-b.HalfDimension.X < other.Center.X+other.HalfDimension.X &&
		b.Center.Y+b.HalfDimension.Y > other.Center.Y-other.HalfDimension.Y &&
		b.Center.Y-b.HalfDimension.Y < other.Center.Y+other.HalfDimension.Y
}

// Quadrants returns the four quarters of b in child order: northwest,
// northeast, southeast, southwest. Y grows southward.
func (b BoundingBox) Quadrants() [4]BoundingBox {
	half := Point{b.HalfDimension.X / 2.0, b.HalfDimension.Y / 2.0}
	return [4]BoundingBox{
		nw: {Point{b.Center.X - half.X, b.Center.Y - half.Y}, half},
		ne: {Point{b.Center.X + half.X, b.Center.Y - half.Y}, half},
		se: {Point{b.Center.X + half.X, b.Center.Y + half.Y}, half},
		sw: {Point{b.Center.X - half.X, b.Center.Y + half.Y}, half},
	}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("{center: %v, half: %v}", b.Center, b.HalfDimension)
}

// child slot indexes, in the order children are created and tried.
const (
	nw = iota
	ne
	se
	sw
)

// minHalfDimension is the smallest quadrant half extent that is still
// subdivided with a bounded capacity. Below it children accept any number of
// points, which stops subdivision at the limits of float precision.
const minHalfDimension = 1e-6

// unboundedCapacity is the capacity of nodes that may never subdivide.
const unboundedCapacity = int(^uint(0) >> 1)

// childCapacity returns the capacity of the children of a node with the given
// capacity whose children have the given half dimension.
func childCapacity(capacity int, childHalf Point) int {
	if childHalf.X < minHalfDimension || childHalf.Y < minHalfDimension {
		return unboundedCapacity
	}
	return capacity
}

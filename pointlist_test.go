package quadtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPointListSharesTail(t *testing.T) {
	re := require.New(t)
	l1 := NewPointList(2)
	re.False(l1.Full())

	l2 := &PointList{First: NewPointListNode(Point{1, 1}, l1.First), Capacity: 2, Length: 1}
	l3 := &PointList{First: NewPointListNode(Point{2, 2}, l2.First), Capacity: 2, Length: 2}
	re.Same(l2.First, l3.First.Next)
	re.True(l3.Full())

	around := BoundingBox{Point{0, 0}, Point{5, 5}}
	re.Equal([]Point{{2, 2}, {1, 1}}, l3.Points(nil, around))
	re.Equal([]Point{{1, 1}}, l2.Points(nil, around))
	re.Empty(l3.Points(nil, testBoundary))
	re.Equal([]Point{{1, 1}}, l3.Points(nil, BoundingBox{Point{1, 1}, Point{0, 0}}))
}

func TestBoundingBox(t *testing.T) {
	re := require.New(t)
	b := BoundingBox{Point{0, 0}, Point{1, 1}}
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{0, 0}, true},
		{Point{1, 1}, true},
		{Point{-1, 1}, true},
		{Point{1.0000001, 0}, false},
		{Point{0, -1.5}, false},
	}
	for _, tt := range tests {
		re.Equal(tt.want, b.Contains(tt.p), "Contains(%v)", tt.p)
	}

	re.True(b.Intersects(BoundingBox{Point{1.5, 0}, Point{1, 1}}))
	re.False(b.Intersects(BoundingBox{Point{2, 0}, Point{1, 1}}))
	re.False(b.Intersects(BoundingBox{Point{2, 2}, Point{1, 1}}))
	re.Equal("[1.5,-2]", Point{1.5, -2}.String())
}

func TestChildCapacity(t *testing.T) {
	re := require.New(t)
	re.Equal(4, childCapacity(4, Point{1e-6, 1}))
	re.Equal(unboundedCapacity, childCapacity(4, Point{1, 5e-7}))
	re.Equal(unboundedCapacity, childCapacity(4, Point{5e-7, 1}))
}

package hazard

import (
	"unsafe"

	"golang.org/x/exp/slices"
)

type retiredPair[H, N any] struct {
	header *H
	node   *N
}

// Local holds the objects one goroutine has unlinked but not yet reused. It
// is not safe for concurrent use; each goroutine owns its own Local.
//
// Headers are retired either alone, when the replacing header still shares
// every node, or together with the node that was dropped from the front of
// the list. The pair is keyed by the header: a reader can only reach the
// node through a header it has hazarded.
type Local[H, N any] struct {
	registry   *Registry
	headers    []*H
	pairs      []retiredPair[H, N]
	freeHeader func(*H)
	freeNode   func(*N)
}

// NewLocal creates retirement lists reclaimed against r. freeHeader and
// freeNode are called for objects that are no longer hazarded; either may
// be nil, in which case the object is simply dropped.
func NewLocal[H, N any](r *Registry, freeHeader func(*H), freeNode func(*N)) *Local[H, N] {
	return &Local[H, N]{
		registry:   r,
		freeHeader: freeHeader,
		freeNode:   freeNode,
	}
}

// Retire adds a header whose nodes are all still shared.
func (l *Local[H, N]) Retire(h *H) {
	l.headers = append(l.headers, h)
}

// RetireWithNode adds a header along with the node it alone referenced.
func (l *Local[H, N]) RetireWithNode(h *H, n *N) {
	l.pairs = append(l.pairs, retiredPair[H, N]{header: h, node: n})
}

// Empty reports whether nothing is waiting to be reclaimed.
func (l *Local[H, N]) Empty() bool {
	return len(l.headers) == 0 && len(l.pairs) == 0
}

// Pending returns the number of retired headers not yet reclaimed.
func (l *Local[H, N]) Pending() int {
	return len(l.headers) + len(l.pairs)
}

// Collect frees every retired object that no slot currently publishes and
// keeps the rest for a later attempt. It returns the number of headers and
// nodes freed.
func (l *Local[H, N]) Collect() (headers, nodes int) {
	if l.Empty() {
		return 0, 0
	}
	hazards := l.registry.Snapshot()

	keptHeaders := l.headers[:0]
	for _, h := range l.headers {
		if isHazard(hazards, unsafe.Pointer(h)) {
			keptHeaders = append(keptHeaders, h)
			continue
		}
		if l.freeHeader != nil {
			l.freeHeader(h)
		}
		headers++
	}
	clear(l.headers[len(keptHeaders):])
	l.headers = keptHeaders

	keptPairs := l.pairs[:0]
	for _, pair := range l.pairs {
		if isHazard(hazards, unsafe.Pointer(pair.header)) {
			keptPairs = append(keptPairs, pair)
			continue
		}
		if l.freeNode != nil {
			l.freeNode(pair.node)
		}
		nodes++
		if l.freeHeader != nil {
			l.freeHeader(pair.header)
		}
		headers++
	}
	clear(l.pairs[len(keptPairs):])
	l.pairs = keptPairs
	return headers, nodes
}

func isHazard(hazards []uintptr, p unsafe.Pointer) bool {
	_, found := slices.BinarySearch(hazards, uintptr(p))
	return found
}

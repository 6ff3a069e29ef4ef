// Package hazard implements hazard pointers for the lock-free quadtree.
//
// A reader acquires a Slot, publishes the address it is about to dereference
// into it, and releases the slot when done. A writer that has unlinked an
// object hands it to its Local retirement lists, and only reuses it once a
// Snapshot of the registry shows that no slot publishes it.
package hazard

import (
	"sync/atomic"
	"unsafe"

	atomicutil "go.uber.org/atomic"
	"golang.org/x/exp/slices"
)

// Slot is a single published hazard. Slots are never freed; a released slot
// is reused by the next Acquire that finds it inactive.
type Slot struct {
	published unsafe.Pointer
	active    atomicutil.Bool
	next      *Slot
}

// Publish announces that p is about to be dereferenced.
func (s *Slot) Publish(p unsafe.Pointer) {
	atomic.StorePointer(&s.published, p)
}

// Published returns the currently published address, or nil.
func (s *Slot) Published() unsafe.Pointer {
	return atomic.LoadPointer(&s.published)
}

// Registry is a grow-only lock-free list of slots, shared by every goroutine
// operating on one tree.
type Registry struct {
	head   atomic.Pointer[Slot]
	slots  atomicutil.Int64
	onGrow func()
}

// NewRegistry creates an empty registry. onGrow, if not nil, is called each
// time a new slot is allocated.
func NewRegistry(onGrow func()) *Registry {
	return &Registry{onGrow: onGrow}
}

// Acquire returns a slot owned by the caller until Release. It never fails:
// when every slot is active a new one is pushed onto the list.
func (r *Registry) Acquire() *Slot {
	for s := r.head.Load(); s != nil; s = s.next {
		if s.active.Load() {
			continue
		}
		// test and set; losing means another goroutine took it first
		if !s.active.Swap(true) {
			return s
		}
	}

	s := &Slot{}
	s.active.Store(true)
	for {
		head := r.head.Load()
		s.next = head
		if r.head.CompareAndSwap(head, s) {
			break
		}
	}
	r.slots.Inc()
	if r.onGrow != nil {
		r.onGrow()
	}
	return s
}

// Release clears the slot's hazard, then marks it free for reuse. The hazard
// must be cleared first so a reused slot never carries a stale address.
func (r *Registry) Release(s *Slot) {
	s.Publish(nil)
	s.active.Store(false)
}

// Snapshot returns every currently published address, sorted ascending.
func (r *Registry) Snapshot() []uintptr {
	var hazards []uintptr
	for s := r.head.Load(); s != nil; s = s.next {
		if p := s.Published(); p != nil {
			hazards = append(hazards, uintptr(p))
		}
	}
	slices.Sort(hazards)
	return hazards
}

// Len returns the number of slots ever allocated.
func (r *Registry) Len() int64 {
	return r.slots.Load()
}

// Protect publishes the current value of src into s and returns it. The
// value is loaded again after publishing and the loop repeats until both
// loads agree, so the returned pointer was reachable from src while already
// hazarded and can be dereferenced until s is released or republished.
func Protect[T any](s *Slot, src *atomic.Pointer[T]) *T {
	p := src.Load()
	for {
		s.Publish(unsafe.Pointer(p))
		current := src.Load()
		if current == p {
			return p
		}
		p = current
	}
}

package stack

import (
	"sync/atomic"
	"unsafe"
)

// DefaultMaxThreads is the slot capacity of the registry a stack
// creates for itself when none is supplied.
const DefaultMaxThreads = 128

// hazardSlot is one hazard pointer. claimed marks the slot as held by some
// goroutine, ptr is the node that goroutine is about to read. The
// padding keeps neighbouring slots off the same cache line.
type hazardSlot struct {
	claimed uint32
	ptr     unsafe.Pointer
	_       [52]byte
}

// Registry is a fixed-size set of hazard pointer slots shared by every
// goroutine operating on the stacks that use it. A node may be
// recycled only once no slot in the registry holds its address.
//
// A Registry may be shared by several stacks, in which case its
// capacity bounds the number of simultaneously popping goroutines
// across all of them.
type Registry struct {
	slots []hazardSlot
}

// NewRegistry returns a registry with capacity hazard slots. A
// capacity below one falls back to DefaultMaxThreads.
func NewRegistry(capacity int) *Registry {
	if capacity < 1 {
		capacity = DefaultMaxThreads
	}
	return &Registry{slots: make([]hazardSlot, capacity)}
}

// Capacity returns the number of slots, the popper budget.
func (r *Registry) Capacity() int {
	return len(r.slots)
}

// acquire claims a free slot and returns its index. Running out of
// slots means more concurrent poppers than the registry was sized
// for, a configuration error no retry can fix.
func (r *Registry) acquire() int {
	for i := range r.slots {
		if atomic.CompareAndSwapUint32(&r.slots[i].claimed, 0, 1) {
			return i
		}
	}
	panic("stack: hazard pointer registry exhausted, size it for the number of concurrent poppers")
}

// release returns slot i to the free pool, dropping any protection it
// still holds.
func (r *Registry) release(i int) {
	atomic.StorePointer(&r.slots[i].ptr, nil)
	atomic.StoreUint32(&r.slots[i].claimed, 0)
}

// protect publishes p in slot i. Callers must protect a node before
// dereferencing it and re-validate that it is still reachable
// afterwards.
func (r *Registry) protect(i int, p unsafe.Pointer) {
	atomic.StorePointer(&r.slots[i].ptr, p)
}

// clear empties slot i once the caller is done with the node.
func (r *Registry) clear(i int) {
	atomic.StorePointer(&r.slots[i].ptr, nil)
}

// protected reports whether any slot currently holds p. Linear in the
// registry capacity.
func (r *Registry) protected(p unsafe.Pointer) bool {
	for i := range r.slots {
		if atomic.LoadPointer(&r.slots[i].ptr) == p {
			return true
		}
	}
	return false
}

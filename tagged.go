package stack

import (
	"sync/atomic"
	"unsafe"
)

// tagged is one immutable state of the stack head: the top node plus a
// version tag. The head field holds a *tagged box; every successful
// mutation installs a freshly allocated box carrying tag+1. A CAS by a
// goroutine still holding a stale box therefore fails even when the
// top node's address has been recycled through the node pool in the
// meantime (the ABA case).
type tagged[T any] struct {
	top *node[T]
	tag uint64
}

// fields reads a loaded head box. A nil box is the empty stack (nil, 0).
func (t *tagged[T]) fields() (*node[T], uint64) {
	if t == nil {
		return nil, 0
	}
	return t.top, t.tag
}

// equal reports whether two head states match in both pointer and tag.
func (t *tagged[T]) equal(o *tagged[T]) bool {
	tp, tt := t.fields()
	op, ot := o.fields()
	return tp == op && tt == ot
}

func cas(p *unsafe.Pointer, old, new unsafe.Pointer) bool {
	return atomic.CompareAndSwapPointer(p, old, new)
}

// Package stack provides a lock-free concurrent FILO stack whose
// popped nodes are recycled through a pool once a hazard pointer scan
// shows no goroutine can still be reading them.
package stack

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// Stack interface
type Stack[T any] interface {
	Interface[T]

	// Top only returns the element at the top of the Stack.
	// It returns false if the Stack is empty.
	Top() (value T, ok bool)
}

// Interface stack base interface
type Interface[T any] interface {
	// Push adds value at the head of the Stack.
	Push(value T) bool

	// Pop removes and returns the element at the head of the Stack.
	// It returns false if the Stack is empty.
	Pop() (value T, ok bool)
}

// New returns an empty LockFree stack with a private registry of
// DefaultMaxThreads hazard slots.
func New[T any]() Stack[T] {
	return NewWithRegistry[T](NewRegistry(DefaultMaxThreads))
}

// NewWithRegistry returns an empty LockFree stack whose poppers claim
// hazard slots from reg.
func NewWithRegistry[T any](reg *Registry) Stack[T] {
	return &LockFree[T]{reg: unsafe.Pointer(reg)}
}

// LockFree is a concurrent FILO stack that never takes a lock. The
// head is a tagged pointer so a delayed CAS cannot succeed against a
// recycled node address, and poppers publish the node they are about
// to read in a hazard slot so no sweep recycles it under them.
//
// The zero value is an empty stack using a registry of
// DefaultMaxThreads slots.
type LockFree[T any] struct {
	// head points to the current tagged state, nil until first use.
	head unsafe.Pointer // *tagged[T]
	len  uint32
	reg  unsafe.Pointer // *Registry
	rls  unsafe.Pointer // *retireSet[T]
	pool sync.Pool      // *node[T]
}

type node[T any] struct {
	value T
	next  unsafe.Pointer // *node[T]
}

// retireSet carries one retirement list per registry slot.
type retireSet[T any] struct {
	lists []retireList[T]
}

func (s *LockFree[T]) registry() *Registry {
	r := (*Registry)(atomic.LoadPointer(&s.reg))
	if r == nil {
		r = NewRegistry(DefaultMaxThreads)
		if !cas(&s.reg, nil, unsafe.Pointer(r)) {
			r = (*Registry)(atomic.LoadPointer(&s.reg))
		}
	}
	return r
}

func (s *LockFree[T]) retireSets() *retireSet[T] {
	rs := (*retireSet[T])(atomic.LoadPointer(&s.rls))
	if rs == nil {
		rs = &retireSet[T]{lists: make([]retireList[T], s.registry().Capacity())}
		if !cas(&s.rls, nil, unsafe.Pointer(rs)) {
			rs = (*retireSet[T])(atomic.LoadPointer(&s.rls))
		}
	}
	return rs
}

func (s *LockFree[T]) newNode(val T) *node[T] {
	n, _ := s.pool.Get().(*node[T])
	if n == nil {
		n = new(node[T])
	}
	n.value = val
	return n
}

// freeNode recycles n. The caller must have established that no
// hazard slot holds n.
func (s *LockFree[T]) freeNode(n *node[T]) {
	var zero T
	n.value = zero
	n.next = nil
	s.pool.Put(n)
}

// Push puts the given value at the top of the stack.
func (s *LockFree[T]) Push(val T) bool {
	slot := s.newNode(val)
	for {
		old := (*tagged[T])(atomic.LoadPointer(&s.head))
		top, tag := old.fields()
		slot.next = unsafe.Pointer(top)
		if cas(&s.head, unsafe.Pointer(old), unsafe.Pointer(&tagged[T]{top: slot, tag: tag + 1})) {
			atomic.AddUint32(&s.len, 1)
			return true
		}
	}
}

// Pop removes and returns the value at the top of the stack.
// It returns false if the stack is empty.
func (s *LockFree[T]) Pop() (val T, ok bool) {
	reg := s.registry()
	id := reg.acquire()
	defer reg.release(id)
	for {
		old := (*tagged[T])(atomic.LoadPointer(&s.head))
		top, tag := old.fields()
		if top == nil {
			reg.clear(id)
			return
		}
		// Publish the candidate before reading it, then check the head
		// still points at it. Between the first load and the
		// publication another popper may already have retired the node.
		reg.protect(id, unsafe.Pointer(top))
		cur := (*tagged[T])(atomic.LoadPointer(&s.head))
		if cur == nil || cur.top != top {
			continue
		}
		next := atomic.LoadPointer(&top.next)
		if cas(&s.head, unsafe.Pointer(old), unsafe.Pointer(&tagged[T]{top: (*node[T])(next), tag: tag + 1})) {
			atomic.AddUint32(&s.len, ^uint32(0))
			val = top.value
			reg.clear(id)
			s.retire(&s.retireSets().lists[id], top)
			return val, true
		}
	}
}

// Top only returns the value at the top of the stack.
// It returns false if the stack is empty.
func (s *LockFree[T]) Top() (val T, ok bool) {
	reg := s.registry()
	id := reg.acquire()
	defer reg.release(id)
	for {
		old := (*tagged[T])(atomic.LoadPointer(&s.head))
		top, _ := old.fields()
		if top == nil {
			reg.clear(id)
			return
		}
		reg.protect(id, unsafe.Pointer(top))
		cur := (*tagged[T])(atomic.LoadPointer(&s.head))
		if cur == nil || cur.top != top {
			continue
		}
		val = top.value
		reg.clear(id)
		return val, true
	}
}

// Size stack element's number.
func (s *LockFree[T]) Size() int {
	return int(atomic.LoadUint32(&s.len))
}

// Empty reports whether the stack holds no elements.
func (s *LockFree[T]) Empty() bool {
	return atomic.LoadUint32(&s.len) == 0
}

// Init empties the stack and returns every node, including the ones
// parked in retirement lists, to the pool. It must not be called
// while other goroutines use the stack.
func (s *LockFree[T]) Init() {
	for {
		if _, ok := s.Pop(); !ok {
			break
		}
	}
	rs := s.retireSets()
	for i := range rs.lists {
		s.sweepList(&rs.lists[i], true)
	}
}

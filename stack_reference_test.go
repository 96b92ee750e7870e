package stack_test

import (
	"sync"
)

// Interface use in stack testing
type Interface[T any] interface {
	Push(T) bool
	Pop() (T, bool)
	Top() (T, bool)
	Size() int
	Empty() bool
}

// 单锁无限制链表栈
type SLStack[T any] struct {
	mu sync.Mutex

	len int
	top *listNode[T]
}

func (s *SLStack[T]) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.len == 0
}

func (s *SLStack[T]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.len
}

func (s *SLStack[T]) Push(val T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.top = &listNode[T]{p: val, next: s.top}
	s.len++
	return true
}

func (s *SLStack[T]) Top() (val T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.top == nil {
		return
	}
	return s.top.p, true
}

func (s *SLStack[T]) Pop() (val T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.top == nil {
		return
	}
	slot := s.top
	s.top = slot.next
	s.len--
	val = slot.p
	slot.free()
	return val, true
}

// 链表节点
type listNode[T any] struct {
	p    T
	next *listNode[T]
}

func (n *listNode[T]) free() {
	var zero T
	n.p = zero
	n.next = nil
}

package stack

import "unsafe"

// retireThreshold is how many nodes a retirement list accumulates
// before a sweep is attempted.
const retireThreshold = 10

// retiredNode wraps a popped node awaiting reclamation.
type retiredNode[T any] struct {
	node *node[T]
	next *retiredNode[T]
}

// retireList holds nodes unlinked from the stack but not yet returned
// to its pool. The list for slot i is owned by whichever goroutine
// currently holds slot i, so the list itself needs no synchronization;
// only the registry scan during a sweep crosses goroutines.
type retireList[T any] struct {
	head  *retiredNode[T]
	count int
}

// retire hands l a node unlinked by a winning pop CAS. Once the list
// grows to the threshold, entries no longer protected are reclaimed.
func (s *LockFree[T]) retire(l *retireList[T], n *node[T]) {
	l.head = &retiredNode[T]{node: n, next: l.head}
	l.count++
	if l.count >= retireThreshold {
		s.sweepList(l, false)
	}
}

// sweepList returns every entry of l that no hazard slot protects to
// the node pool. Entries still protected stay for a later sweep.
// force skips the protection check and is only valid when no other
// goroutine can be touching the stack.
func (s *LockFree[T]) sweepList(l *retireList[T], force bool) {
	reg := s.registry()
	var prev *retiredNode[T]
	cur := l.head
	for cur != nil {
		if force || !reg.protected(unsafe.Pointer(cur.node)) {
			if prev == nil {
				l.head = cur.next
			} else {
				prev.next = cur.next
			}
			s.freeNode(cur.node)
			l.count--
			cur = cur.next
		} else {
			prev = cur
			cur = cur.next
		}
	}
}

// Package nodelist implements List, a small-list container tuned for the
// zero-or-one element case that dominates dependency and subscriber edges.
package nodelist

import (
	"fmt"
	"iter"
	"slices"
)

type kind uint8

const (
	empty kind = iota
	single
	many
)

// List is an unordered collection specialised for 0, 1 or few elements.
//
// A single element is stored inline without allocation. From the second
// element on, the elements live in a heap vector referenced by one pointer.
// RemoveFirst swaps the last element into the hole, so order is only
// preserved while no element has been removed that way. DeleteFirst keeps
// the order.
//
// The zero List is empty and ready to use. Lists must not be copied; use
// Clone.
type List[T comparable] struct {
	kind kind
	one  T
	vec  *[]T
}

// Len returns the number of elements.
func (l *List[T]) Len() int {
	switch l.kind {
	case single:
		return 1
	case many:
		return len(*l.vec)
	}
	return 0
}

// IsEmpty reports whether the list has no elements.
func (l *List[T]) IsEmpty() bool {
	return l.kind == empty
}

// Push appends v.
func (l *List[T]) Push(v T) {
	switch l.kind {
	case empty:
		l.one = v
		l.kind = single
	case single:
		vec := make([]T, 2, 4)
		vec[0], vec[1] = l.one, v
		var zero T
		l.one = zero
		l.vec = &vec
		l.kind = many
	case many:
		*l.vec = append(*l.vec, v)
	}
}

// RemoveFirst removes the first element equal to v and reports whether one
// was found. The last element takes the removed one's place.
func (l *List[T]) RemoveFirst(v T) bool {
	return l.remove(v, false)
}

// DeleteFirst is RemoveFirst keeping the remaining elements in order. It
// costs a shift of the tail.
func (l *List[T]) DeleteFirst(v T) bool {
	return l.remove(v, true)
}

func (l *List[T]) remove(v T, stable bool) bool {
	switch l.kind {
	case single:
		if l.one != v {
			return false
		}
		l.Clear()
		return true
	case many:
		vec := *l.vec
		i := slices.Index(vec, v)
		if i < 0 {
			return false
		}
		last := len(vec) - 1
		if stable {
			copy(vec[i:], vec[i+1:])
		} else {
			vec[i] = vec[last]
		}
		var zero T
		vec[last] = zero
		vec = vec[:last]
		switch len(vec) {
		case 0:
			l.Clear()
		case 1:
			l.one = vec[0]
			l.vec = nil
			l.kind = single
		default:
			*l.vec = vec
		}
		return true
	}
	return false
}

// RemoveFunc removes the first element for which match returns true.
func (l *List[T]) RemoveFunc(match func(T) bool) (T, bool) {
	var found T
	ok := false
	for v := range l.All() {
		if match(v) {
			found, ok = v, true
			break
		}
	}
	if ok {
		l.RemoveFirst(found)
	}
	return found, ok
}

// Contains reports whether v is in the list.
func (l *List[T]) Contains(v T) bool {
	switch l.kind {
	case single:
		return l.one == v
	case many:
		return slices.Contains(*l.vec, v)
	}
	return false
}

// At returns the i-th element. It panics if i is out of range.
func (l *List[T]) At(i int) T {
	switch l.kind {
	case single:
		if i == 0 {
			return l.one
		}
	case many:
		return (*l.vec)[i]
	}
	panic(fmt.Sprintf("nodelist: index %d out of range [0:%d]", i, l.Len()))
}

// All returns an iterator over the elements.
// The list must not be modified during iteration.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		switch l.kind {
		case single:
			yield(l.one)
		case many:
			for _, v := range *l.vec {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Backward iterates from the last element to the first.
func (l *List[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		switch l.kind {
		case single:
			yield(l.one)
		case many:
			vec := *l.vec
			for i := len(vec) - 1; i >= 0; i-- {
				if !yield(vec[i]) {
					return
				}
			}
		}
	}
}

// ForEach calls fn for every element.
func (l *List[T]) ForEach(fn func(T)) {
	for v := range l.All() {
		fn(v)
	}
}

// Slice copies the elements into a new slice.
func (l *List[T]) Slice() []T {
	switch l.kind {
	case single:
		return []T{l.one}
	case many:
		return slices.Clone(*l.vec)
	}
	return nil
}

// Clone returns an independent copy.
func (l *List[T]) Clone() List[T] {
	c := List[T]{kind: l.kind, one: l.one}
	if l.kind == many {
		vec := slices.Clone(*l.vec)
		c.vec = &vec
	}
	return c
}

// Take moves the contents into a new list and leaves l empty.
func (l *List[T]) Take() List[T] {
	taken := *l
	*l = List[T]{}
	return taken
}

// Clear removes all elements and releases the backing vector.
func (l *List[T]) Clear() {
	*l = List[T]{}
}

// String formats the list for diagnostics.
func (l *List[T]) String() string {
	return fmt.Sprint(l.Slice())
}

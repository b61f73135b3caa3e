package arena

import (
	"fmt"
	"math"
)

const (
	// ChunkBits determines the number of slots per chunk.
	// 7 bits = 128 slots per chunk.
	ChunkBits = 7
	ChunkSize = 1 << ChunkBits
	chunkMask = ChunkSize - 1

	// noFree terminates the inline free list.
	noFree = math.MaxUint32
)

// slot holds either a value (odd generation) or the index of the next free
// slot (even generation).
type slot[T any] struct {
	value      T
	nextFree   uint32
	generation uint32
}

func (s *slot[T]) occupied() bool {
	return s.generation%2 == 1
}

// chunk is a fixed block of slots. Chunks are never moved once allocated,
// so pointers returned by Get stay valid until the slot is removed.
type chunk[T any] struct {
	slots [ChunkSize]slot[T]
}

// Arena is a chunked generational slot allocator.
type Arena[T any] struct {
	chunks   []*chunk[T]
	freeHead uint32
	// high is the number of slots ever handed out (the growth watermark).
	high uint32
	live int
}

// New creates an empty Arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{freeHead: noFree}
}

// Len returns the number of occupied slots.
func (a *Arena[T]) Len() int {
	return a.live
}

// Cap returns the number of allocated slots across all chunks.
func (a *Arena[T]) Cap() int {
	return len(a.chunks) * ChunkSize
}

// Insert stores value in a free slot and returns its handle.
// Freed slots are reused before the arena grows.
func (a *Arena[T]) Insert(value T) Handle {
	if a.freeHead != noFree {
		idx := a.freeHead
		s := a.slotAt(idx)
		if s.occupied() {
			panic(fmt.Sprintf("arena: corrupted free list, slot %d is occupied", idx))
		}
		a.freeHead = s.nextFree
		s.nextFree = noFree
		s.value = value
		s.generation++
		a.live++
		return Handle{Index: idx, Generation: s.generation}
	}

	if a.high == noFree {
		panic("arena: slot index space exhausted")
	}
	idx := a.high
	if int(idx>>ChunkBits) >= len(a.chunks) {
		a.chunks = append(a.chunks, &chunk[T]{})
	}
	s := a.slotAt(idx)
	s.value = value
	s.nextFree = noFree
	s.generation++
	a.high++
	a.live++
	return Handle{Index: idx, Generation: s.generation}
}

// Get returns a pointer to the value stored under h.
// Returns false if h is stale or was never issued.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	s := a.lookup(h)
	if s == nil {
		return nil, false
	}
	return &s.value, true
}

// Contains reports whether h refers to a live slot.
func (a *Arena[T]) Contains(h Handle) bool {
	return a.lookup(h) != nil
}

// Remove frees the slot referenced by h.
// Returns false if h is stale; removing twice is a no-op.
func (a *Arena[T]) Remove(h Handle) bool {
	s := a.lookup(h)
	if s == nil {
		return false
	}
	var zero T
	s.value = zero
	s.generation++
	s.nextFree = a.freeHead
	a.freeHead = h.Index
	a.live--
	return true
}

// Range calls fn for every live slot in index order until fn returns false.
func (a *Arena[T]) Range(fn func(h Handle, v *T) bool) {
	for idx := uint32(0); idx < a.high; idx++ {
		s := a.slotAt(idx)
		if !s.occupied() {
			continue
		}
		if !fn(Handle{Index: idx, Generation: s.generation}, &s.value) {
			return
		}
	}
}

// lookup returns the occupied slot matching h, or nil.
func (a *Arena[T]) lookup(h Handle) *slot[T] {
	if h.Index >= a.high {
		return nil
	}
	s := a.slotAt(h.Index)
	if s.generation != h.Generation || !s.occupied() {
		return nil
	}
	return s
}

func (a *Arena[T]) slotAt(idx uint32) *slot[T] {
	return &a.chunks[idx>>ChunkBits].slots[idx&chunkMask]
}

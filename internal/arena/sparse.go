package arena

// sparseChunk is a block of optional cells.
type sparseChunk[T any] struct {
	cells [ChunkSize]sparseCell[T]
	used  int
}

type sparseCell[T any] struct {
	value T
	set   bool
}

// SparseMap is a secondary table keyed by Handle index.
//
// Chunks are allocated on first insert into their index range and released
// again once their last cell is removed, so aspects used by few nodes stay
// cheap. Generations are not checked.
type SparseMap[T any] struct {
	chunks []*sparseChunk[T]
	len    int
}

// NewSparseMap creates an empty SparseMap.
func NewSparseMap[T any]() *SparseMap[T] {
	return &SparseMap[T]{}
}

// Len returns the number of stored values.
func (m *SparseMap[T]) Len() int {
	return m.len
}

// Insert stores value for h, replacing any previous value.
func (m *SparseMap[T]) Insert(h Handle, value T) {
	ci := int(h.Index >> ChunkBits)
	if ci >= len(m.chunks) {
		grown := make([]*sparseChunk[T], ci+1)
		copy(grown, m.chunks)
		m.chunks = grown
	}
	c := m.chunks[ci]
	if c == nil {
		c = &sparseChunk[T]{}
		m.chunks[ci] = c
	}
	cell := &c.cells[h.Index&chunkMask]
	if !cell.set {
		cell.set = true
		c.used++
		m.len++
	}
	cell.value = value
}

// Get returns a pointer to the value stored for h.
func (m *SparseMap[T]) Get(h Handle) (*T, bool) {
	cell := m.cell(h)
	if cell == nil || !cell.set {
		return nil, false
	}
	return &cell.value, true
}

// Contains reports whether a value is stored for h.
func (m *SparseMap[T]) Contains(h Handle) bool {
	cell := m.cell(h)
	return cell != nil && cell.set
}

// GetOrInsert returns the value for h, inserting the result of init first
// if nothing is stored.
func (m *SparseMap[T]) GetOrInsert(h Handle, init func() T) *T {
	if v, ok := m.Get(h); ok {
		return v
	}
	m.Insert(h, init())
	v, _ := m.Get(h)
	return v
}

// Remove deletes and returns the value stored for h.
func (m *SparseMap[T]) Remove(h Handle) (T, bool) {
	var zero T
	ci := int(h.Index >> ChunkBits)
	if ci >= len(m.chunks) || m.chunks[ci] == nil {
		return zero, false
	}
	c := m.chunks[ci]
	cell := &c.cells[h.Index&chunkMask]
	if !cell.set {
		return zero, false
	}
	value := cell.value
	*cell = sparseCell[T]{}
	c.used--
	m.len--
	if c.used == 0 {
		m.chunks[ci] = nil
	}
	return value, true
}

func (m *SparseMap[T]) cell(h Handle) *sparseCell[T] {
	ci := int(h.Index >> ChunkBits)
	if ci >= len(m.chunks) || m.chunks[ci] == nil {
		return nil
	}
	return &m.chunks[ci].cells[h.Index&chunkMask]
}

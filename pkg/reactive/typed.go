package reactive

// Signal is a typed handle to a signal node.
//
// Example:
//
//	count := reactive.NewSignal(rt, 0)
//	rt.CreateEffect(func() { fmt.Println(count.Get()) })
//	count.Update(func(n int) int { return n + 1 })
type Signal[T any] struct {
	rt *Runtime
	id NodeID
}

// NewSignal creates a signal under the runtime's current owner.
func NewSignal[T any](rt *Runtime, value T) Signal[T] {
	return Signal[T]{rt: rt, id: CreateSignal(rt, value)}
}

// ID returns the underlying node.
func (s Signal[T]) ID() NodeID { return s.id }

// Get returns the value and tracks it. It panics if the signal is disposed.
func (s Signal[T]) Get() T { return Get[T](s.rt, s.id) }

// TryGet returns the value and tracks it, or false if the signal is disposed.
func (s Signal[T]) TryGet() (T, bool) { return TryGet[T](s.rt, s.id) }

// Peek returns the value without tracking.
func (s Signal[T]) Peek() T { return GetUntracked[T](s.rt, s.id) }

// Set stores value and notifies dependents if it differs from the current
// value.
func (s Signal[T]) Set(value T) {
	cur, ok := TryGetUntracked[T](s.rt, s.id)
	if ok && defaultEquals(cur, value) {
		return
	}
	Set(s.rt, s.id, value)
}

// Update replaces the value with fn(current) and notifies dependents if it
// changed.
func (s Signal[T]) Update(fn func(T) T) {
	cur, ok := TryGetUntracked[T](s.rt, s.id)
	if !ok {
		return
	}
	s.Set(fn(cur))
}

// Mutate changes the value in place and always notifies dependents.
func (s Signal[T]) Mutate(fn func(*T)) bool { return Update(s.rt, s.id, fn) }

// Notify marks the signal changed without modifying it.
func (s Signal[T]) Notify() { s.rt.NotifySignal(s.id) }

// WithName sets the signal's debug label.
func (s Signal[T]) WithName(name string) Signal[T] {
	s.rt.SetDebugLabel(s.id, name)
	return s
}

// Split returns read-only and write-only views of the signal.
func (s Signal[T]) Split() (ReadSignal[T], WriteSignal[T]) {
	return ReadSignal[T]{rt: s.rt, id: s.id}, WriteSignal[T]{s: s}
}

// ReadOnly returns a read-only view of the signal.
func (s Signal[T]) ReadOnly() ReadSignal[T] {
	return ReadSignal[T]{rt: s.rt, id: s.id}
}

// Dispose disposes the signal.
func (s Signal[T]) Dispose() { s.rt.Dispose(s.id) }

// ReadSignal is a read-only view of a signal or memo.
type ReadSignal[T any] struct {
	rt *Runtime
	id NodeID
}

// ID returns the underlying node.
func (r ReadSignal[T]) ID() NodeID { return r.id }

// Get returns the value and tracks it.
func (r ReadSignal[T]) Get() T { return Get[T](r.rt, r.id) }

// TryGet returns the value and tracks it, or false if the node is disposed.
func (r ReadSignal[T]) TryGet() (T, bool) { return TryGet[T](r.rt, r.id) }

// Peek returns the value without tracking.
func (r ReadSignal[T]) Peek() T { return GetUntracked[T](r.rt, r.id) }

// WriteSignal is a write-only view of a signal.
type WriteSignal[T any] struct {
	s Signal[T]
}

// ID returns the underlying node.
func (w WriteSignal[T]) ID() NodeID { return w.s.id }

// Set stores value and notifies dependents if it changed.
func (w WriteSignal[T]) Set(value T) { w.s.Set(value) }

// Update replaces the value with fn(current).
func (w WriteSignal[T]) Update(fn func(T) T) { w.s.Update(fn) }

// Mutate changes the value in place and always notifies dependents.
func (w WriteSignal[T]) Mutate(fn func(*T)) bool { return w.s.Mutate(fn) }

// Memo is a typed handle to a memo node.
type Memo[T any] struct {
	ReadSignal[T]
}

// NewMemo creates a memo comparing values with == (see CreateMemo for
// interface types).
func NewMemo[T comparable](rt *Runtime, fn func() T) Memo[T] {
	return Memo[T]{ReadSignal[T]{rt: rt, id: CreateMemo(rt, fn)}}
}

// NewDerived creates a memo for any value type.
func NewDerived[T any](rt *Runtime, fn func() T) Memo[T] {
	return Memo[T]{ReadSignal[T]{rt: rt, id: CreateDerived(rt, fn)}}
}

// NewSlice creates a memo projecting part of a signal's value.
func NewSlice[T any, U comparable](source ReadSignal[T], getter func(*T) U) Memo[U] {
	rt := source.rt
	return Memo[U]{ReadSignal[U]{rt: rt, id: Slice(rt, source.id, getter)}}
}

// WithName sets the memo's debug label.
func (m Memo[T]) WithName(name string) Memo[T] {
	m.rt.SetDebugLabel(m.id, name)
	return m
}

// Dispose disposes the memo.
func (m Memo[T]) Dispose() { m.rt.Dispose(m.id) }

// StoredValue is a typed handle to a non-reactive stored value.
type StoredValue[T any] struct {
	rt *Runtime
	id NodeID
}

// NewStoredValue stores value under the current owner.
func NewStoredValue[T any](rt *Runtime, value T) StoredValue[T] {
	return StoredValue[T]{rt: rt, id: StoreValue(rt, value)}
}

// ID returns the underlying node.
func (s StoredValue[T]) ID() NodeID { return s.id }

// Get returns the stored value.
func (s StoredValue[T]) Get() T {
	v, ok := GetStored[T](s.rt, s.id)
	if !ok {
		panic(expectCellError[T](s.rt, s.rt.stored, s.id))
	}
	return v
}

// TryGet returns the stored value, or false if it is gone.
func (s StoredValue[T]) TryGet() (T, bool) { return GetStored[T](s.rt, s.id) }

// Set replaces the stored value.
func (s StoredValue[T]) Set(value T) bool { return SetStored(s.rt, s.id, value) }

// Update mutates the stored value in place.
func (s StoredValue[T]) Update(fn func(*T)) bool { return UpdateStored(s.rt, s.id, fn) }

// Callback is a typed handle to a registered callback.
type Callback[A any] struct {
	rt *Runtime
	id NodeID
}

// NewCallback registers fn under the current owner.
func NewCallback[A any](rt *Runtime, fn func(A)) Callback[A] {
	return Callback[A]{rt: rt, id: RegisterCallback(rt, fn)}
}

// ID returns the underlying node.
func (c Callback[A]) ID() NodeID { return c.id }

// Call invokes the callback. It returns false if it was disposed.
func (c Callback[A]) Call(arg A) bool { return InvokeCallback(c.rt, c.id, arg) }

// NodeRef is a typed handle to an external-handle slot.
type NodeRef[T any] struct {
	rt *Runtime
	id NodeID
}

// NewNodeRef registers an empty node ref.
func NewNodeRef[T any](rt *Runtime) NodeRef[T] {
	return NodeRef[T]{rt: rt, id: RegisterNodeRef(rt)}
}

// ID returns the underlying node.
func (r NodeRef[T]) ID() NodeID { return r.id }

// Get returns the stored handle, or false while empty.
func (r NodeRef[T]) Get() (T, bool) { return GetNodeRef[T](r.rt, r.id) }

// Set stores the handle.
func (r NodeRef[T]) Set(value T) bool { return SetNodeRef(r.rt, r.id, value) }

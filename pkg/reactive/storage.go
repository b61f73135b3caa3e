package reactive

import (
	"reflect"

	"github.com/vango-dev/reactive/internal/anyval"
	"github.com/vango-dev/reactive/internal/arena"
)

// cellIn resolves a live node's cell in one of the non-reactive tables.
func (rt *Runtime) cellIn(table *arena.SparseMap[anyval.Cell], id NodeID) (*anyval.Cell, bool) {
	rt.checkGoroutine()
	if !rt.nodes.Contains(id) {
		return nil, false
	}
	return table.Get(id)
}

func loadCell[T any](rt *Runtime, id NodeID, c *anyval.Cell) (T, bool) {
	v, ok := anyval.Load[T](c)
	if !ok && c.IsSet() {
		rt.logTypeMismatch(id, reflect.TypeFor[T](), c.Type())
	}
	return v, ok
}

func expectCellError[T any](rt *Runtime, table *arena.SparseMap[anyval.Cell], id NodeID) error {
	if !rt.nodes.Contains(id) {
		return rt.staleHandleError(id)
	}
	var got reflect.Type
	if c, ok := table.Get(id); ok {
		got = c.Type()
	}
	return rt.typeMismatchError(id, reflect.TypeFor[T](), got)
}

// StoreValue registers a non-reactive value that shares the owner's
// lifetime. Reads and writes never track or notify.
func StoreValue[T any](rt *Runtime, value T) NodeID {
	id := rt.register(KindStoredValue)
	rt.stored.Insert(id, anyval.New(value))
	return id
}

// GetStored returns a copy of a stored value.
func GetStored[T any](rt *Runtime, id NodeID) (T, bool) {
	c, ok := rt.cellIn(rt.stored, id)
	if !ok {
		var zero T
		return zero, false
	}
	return loadCell[T](rt, id, c)
}

// SetStored replaces a stored value. The stored type may change.
func SetStored[T any](rt *Runtime, id NodeID, value T) bool {
	c, ok := rt.cellIn(rt.stored, id)
	if !ok {
		return false
	}
	anyval.Store(c, value)
	return true
}

// UpdateStored mutates a stored value in place.
func UpdateStored[T any](rt *Runtime, id NodeID, fn func(*T)) bool {
	c, ok := rt.cellIn(rt.stored, id)
	if !ok {
		return false
	}
	p, ok := anyval.Mut[T](c)
	if !ok {
		rt.logTypeMismatch(id, reflect.TypeFor[T](), c.Type())
		return false
	}
	fn(p)
	return true
}

// RegisterCallback registers fn under the current owner so event sources
// can hold a NodeID instead of a closure.
func RegisterCallback[A any](rt *Runtime, fn func(A)) NodeID {
	id := rt.register(KindCallback)
	rt.callbacks.Insert(id, anyval.New(fn))
	return id
}

// InvokeCallback calls a registered callback with arg, untracked. It returns
// false if the callback is gone or takes another argument type.
func InvokeCallback[A any](rt *Runtime, id NodeID, arg A) bool {
	c, ok := rt.cellIn(rt.callbacks, id)
	if !ok {
		return false
	}
	fn, ok := loadCell[func(A)](rt, id, c)
	if !ok || fn == nil {
		return false
	}
	rt.Untrack(func() { fn(arg) })
	return true
}

// RegisterNodeRef registers an empty slot for an external handle (for
// example a DOM element) that is filled in later with SetNodeRef.
func RegisterNodeRef(rt *Runtime) NodeID {
	id := rt.register(KindNodeRef)
	rt.nodeRefs.Insert(id, anyval.Cell{})
	return id
}

// GetNodeRef returns the external handle stored in a node ref. It returns
// false while the ref is empty.
func GetNodeRef[T any](rt *Runtime, id NodeID) (T, bool) {
	c, ok := rt.cellIn(rt.nodeRefs, id)
	if !ok {
		var zero T
		return zero, false
	}
	return loadCell[T](rt, id, c)
}

// SetNodeRef stores an external handle in a node ref.
func SetNodeRef[T any](rt *Runtime, id NodeID, value T) bool {
	c, ok := rt.cellIn(rt.nodeRefs, id)
	if !ok {
		return false
	}
	anyval.Store(c, value)
	return true
}

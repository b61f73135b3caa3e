// Package anyval provides Cell, a type-erased container with a per-type
// dispatch table.
package anyval

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// inlineWords is the number of machine words a value may occupy to be
// classified as inline.
const inlineWords = 3

// Dropper is implemented by values that hold resources which must be
// released when the cell holding them is dropped.
type Dropper interface {
	Drop()
}

// vtable is the dispatch table shared by every Cell holding the same
// concrete type.
type vtable struct {
	typ    reflect.Type
	inline bool
	drop   func(p unsafe.Pointer)
}

var vtables sync.Map // reflect.Type -> *vtable

func vtableFor[T any]() *vtable {
	typ := reflect.TypeFor[T]()
	if vt, ok := vtables.Load(typ); ok {
		return vt.(*vtable)
	}

	var zero T
	size := unsafe.Sizeof(zero)
	align := unsafe.Alignof(zero)
	word := unsafe.Sizeof(uintptr(0))

	vt := &vtable{
		typ:    typ,
		inline: size <= inlineWords*word && word%align == 0,
		drop:   dropFunc[T](),
	}
	actual, _ := vtables.LoadOrStore(typ, vt)
	return actual.(*vtable)
}

// dropFunc picks the drop hook for T. Types that implement Dropper on the
// value or on the pointer get their Drop method called; all other types are
// released by the garbage collector once the cell forgets them.
func dropFunc[T any]() func(p unsafe.Pointer) {
	var zero T
	if _, ok := any(zero).(Dropper); ok || reflect.TypeFor[T]().Kind() == reflect.Interface {
		// Interface types: the dynamic value decides.
		return func(p unsafe.Pointer) {
			if d, ok := any(*(*T)(p)).(Dropper); ok && !isNil(d) {
				d.Drop()
			}
		}
	}
	if _, ok := any(&zero).(Dropper); ok {
		return func(p unsafe.Pointer) {
			any((*T)(p)).(Dropper).Drop()
		}
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// sameRef reports whether a and b are the same non-nil reference, in which
// case replacing one with the other must not drop it.
func sameRef[T any](a, b *T) bool {
	ra, rb := reflect.ValueOf(a).Elem(), reflect.ValueOf(b).Elem()
	switch ra.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return !ra.IsNil() && ra.Pointer() == rb.Pointer()
	case reflect.Interface:
		if ra.IsNil() || rb.IsNil() {
			return false
		}
		ea, eb := ra.Elem(), rb.Elem()
		if ea.Type() != eb.Type() {
			return false
		}
		switch ea.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
			return ea.Pointer() == eb.Pointer()
		}
	}
	return false
}

// Cell holds a single value of any type behind one pointer.
//
// The zero Cell is empty. A Cell must not be copied after a value was
// stored in it if both copies are later dropped.
type Cell struct {
	vt  *vtable
	ptr unsafe.Pointer
}

// New returns a Cell holding v.
func New[T any](v T) Cell {
	p := new(T)
	*p = v
	return Cell{vt: vtableFor[T](), ptr: unsafe.Pointer(p)}
}

// IsSet reports whether the cell holds a value.
func (c *Cell) IsSet() bool {
	return c.vt != nil
}

// Type returns the dynamic type of the held value, or nil.
func (c *Cell) Type() reflect.Type {
	if c.vt == nil {
		return nil
	}
	return c.vt.typ
}

// Inline reports whether the held value fits in three machine words.
func (c *Cell) Inline() bool {
	return c.vt != nil && c.vt.inline
}

// Is reports whether the cell holds a T.
func Is[T any](c *Cell) bool {
	return c.vt != nil && c.vt.typ == reflect.TypeFor[T]()
}

// Ref returns a pointer to the held value for reading.
// It returns false if the cell is empty or holds another type.
func Ref[T any](c *Cell) (*T, bool) {
	if !Is[T](c) {
		return nil, false
	}
	return (*T)(c.ptr), true
}

// Mut returns a pointer to the held value for in-place mutation.
// It returns false if the cell is empty or holds another type.
func Mut[T any](c *Cell) (*T, bool) {
	return Ref[T](c)
}

// Load returns a copy of the held value.
func Load[T any](c *Cell) (T, bool) {
	p, ok := Ref[T](c)
	if !ok {
		var zero T
		return zero, false
	}
	return *p, true
}

// Store replaces the held value with v, dropping the previous value.
// A cell already holding a T is overwritten in place.
func Store[T any](c *Cell, v T) {
	if p, ok := Ref[T](c); ok {
		old := *p
		*p = v
		if c.vt.drop != nil && !sameRef(&old, &v) {
			c.vt.drop(unsafe.Pointer(&old))
		}
		return
	}
	c.Drop()
	*c = New(v)
}

// Drop runs the value's drop hook and empties the cell.
// Dropping an empty cell is a no-op.
func (c *Cell) Drop() {
	vt, p := c.vt, c.ptr
	c.vt, c.ptr = nil, nil
	if vt != nil && vt.drop != nil {
		vt.drop(p)
	}
}

// Any returns the held value boxed in an interface, or nil.
func (c *Cell) Any() any {
	if c.vt == nil {
		return nil
	}
	return reflect.NewAt(c.vt.typ, c.ptr).Elem().Interface()
}

// String formats the held value for diagnostics.
func (c *Cell) String() string {
	if c.vt == nil {
		return "<empty>"
	}
	return fmt.Sprintf("%v", c.Any())
}

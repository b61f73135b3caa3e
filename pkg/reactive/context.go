package reactive

import (
	"reflect"

	"github.com/vango-dev/reactive/internal/anyval"
)

// ProvideContext stores value on the current owner, keyed by its type.
// Descendants created under the owner can look it up with UseContext.
// Providing the same type twice on one owner replaces the value. Without a
// current owner ProvideContext does nothing and returns false.
func ProvideContext[T any](rt *Runtime, value T) bool {
	rt.checkGoroutine()
	if !rt.nodes.Contains(rt.owner) {
		return false
	}
	a := rt.auxOf(rt.owner)
	if a.context == nil {
		a.context = make(map[reflect.Type]anyval.Cell)
	}
	key := reflect.TypeFor[T]()
	if old, ok := a.context[key]; ok {
		old.Drop()
	}
	a.context[key] = anyval.New(value)
	return true
}

// UseContext returns the nearest value of type T provided by the current
// owner or one of its ancestors.
func UseContext[T any](rt *Runtime) (T, bool) {
	rt.checkGoroutine()
	key := reflect.TypeFor[T]()
	for id := rt.owner; !id.IsZero(); {
		n, ok := rt.nodes.Get(id)
		if !ok {
			break
		}
		if a, ok := rt.aux.Get(id); ok && a.context != nil {
			if c, ok := a.context[key]; ok {
				return anyval.Load[T](&c)
			}
		}
		id = n.parent
	}
	var zero T
	return zero, false
}

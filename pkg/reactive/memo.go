package reactive

import (
	"reflect"

	"github.com/vango-dev/reactive/internal/anyval"
)

// CreateMemo registers a derived value computed by fn. fn runs once
// immediately; afterwards the memo is re-evaluated when read after one of
// its dependencies changed. Dependents are only notified when the new value
// differs (==) from the previous one.
//
// When T is or contains an interface type, == would panic on dynamic
// slices, maps or funcs, so such memos compare with defaultEquals (see
// CreateDerived) instead.
func CreateMemo[T comparable](rt *Runtime, fn func() T) NodeID {
	return CreateMemoWith(rt, func(*T) T { return fn() }, comparableEquals[T]())
}

// comparableEquals returns == for T unless comparing two T values can panic.
func comparableEquals[T comparable]() func(a, b T) bool {
	if holdsInterface(reflect.TypeFor[T]()) {
		return defaultEquals[T]
	}
	return func(a, b T) bool { return a == b }
}

// holdsInterface reports whether values of t may carry an interface whose
// dynamic value is not comparable.
func holdsInterface(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Array:
		return holdsInterface(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if holdsInterface(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

// CreateDerived is CreateMemo for any type. Values are compared with ==
// for basic types and reflect.DeepEqual otherwise.
func CreateDerived[T any](rt *Runtime, fn func() T) NodeID {
	return CreateMemoWith(rt, func(*T) T { return fn() }, defaultEquals[T])
}

// CreateMemoWith is the general form of CreateMemo. fn receives the
// previous value (nil on the first run) and equal decides whether a new
// value counts as a change. A nil equal treats every run as a change.
func CreateMemoWith[T any](rt *Runtime, fn func(prev *T) T, equal func(a, b T) bool) NodeID {
	id := rt.register(KindMemo)
	rt.signals.Insert(id, signalData{})

	compute := func() {
		sd, ok := rt.signalOf(id)
		if !ok {
			return
		}
		var prev *T
		if p, ok := anyval.Ref[T](&sd.value); ok {
			old := *p
			prev = &old
		}

		next := fn(prev)

		sd, ok = rt.signalOf(id)
		if !ok {
			return
		}
		if prev != nil && equal != nil && equal(*prev, next) {
			return
		}
		anyval.Store(&sd.value, next)
		sd.version++
	}

	rt.effects.Insert(id, effectData{fn: compute, state: stateDirty, memo: true})
	rt.run(id)
	return id
}

// defaultEquals compares basic types with == and everything else with
// reflect.DeepEqual.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return equalAs(av, any(b))
	case int8:
		return equalAs(av, any(b))
	case int16:
		return equalAs(av, any(b))
	case int32:
		return equalAs(av, any(b))
	case int64:
		return equalAs(av, any(b))
	case uint:
		return equalAs(av, any(b))
	case uint8:
		return equalAs(av, any(b))
	case uint16:
		return equalAs(av, any(b))
	case uint32:
		return equalAs(av, any(b))
	case uint64:
		return equalAs(av, any(b))
	case float32:
		return equalAs(av, any(b))
	case float64:
		return equalAs(av, any(b))
	case string:
		return equalAs(av, any(b))
	case bool:
		return equalAs(av, any(b))
	default:
		return reflect.DeepEqual(a, b)
	}
}

// equalAs compares a with b when b holds the same dynamic type.
func equalAs[V comparable](a V, b any) bool {
	bv, ok := b.(V)
	return ok && a == bv
}

// Slice derives a memo that projects part of a signal's value through
// getter, reading the source by reference. Dependents of the slice only
// re-run when the projected part changes.
func Slice[T any, U comparable](rt *Runtime, source NodeID, getter func(*T) U) NodeID {
	return CreateMemo(rt, func() U {
		v, _ := With(rt, source, getter)
		return v
	})
}

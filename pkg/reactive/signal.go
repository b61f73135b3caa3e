package reactive

import (
	"reflect"

	"github.com/vango-dev/reactive/internal/anyval"
)

// CreateSignal registers a signal holding value under the current owner.
func CreateSignal[T any](rt *Runtime, value T) NodeID {
	id := rt.register(KindSignal)
	rt.signals.Insert(id, signalData{value: anyval.New(value)})
	return id
}

// readSignal resolves a signal or memo for reading. Stale memos are brought
// up to date first, so a read never observes a value computed from older
// inputs.
func (rt *Runtime) readSignal(id NodeID, tracked bool) (*signalData, bool) {
	rt.checkGoroutine()
	if !rt.nodes.Contains(id) {
		return nil, false
	}
	if ed, ok := rt.effects.Get(id); ok && ed.memo && ed.state != stateClean {
		rt.updateIfNecessary(id)
	}
	sd, ok := rt.signalOf(id)
	if !ok {
		return nil, false
	}
	if tracked {
		rt.track(id, sd)
	}
	return sd, true
}

func load[T any](rt *Runtime, id NodeID, sd *signalData) (T, bool) {
	v, ok := anyval.Load[T](&sd.value)
	if !ok {
		rt.logTypeMismatch(id, reflect.TypeFor[T](), sd.value.Type())
	}
	return v, ok
}

// TryGet reads a signal or memo and records a dependency of the running
// computation on it. It returns false for stale handles and type mismatches.
func TryGet[T any](rt *Runtime, id NodeID) (T, bool) {
	sd, ok := rt.readSignal(id, true)
	if !ok {
		var zero T
		return zero, false
	}
	return load[T](rt, id, sd)
}

// Get is TryGet that panics with a descriptive *errors.ReactiveError when
// the handle is stale or holds another type.
func Get[T any](rt *Runtime, id NodeID) T {
	v, ok := TryGet[T](rt, id)
	if !ok {
		panic(expectError[T](rt, id))
	}
	return v
}

// TryGetUntracked reads without recording a dependency.
func TryGetUntracked[T any](rt *Runtime, id NodeID) (T, bool) {
	sd, ok := rt.readSignal(id, false)
	if !ok {
		var zero T
		return zero, false
	}
	return load[T](rt, id, sd)
}

// GetUntracked is TryGetUntracked that panics on failure.
func GetUntracked[T any](rt *Runtime, id NodeID) T {
	v, ok := TryGetUntracked[T](rt, id)
	if !ok {
		panic(expectError[T](rt, id))
	}
	return v
}

// With calls fn with a pointer to the current value, tracked, without
// copying it. fn must not retain or modify the pointer.
func With[T, R any](rt *Runtime, id NodeID, fn func(*T) R) (R, bool) {
	var zero R
	sd, ok := rt.readSignal(id, true)
	if !ok {
		return zero, false
	}
	p, ok := anyval.Ref[T](&sd.value)
	if !ok {
		rt.logTypeMismatch(id, reflect.TypeFor[T](), sd.value.Type())
		return zero, false
	}
	return fn(p), true
}

func expectError[T any](rt *Runtime, id NodeID) error {
	if !rt.nodes.Contains(id) {
		return rt.staleHandleError(id)
	}
	var got reflect.Type
	if sd, ok := rt.signals.Get(id); ok {
		got = sd.value.Type()
	}
	return rt.typeMismatchError(id, reflect.TypeFor[T](), got)
}

// Update mutates the value in place, marks the signal changed and
// propagates: dependent effects are queued and, outside of a Batch, run
// before Update returns. It returns false for stale handles and type
// mismatches, in which case fn is not called.
func Update[T any](rt *Runtime, id NodeID, fn func(*T)) bool {
	rt.checkGoroutine()
	sd, ok := rt.signalOf(id)
	if !ok {
		return false
	}
	p, ok := anyval.Mut[T](&sd.value)
	if !ok {
		rt.logTypeMismatch(id, reflect.TypeFor[T](), sd.value.Type())
		return false
	}
	fn(p)

	// fn is user code; the signal may be gone.
	if sd, ok = rt.signalOf(id); !ok {
		return true
	}
	sd.version++
	rt.propagate(id)
	rt.flush()
	return true
}

// Set replaces the value. Dependents are notified even if the new value
// equals the old one; Signal[T].Set skips equal values.
func Set[T any](rt *Runtime, id NodeID, value T) bool {
	return Update(rt, id, func(p *T) { *p = value })
}

package reactive

// Cleanup is returned by effect functions to release what the previous run
// acquired.
type Cleanup func()

// CreateEffect registers a computation under the current owner and runs it
// once immediately. It re-runs whenever a signal or memo it read during its
// latest run changes. Each run replaces the previous dependency set.
//
// Example:
//
//	rt.CreateEffect(func() {
//	    fmt.Println("count is", reactive.Get[int](rt, count))
//	})
func (rt *Runtime) CreateEffect(fn func()) NodeID {
	id := rt.register(KindEffect)
	rt.effects.Insert(id, effectData{fn: fn, state: stateDirty})
	rt.run(id)
	rt.flush()
	return id
}

// CreateEffectWithCleanup is CreateEffect for functions that return a
// Cleanup. The cleanup runs before the next run and when the effect is
// disposed.
//
// Example:
//
//	rt.CreateEffectWithCleanup(func() reactive.Cleanup {
//	    stop := startTicker(reactive.Get[time.Duration](rt, interval))
//	    return stop
//	})
func (rt *Runtime) CreateEffectWithCleanup(fn func() Cleanup) NodeID {
	return rt.CreateEffect(func() {
		if c := fn(); c != nil {
			rt.OnCleanup(c)
		}
	})
}

// Watch runs callback whenever the value returned by deps is recomputed.
// Only deps is tracked; callback runs untracked and receives the new and the
// previous value. With immediate set, callback also runs for the initial
// value, with prev equal to the zero value.
//
// Example:
//
//	reactive.Watch(rt,
//	    func() string { return reactive.Get[string](rt, query) },
//	    func(q, prev string) { log.Printf("query %q -> %q", prev, q) },
//	    false,
//	)
func Watch[T any](rt *Runtime, deps func() T, callback func(value, prev T), immediate bool) NodeID {
	var prev T
	first := true
	return rt.CreateEffect(func() {
		value := deps()
		if first {
			first = false
			if !immediate {
				prev = value
				return
			}
		}
		old := prev
		prev = value
		rt.Untrack(func() { callback(value, old) })
	})
}

// OnUpdate runs callback each time deps re-runs, but not initially.
func (rt *Runtime) OnUpdate(deps func(), callback func()) NodeID {
	return Watch(rt, func() struct{} { deps(); return struct{}{} }, func(struct{}, struct{}) { callback() }, false)
}

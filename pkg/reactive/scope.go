package reactive

import "github.com/vango-dev/reactive/internal/anyval"

// CreateScope creates a plain owner node and runs fn with it as the current
// owner, so everything fn creates is disposed together with the scope.
// Reads inside fn are not tracked by an enclosing computation.
func (rt *Runtime) CreateScope(fn func()) NodeID {
	id := rt.register(KindScope)
	if fn != nil {
		rt.withOwner(id, NodeID{}, fn)
	}
	return id
}

// RunInScope runs fn with an existing node as the current owner.
// It returns false if owner is stale.
func (rt *Runtime) RunInScope(owner NodeID, fn func()) bool {
	rt.checkGoroutine()
	if !rt.nodes.Contains(owner) {
		return false
	}
	rt.withOwner(owner, NodeID{}, fn)
	return true
}

// OnCleanup registers fn to run when the current owner re-runs or is
// disposed. Cleanups run in reverse registration order. Without a current
// owner OnCleanup does nothing and returns false.
func (rt *Runtime) OnCleanup(fn func()) bool {
	rt.checkGoroutine()
	if fn == nil || !rt.nodes.Contains(rt.owner) {
		return false
	}
	a := rt.auxOf(rt.owner)
	a.cleanups = append(a.cleanups, fn)
	return true
}

// Dispose destroys a node and everything it owns. Children are disposed
// first, in reverse creation order, then the node's cleanups run, its
// dependency edges are removed and its storage is released. Disposing a
// stale handle is a no-op.
func (rt *Runtime) Dispose(id NodeID) {
	rt.checkGoroutine()
	if !rt.nodes.Contains(id) {
		if Debug.LogDisposals {
			rt.logger.Debug("reactive: dispose of stale handle", "node", id.String())
		}
		return
	}
	rt.disposeNode(id)
}

func (rt *Runtime) disposeChildren(id NodeID) {
	a, ok := rt.aux.Get(id)
	if !ok {
		return
	}
	children := a.children.Take()
	for child := range children.Backward() {
		rt.disposeNode(child)
	}
}

// runCleanups runs and forgets the node's cleanups, untracked.
func (rt *Runtime) runCleanups(id NodeID) {
	a, ok := rt.aux.Get(id)
	if !ok || len(a.cleanups) == 0 {
		return
	}
	cleanups := a.cleanups
	a.cleanups = nil
	rt.withOwner(NodeID{}, NodeID{}, func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	})
}

func (rt *Runtime) disposeNode(id NodeID) {
	n, ok := rt.nodes.Get(id)
	if !ok {
		return
	}
	kind, parent := n.kind, n.parent

	rt.disposeChildren(id)
	rt.runCleanups(id)

	// Cleanups may have disposed the node already.
	if !rt.nodes.Contains(id) {
		return
	}

	if a, ok := rt.aux.Remove(id); ok {
		// Children or cleanups registered by the cleanups themselves.
		for child := range a.children.Backward() {
			rt.disposeNode(child)
		}
		for _, c := range a.context {
			c.Drop()
		}
	}

	if ed, ok := rt.effects.Remove(id); ok {
		rt.clearDependencies(id, &ed)
	}
	if sd, ok := rt.signals.Remove(id); ok {
		for sub := range sd.subscribers.All() {
			if sed, ok := rt.computationOf(sub); ok {
				sed.deps.RemoveFunc(func(d dependency) bool { return d.id == id })
			}
		}
		sd.value.Drop()
	}
	rt.dropCell(rt.stored.Remove(id))
	rt.dropCell(rt.callbacks.Remove(id))
	rt.dropCell(rt.nodeRefs.Remove(id))

	rt.queued.Remove(id.Index)

	if rt.nodes.Contains(parent) {
		if pa, ok := rt.aux.Get(parent); ok {
			pa.children.DeleteFirst(id)
		}
	}

	if n, ok := rt.nodes.Get(id); ok {
		rt.forgetDebugInfo(id, n)
	}
	rt.nodes.Remove(id)

	if rt.hooks != nil {
		rt.hooks.NodeDisposed(id, kind)
	}
	if Debug.LogDisposals {
		rt.logger.Debug("reactive: disposed", "node", id.String(), "kind", kind.String())
	}
}

func (rt *Runtime) dropCell(c anyval.Cell, ok bool) {
	if ok {
		c.Drop()
	}
}

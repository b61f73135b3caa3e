package reactive

import (
	"time"

	rerrors "github.com/vango-dev/reactive/internal/errors"
)

// mark is a pending state change produced during propagation.
type mark struct {
	id    NodeID
	state nodeState
}

// propagate marks everything downstream of a changed signal. Direct
// subscribers become dirty; subscribers of memos below them become "check"
// because the memo may end up with an equal value. Effects are queued,
// memos are only marked and re-evaluated lazily when read.
//
// The walk is breadth-first over an explicit worklist so deep graphs do not
// grow the call stack.
func (rt *Runtime) propagate(source NodeID) {
	sd, ok := rt.signalOf(source)
	if !ok {
		return
	}
	work := make([]mark, 0, sd.subscribers.Len())
	for sub := range sd.subscribers.All() {
		work = append(work, mark{id: sub, state: stateDirty})
	}

	for i := 0; i < len(work); i++ {
		m := work[i]
		ed, ok := rt.computationOf(m.id)
		if !ok {
			continue
		}
		if !ed.memo {
			if m.state > ed.state {
				ed.state = m.state
			}
			rt.enqueue(m.id)
			continue
		}

		wasClean := ed.state == stateClean
		if m.state > ed.state {
			ed.state = m.state
		}
		if !wasClean {
			// Already marked; its subscribers were reached back then.
			continue
		}
		if msd, ok := rt.signals.Get(m.id); ok {
			for sub := range msd.subscribers.All() {
				work = append(work, mark{id: sub, state: stateCheck})
			}
		}
	}
}

// enqueue appends an effect to the pending queue unless it is already there.
func (rt *Runtime) enqueue(id NodeID) {
	if !rt.queued.CheckedAdd(id.Index) {
		return
	}
	rt.queue = append(rt.queue, id)
}

// Pending returns the number of queued effects.
func (rt *Runtime) Pending() int {
	return int(rt.queued.GetCardinality())
}

// flush runs queued effects in first-enqueued order. Nested calls, and calls
// during a batch, return immediately; the outer flush picks up anything
// queued in the meantime. Computations deferred by an aborted flush are
// queued again first.
func (rt *Runtime) flush() {
	if rt.flushing || rt.batchDepth > 0 {
		return
	}
	rt.requeueDeferred()
	if rt.queueHead == len(rt.queue) {
		return
	}
	rt.flushing = true
	defer func() {
		rt.flushing = false
	}()

	var stats FlushStats
	start := time.Now()
	runsBefore := rt.counters.runs
	if rt.hooks != nil {
		rt.hooks.FlushStarted(len(rt.queue) - rt.queueHead)
	}
	if Debug.LogFlushes {
		rt.logger.Debug("reactive: flush started", "pending", len(rt.queue)-rt.queueHead)
	}

	for rt.queueHead < len(rt.queue) {
		id := rt.queue[rt.queueHead]
		rt.queue[rt.queueHead] = NodeID{}
		rt.queueHead++

		// A disposed entry's bit was cleared on disposal and may now belong
		// to a new node reusing the slot.
		if !rt.nodes.Contains(id) {
			continue
		}
		rt.queued.Remove(id.Index)

		if !rt.updateIfNecessary(id) {
			stats.Skipped++
		}
		stats.Runs = int(rt.counters.runs - runsBefore)

		if rt.flushBudget > 0 && stats.Runs >= rt.flushBudget && rt.queueHead < len(rt.queue) {
			stats.Aborted = true
			rt.abortFlush(stats.Runs)
			break
		}
	}
	rt.queue = rt.queue[:0]
	rt.queueHead = 0

	stats.Elapsed = time.Since(start)
	rt.counters.flushes++
	rt.counters.skipped += uint64(stats.Skipped)
	if stats.Aborted {
		rt.counters.aborted++
	}
	if rt.hooks != nil {
		rt.hooks.FlushFinished(stats)
	}
	if Debug.LogFlushes {
		rt.logger.Debug("reactive: flush finished",
			"runs", stats.Runs,
			"skipped", stats.Skipped,
			"elapsed", stats.Elapsed,
		)
	}
}

// abortFlush stops the flush after the budget was exhausted. The remaining
// entries keep their state and move to the deferred list: memos above them
// stay marked, so propagation would not reach them again on its own.
func (rt *Runtime) abortFlush(runs int) {
	dropped := 0
	for _, id := range rt.queue[rt.queueHead:] {
		if rt.nodes.Contains(id) {
			rt.queued.Remove(id.Index)
			rt.deferred = append(rt.deferred, id)
			dropped++
		}
	}
	rt.queueHead = len(rt.queue)

	err := rerrors.New(rerrors.CodeFlushBudget).Wrap(ErrFlushBudgetExceeded)
	rt.lastErr = err
	rt.logger.Error("reactive: flush budget exceeded",
		"code", err.Code,
		"budget", rt.flushBudget,
		"runs", runs,
		"dropped", dropped,
	)
}

// requeueDeferred puts computations dropped by an earlier aborted flush
// back at the end of the queue.
func (rt *Runtime) requeueDeferred() {
	if len(rt.deferred) == 0 {
		return
	}
	for _, id := range rt.deferred {
		if ed, ok := rt.computationOf(id); ok && ed.state != stateClean {
			rt.enqueue(id)
		}
	}
	clear(rt.deferred)
	rt.deferred = rt.deferred[:0]
}

// frame is one pending node of the iterative evaluation in updateIfNecessary.
type frame struct {
	id   NodeID
	next int
}

// updateIfNecessary brings a computation up to date and reports whether
// root itself re-ran. A dirty node re-runs. A node in the check state first
// brings every memo it depends on up to date, in dependency order, and
// re-runs only if one of them produced a new value; otherwise it becomes
// clean without running.
//
// The traversal uses an explicit stack so long memo chains do not grow the
// call stack.
func (rt *Runtime) updateIfNecessary(root NodeID) bool {
	ed, ok := rt.computationOf(root)
	if !ok || ed.state == stateClean {
		return false
	}

	ran := false
	var buf [8]frame
	stack := append(buf[:0], frame{id: root})
	for len(stack) > 0 {
		top := len(stack) - 1
		id := stack[top].id
		ed, ok := rt.computationOf(id)
		if !ok {
			stack = stack[:top]
			continue
		}

		if ed.state == stateCheck {
			descend := NodeID{}
			for stack[top].next < ed.deps.Len() {
				dep := ed.deps.At(stack[top].next)
				if ded, ok := rt.computationOf(dep.id); ok && ded.memo && ded.state != stateClean && ded.fn != nil {
					descend = dep.id
					break
				}
				if !rt.depUnchanged(dep) {
					ed.state = stateDirty
					break
				}
				stack[top].next++
			}
			if !descend.IsZero() {
				stack = append(stack, frame{id: descend})
				continue
			}
			if ed.state == stateCheck {
				ed.state = stateClean
			}
		}

		stack = stack[:top]
		if ed.state == stateDirty {
			rt.run(id)
			if id == root {
				ran = true
			}
		}
	}
	return ran
}

// depUnchanged reports whether the signal behind dep still has the version
// observed when the edge was recorded.
func (rt *Runtime) depUnchanged(dep dependency) bool {
	sd, ok := rt.signalOf(dep.id)
	return ok && sd.version == dep.version
}

// run re-executes a computation: children created by the previous run are
// disposed, cleanups run, old dependency edges are removed, and fn runs with
// the node as owner and listener so its reads record fresh edges.
func (rt *Runtime) run(id NodeID) {
	ed, ok := rt.computationOf(id)
	if !ok || ed.fn == nil {
		return
	}
	fn := ed.fn
	kind := KindEffect
	if ed.memo {
		kind = KindMemo
	}

	rt.disposeChildren(id)
	rt.runCleanups(id)

	// Disposal and cleanups run user code; look the node up again.
	ed, ok = rt.computationOf(id)
	if !ok {
		return
	}
	rt.clearDependencies(id, ed)
	ed.version++
	ed.state = stateClean
	ed.interrupted = false
	ed.fn = nil

	if n := len(rt.running); n > 0 {
		if outer, ok := rt.effects.Get(rt.running[n-1]); ok {
			outer.interrupted = true
		}
	}
	rt.running = append(rt.running, id)
	rt.counters.runs++

	var start time.Time
	if rt.hooks != nil {
		start = time.Now()
	}
	defer func() {
		rt.running = rt.running[:len(rt.running)-1]
		if ed, ok := rt.computationOf(id); ok {
			ed.fn = fn
			// Something this effect read changed while it was running.
			if !ed.memo && ed.state != stateClean {
				rt.enqueue(id)
			}
		}
		if rt.hooks != nil {
			rt.hooks.ComputationRan(id, kind, time.Since(start))
		}
	}()

	rt.withOwner(id, id, fn)
}

// clearDependencies removes every edge from the computation to its
// dependencies, in both directions.
func (rt *Runtime) clearDependencies(id NodeID, ed *effectData) {
	deps := ed.deps.Take()
	for dep := range deps.All() {
		if sd, ok := rt.signalOf(dep.id); ok {
			sd.subscribers.RemoveFirst(id)
		}
	}
}

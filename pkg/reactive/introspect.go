package reactive

import (
	"github.com/vango-dev/reactive/internal/anyval"
	"github.com/vango-dev/reactive/pkg/snapshot"
)

// Stats are runtime-wide counters.
type Stats = snapshot.Stats

// maxValueLen bounds value renderings in snapshots.
const maxValueLen = 80

// Stats returns the current node counts and the cumulative flush counters.
func (rt *Runtime) Stats() Stats {
	rt.checkGoroutine()
	s := Stats{
		Nodes:          rt.nodes.Len(),
		ByKind:         make(map[string]int, len(Kinds)),
		Queued:         int(rt.queued.GetCardinality()),
		BatchDepth:     rt.batchDepth,
		Flushes:        rt.counters.flushes,
		AbortedFlushes: rt.counters.aborted,
		Runs:           rt.counters.runs,
		SkippedRuns:    rt.counters.skipped,
	}
	rt.nodes.Range(func(_ NodeID, n *node) bool {
		s.ByKind[n.kind.String()]++
		return true
	})
	return s
}

// Snapshot copies the whole graph into a value that can be encoded or
// handed to another goroutine.
func (rt *Runtime) Snapshot() *snapshot.Graph {
	rt.checkGoroutine()
	g := snapshot.NewGraph()
	g.Nodes = make([]snapshot.Node, 0, rt.nodes.Len())

	rt.nodes.Range(func(id NodeID, n *node) bool {
		sn := snapshot.Node{
			ID:         id.String(),
			Index:      id.Index,
			Generation: id.Generation,
			Kind:       n.kind.String(),
			Label:      rt.DebugLabel(id),
			DefinedAt:  n.site.String(),
			Queued:     rt.queued.Contains(id.Index),
		}
		if !n.parent.IsZero() {
			sn.Parent = n.parent.String()
		}
		if a, ok := rt.aux.Get(id); ok {
			for child := range a.children.All() {
				sn.Children = append(sn.Children, child.String())
			}
			sn.Cleanups = len(a.cleanups)
		}
		if sd, ok := rt.signals.Get(id); ok {
			sn.Version = sd.version
			describeCell(&sn, &sd.value)
			for sub := range sd.subscribers.All() {
				sn.Subscribers = append(sn.Subscribers, sub.String())
			}
		}
		if ed, ok := rt.effects.Get(id); ok {
			sn.Runs = ed.version
			sn.State = ed.state.String()
			for dep := range ed.deps.All() {
				sn.Dependencies = append(sn.Dependencies, dep.id.String())
			}
		}
		for _, table := range []interface {
			Get(NodeID) (*anyval.Cell, bool)
		}{rt.stored, rt.callbacks, rt.nodeRefs} {
			if c, ok := table.Get(id); ok {
				describeCell(&sn, c)
			}
		}
		g.Nodes = append(g.Nodes, sn)
		return true
	})

	g.Stats = rt.Stats()
	return g
}

func describeCell(sn *snapshot.Node, c *anyval.Cell) {
	if !c.IsSet() {
		return
	}
	sn.Type = c.Type().String()
	v := c.String()
	if len(v) > maxValueLen {
		v = v[:maxValueLen-3] + "..."
	}
	sn.Value = v
}

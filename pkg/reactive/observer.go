package reactive

import "time"

// Observer receives runtime events. Hooks run synchronously on the runtime's
// goroutine and must not modify the runtime. Read-only calls such as
// Snapshot and Stats are allowed.
type Observer interface {
	NodeCreated(id NodeID, kind NodeKind)
	NodeDisposed(id NodeID, kind NodeKind)
	FlushStarted(pending int)
	ComputationRan(id NodeID, kind NodeKind, elapsed time.Duration)
	FlushFinished(stats FlushStats)
}

// FlushStats summarises one flush of the pending queue.
type FlushStats struct {
	// Runs is the number of computations that re-ran.
	Runs int
	// Skipped counts queued effects whose dependencies turned out unchanged.
	Skipped int
	Elapsed time.Duration
	// Aborted is set when the flush budget was exceeded.
	Aborted bool
}

// NopObserver implements Observer with no-ops. Embed it to implement only
// some hooks.
type NopObserver struct{}

func (NopObserver) NodeCreated(NodeID, NodeKind)                   {}
func (NopObserver) NodeDisposed(NodeID, NodeKind)                  {}
func (NopObserver) FlushStarted(int)                               {}
func (NopObserver) ComputationRan(NodeID, NodeKind, time.Duration) {}
func (NopObserver) FlushFinished(FlushStats)                       {}

type multiObserver []Observer

// Observers fans events out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m multiObserver) NodeCreated(id NodeID, kind NodeKind) {
	for _, o := range m {
		o.NodeCreated(id, kind)
	}
}

func (m multiObserver) NodeDisposed(id NodeID, kind NodeKind) {
	for _, o := range m {
		o.NodeDisposed(id, kind)
	}
}

func (m multiObserver) FlushStarted(pending int) {
	for _, o := range m {
		o.FlushStarted(pending)
	}
}

func (m multiObserver) ComputationRan(id NodeID, kind NodeKind, elapsed time.Duration) {
	for _, o := range m {
		o.ComputationRan(id, kind, elapsed)
	}
}

func (m multiObserver) FlushFinished(stats FlushStats) {
	for _, o := range m {
		o.FlushFinished(stats)
	}
}

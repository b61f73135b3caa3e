package reactive

import (
	"log/slog"
	"reflect"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vango-dev/reactive/internal/anyval"
	"github.com/vango-dev/reactive/internal/arena"
	"github.com/vango-dev/reactive/internal/nodelist"
)

// node is the hot part of every node. Everything else lives in side tables
// keyed by the same handle.
type node struct {
	parent NodeID
	kind   NodeKind
	site   callSite
}

// nodeAux is allocated on first use for nodes that own children, register
// cleanups or provide context.
type nodeAux struct {
	children nodelist.List[NodeID]
	cleanups []func()
	context  map[reflect.Type]anyval.Cell
}

// tracker identifies one run of one computation.
type tracker struct {
	owner NodeID
	run   uint64
}

type signalData struct {
	value       anyval.Cell
	subscribers nodelist.List[NodeID]
	// lastTrackedBy is the run that most recently recorded an edge to this
	// signal; repeated reads in that run are skipped without a scan.
	lastTrackedBy tracker
	// version increases whenever the value is or may have been changed.
	version uint64
}

// dependency is an edge from a computation to a signal, together with the
// signal version observed when the edge was recorded.
type dependency struct {
	id      NodeID
	version uint64
}

type effectData struct {
	// fn is nil while the computation is running.
	fn   func()
	deps nodelist.List[dependency]
	// version counts runs.
	version uint64
	state   nodeState
	memo    bool
	// interrupted is set when another computation ran while this one was
	// running, which invalidates the lastTrackedBy shortcut.
	interrupted bool
}

// Runtime owns every node of one reactive graph.
//
// A Runtime is confined to a single goroutine: it takes no locks, and every
// call into it (including from computations it runs) must happen on that
// goroutine. Use WithGoroutineCheck during development to enforce this.
type Runtime struct {
	nodes     *arena.Arena[node]
	aux       *arena.SparseMap[nodeAux]
	signals   *arena.SparseMap[signalData]
	effects   *arena.SparseMap[effectData]
	stored    *arena.SparseMap[anyval.Cell]
	callbacks *arena.SparseMap[anyval.Cell]
	nodeRefs  *arena.SparseMap[anyval.Cell]
	debug     debugTables

	// owner receives newly created nodes as children.
	owner NodeID
	// listener is the computation whose reads are being tracked.
	listener NodeID

	// running is the stack of computations currently executing.
	running []NodeID

	queue     []NodeID
	queueHead int
	queued    *roaring.Bitmap
	flushing  bool
	// deferred holds computations dropped by an aborted flush. They keep
	// their Check/Dirty state and are queued again by the next flush.
	deferred []NodeID

	batchDepth int

	flushBudget    int
	lastErr        error
	logger         *slog.Logger
	hooks          Observer
	goroutineCheck bool
	gid            uint64

	counters counters
}

type counters struct {
	flushes uint64
	aborted uint64
	runs    uint64
	skipped uint64
}

// NewRuntime creates an empty runtime bound to the calling goroutine.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		nodes:       arena.New[node](),
		aux:         arena.NewSparseMap[nodeAux](),
		signals:     arena.NewSparseMap[signalData](),
		effects:     arena.NewSparseMap[effectData](),
		stored:      arena.NewSparseMap[anyval.Cell](),
		callbacks:   arena.NewSparseMap[anyval.Cell](),
		nodeRefs:    arena.NewSparseMap[anyval.Cell](),
		debug:       newDebugTables(),
		queued:      roaring.New(),
		flushBudget: DefaultFlushBudget,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.goroutineCheck {
		rt.gid = goroutineID()
	}
	return rt
}

// IsValid reports whether id refers to a live node.
func (rt *Runtime) IsValid(id NodeID) bool {
	return rt.nodes.Contains(id)
}

// Kind returns the node's kind, or false for a stale handle.
func (rt *Runtime) Kind(id NodeID) (NodeKind, bool) {
	n, ok := rt.nodes.Get(id)
	if !ok {
		return 0, false
	}
	return n.kind, true
}

// Parent returns the node's owner. The zero NodeID means the node is a root.
func (rt *Runtime) Parent(id NodeID) (NodeID, bool) {
	n, ok := rt.nodes.Get(id)
	if !ok {
		return NodeID{}, false
	}
	return n.parent, true
}

// Children returns the nodes owned by id in creation order.
func (rt *Runtime) Children(id NodeID) []NodeID {
	if !rt.nodes.Contains(id) {
		return nil
	}
	if a, ok := rt.aux.Get(id); ok {
		return a.children.Slice()
	}
	return nil
}

// CurrentOwner returns the node that newly created nodes are attached to.
func (rt *Runtime) CurrentOwner() (NodeID, error) {
	if !rt.nodes.Contains(rt.owner) {
		return NodeID{}, ErrNoOwner
	}
	return rt.owner, nil
}

// LastError returns and clears the error recorded by the most recent
// aborted flush.
func (rt *Runtime) LastError() error {
	err := rt.lastErr
	rt.lastErr = nil
	return err
}

// register creates a node owned by the current owner.
func (rt *Runtime) register(kind NodeKind) NodeID {
	rt.checkGoroutine()

	parent := rt.owner
	if !rt.nodes.Contains(parent) {
		parent = NodeID{}
	}
	id := rt.nodes.Insert(node{parent: parent, kind: kind, site: captureSite()})
	if !parent.IsZero() {
		rt.auxOf(parent).children.Push(id)
	}
	if rt.hooks != nil {
		rt.hooks.NodeCreated(id, kind)
	}
	return id
}

func (rt *Runtime) auxOf(id NodeID) *nodeAux {
	return rt.aux.GetOrInsert(id, func() nodeAux { return nodeAux{} })
}

// signalOf returns the signal half of a live signal or memo.
func (rt *Runtime) signalOf(id NodeID) (*signalData, bool) {
	if !rt.nodes.Contains(id) {
		return nil, false
	}
	return rt.signals.Get(id)
}

// computationOf returns the effect half of a live effect or memo.
func (rt *Runtime) computationOf(id NodeID) (*effectData, bool) {
	if !rt.nodes.Contains(id) {
		return nil, false
	}
	return rt.effects.Get(id)
}

// withOwner runs fn with the given owner and listener and restores the
// previous ones afterwards, also when fn panics.
func (rt *Runtime) withOwner(owner, listener NodeID, fn func()) {
	prevOwner, prevListener := rt.owner, rt.listener
	rt.owner, rt.listener = owner, listener
	defer func() {
		rt.owner, rt.listener = prevOwner, prevListener
	}()
	fn()
}

// Untrack runs fn without recording dependencies for the current
// computation. Nodes created by fn are still owned by the current owner.
func (rt *Runtime) Untrack(fn func()) {
	rt.withOwner(rt.owner, NodeID{}, fn)
}

// Untracked returns fn's result, evaluated without dependency tracking.
func Untracked[T any](rt *Runtime, fn func() T) T {
	var out T
	rt.Untrack(func() { out = fn() })
	return out
}

// TrackSignal records a dependency of the running computation on id, as if
// id had been read. A stale memo is brought up to date first, exactly as a
// read would. It is a no-op outside of a computation.
func (rt *Runtime) TrackSignal(id NodeID) {
	rt.readSignal(id, true)
}

// track records an edge from the current listener to the signal.
func (rt *Runtime) track(id NodeID, sd *signalData) {
	listener := rt.listener
	if listener.IsZero() || listener == id {
		return
	}
	ed, ok := rt.computationOf(listener)
	if !ok {
		return
	}

	current := tracker{owner: listener, run: ed.version}
	if sd.lastTrackedBy == current {
		return
	}
	if ed.interrupted {
		// A nested run may have overwritten lastTrackedBy.
		for dep := range ed.deps.All() {
			if dep.id == id {
				sd.lastTrackedBy = current
				return
			}
		}
	}

	sd.lastTrackedBy = current
	sd.subscribers.Push(listener)
	ed.deps.Push(dependency{id: id, version: sd.version})
}

// NotifySignal marks id as changed without touching its value and
// propagates the change.
func (rt *Runtime) NotifySignal(id NodeID) bool {
	rt.checkGoroutine()
	sd, ok := rt.signalOf(id)
	if !ok {
		return false
	}
	sd.version++
	rt.propagate(id)
	rt.flush()
	return true
}

// Batch runs fn and defers propagation until it returns, so every
// computation affected by updates inside fn runs at most once. Batches nest;
// the queue is flushed when the outermost batch ends.
func (rt *Runtime) Batch(fn func()) {
	rt.checkGoroutine()
	rt.batchDepth++
	completed := false
	defer func() {
		rt.batchDepth--
		if completed && rt.batchDepth == 0 {
			rt.flush()
		}
	}()
	fn()
	completed = true
}

// InBatch reports whether a Batch is in progress.
func (rt *Runtime) InBatch() bool {
	return rt.batchDepth > 0
}

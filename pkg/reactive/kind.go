package reactive

import "github.com/vango-dev/reactive/internal/arena"

// NodeID identifies a node owned by a Runtime. The zero NodeID never refers
// to a node.
type NodeID = arena.Handle

// NodeKind is the role a node was created for.
type NodeKind uint8

const (
	KindScope NodeKind = iota + 1
	KindSignal
	KindEffect
	KindMemo
	KindStoredValue
	KindCallback
	KindNodeRef
)

// String returns a lowercase name for the kind.
func (k NodeKind) String() string {
	switch k {
	case KindScope:
		return "scope"
	case KindSignal:
		return "signal"
	case KindEffect:
		return "effect"
	case KindMemo:
		return "memo"
	case KindStoredValue:
		return "stored"
	case KindCallback:
		return "callback"
	case KindNodeRef:
		return "noderef"
	default:
		return "unknown"
	}
}

// Kinds lists every node kind.
var Kinds = []NodeKind{KindScope, KindSignal, KindEffect, KindMemo, KindStoredValue, KindCallback, KindNodeRef}

// nodeState is the freshness of a computation.
type nodeState uint8

const (
	// stateClean: every dependency is known to be unchanged since the last run.
	stateClean nodeState = iota
	// stateCheck: some transitive dependency changed; a memo between the
	// change and this node may or may not have changed value.
	stateCheck
	// stateDirty: a direct dependency changed.
	stateDirty
)

func (s nodeState) String() string {
	switch s {
	case stateClean:
		return "clean"
	case stateCheck:
		return "check"
	case stateDirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// Package snapshot defines an immutable picture of a reactive graph and
// ways to encode and export it.
//
// Snapshots are taken on the runtime's goroutine (see Runtime.Snapshot) and
// can then be handed to any other goroutine: they share no memory with the
// runtime.
package snapshot

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Node describes one node of the graph.
type Node struct {
	ID         string `json:"id"`
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
	Kind       string `json:"kind"`
	Parent     string `json:"parent,omitempty"`
	Label      string `json:"label,omitempty"`
	DefinedAt  string `json:"definedAt,omitempty"`

	// Value is a short rendering of the held value, if any.
	Value string `json:"value,omitempty"`
	Type  string `json:"type,omitempty"`

	// Version is the signal version for signals and memos.
	Version uint64 `json:"version,omitempty"`
	// Runs is the run counter for effects and memos.
	Runs  uint64 `json:"runs,omitempty"`
	State string `json:"state,omitempty"`

	Dependencies []string `json:"dependencies,omitempty"`
	Subscribers  []string `json:"subscribers,omitempty"`
	Children     []string `json:"children,omitempty"`
	Cleanups     int      `json:"cleanups,omitempty"`
	Queued       bool     `json:"queued,omitempty"`
}

// Stats are runtime-wide counters.
type Stats struct {
	Nodes          int            `json:"nodes"`
	ByKind         map[string]int `json:"byKind"`
	Queued         int            `json:"queued"`
	BatchDepth     int            `json:"batchDepth"`
	Flushes        uint64         `json:"flushes"`
	AbortedFlushes uint64         `json:"abortedFlushes"`
	Runs           uint64         `json:"runs"`
	SkippedRuns    uint64         `json:"skippedRuns"`
}

// Graph is a snapshot of a whole runtime.
type Graph struct {
	ID      string    `json:"id"`
	TakenAt time.Time `json:"takenAt"`
	Nodes   []Node    `json:"nodes"`
	Stats   Stats     `json:"stats"`
}

// NewGraph returns an empty graph with a fresh ID.
func NewGraph() *Graph {
	return &Graph{
		ID:      uuid.NewString(),
		TakenAt: time.Now().UTC(),
	}
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Roots returns the nodes without a parent.
func (g *Graph) Roots() []Node {
	var roots []Node
	for _, n := range g.Nodes {
		if n.Parent == "" {
			roots = append(roots, n)
		}
	}
	return roots
}

// CountByKind counts nodes per kind.
func (g *Graph) CountByKind() map[string]int {
	out := make(map[string]int)
	for _, n := range g.Nodes {
		out[n.Kind]++
	}
	return out
}

// EdgeCount returns the number of dependency edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, n := range g.Nodes {
		total += len(n.Dependencies)
	}
	return total
}

// Sort orders nodes by slot index.
func (g *Graph) Sort() {
	sort.Slice(g.Nodes, func(i, j int) bool {
		return g.Nodes[i].Index < g.Nodes[j].Index
	})
}

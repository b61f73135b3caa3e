//go:build !release

package reactive

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/vango-dev/reactive/internal/arena"
)

// DebugInfo reports whether creation sites and labels are recorded. Build
// with -tags release to compile them out.
const DebugInfo = true

// callSite is the source location a node was created at.
type callSite struct {
	file string
	line int
}

func (c callSite) String() string {
	if c.file == "" {
		return ""
	}
	return c.file + ":" + strconv.Itoa(c.line)
}

var pkgDir = func() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}()

// captureSite returns the first caller outside this package's non-test
// sources.
func captureSite() callSite {
	var pcs [16]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if filepath.Dir(f.File) != pkgDir || strings.HasSuffix(f.File, "_test.go") {
			return callSite{file: f.File, line: f.Line}
		}
		if !more {
			return callSite{}
		}
	}
}

type deadLabel struct {
	id    NodeID
	label string
	site  string
}

// debugTables keeps labels for live nodes and, per slot, the last label of
// a disposed node so stale-handle panics can still name it.
type debugTables struct {
	labels *arena.SparseMap[string]
	dead   *arena.SparseMap[deadLabel]
}

func newDebugTables() debugTables {
	return debugTables{
		labels: arena.NewSparseMap[string](),
		dead:   arena.NewSparseMap[deadLabel](),
	}
}

// SetDebugLabel attaches a human-readable label to a node.
func (rt *Runtime) SetDebugLabel(id NodeID, label string) {
	if !rt.nodes.Contains(id) {
		return
	}
	rt.debug.labels.Insert(id, label)
}

// DebugLabel returns the node's label, or "".
func (rt *Runtime) DebugLabel(id NodeID) string {
	if !rt.nodes.Contains(id) {
		return ""
	}
	if l, ok := rt.debug.labels.Get(id); ok {
		return *l
	}
	return ""
}

// DefinedAt returns the "file:line" the node was created at, or "".
func (rt *Runtime) DefinedAt(id NodeID) string {
	n, ok := rt.nodes.Get(id)
	if !ok {
		return ""
	}
	return n.site.String()
}

// forgetDebugInfo moves the node's label and site to the dead table.
func (rt *Runtime) forgetDebugInfo(id NodeID, n *node) {
	label, _ := rt.debug.labels.Remove(id)
	rt.debug.dead.Insert(id, deadLabel{id: id, label: label, site: n.site.String()})
}

// deadNodeInfo returns what is known about a disposed node.
func (rt *Runtime) deadNodeInfo(id NodeID) (label, site string, ok bool) {
	d, found := rt.debug.dead.Get(id)
	if !found || d.id != id {
		return "", "", false
	}
	return d.label, d.site, true
}

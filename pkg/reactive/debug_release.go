//go:build release

package reactive

// DebugInfo reports whether creation sites and labels are recorded.
const DebugInfo = false

type callSite struct{}

func (callSite) String() string { return "" }

func captureSite() callSite { return callSite{} }

type debugTables struct{}

func newDebugTables() debugTables { return debugTables{} }

// SetDebugLabel is a no-op in release builds.
func (rt *Runtime) SetDebugLabel(NodeID, string) {}

// DebugLabel always returns "" in release builds.
func (rt *Runtime) DebugLabel(NodeID) string { return "" }

// DefinedAt always returns "" in release builds.
func (rt *Runtime) DefinedAt(NodeID) string { return "" }

func (rt *Runtime) forgetDebugInfo(NodeID, *node) {}

func (rt *Runtime) deadNodeInfo(NodeID) (string, string, bool) { return "", "", false }

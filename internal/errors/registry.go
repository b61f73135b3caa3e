package errors

import "sort"

// Registered error codes.
const (
	CodeStaleHandle       = "R001"
	CodeTypeMismatch      = "R002"
	CodeNoOwner           = "R003"
	CodeFlushBudget       = "R004"
	CodeWrongGoroutine    = "R005"
	CodeNotComputation    = "R006"
	CodeFreeListCorrupted = "R020"
	CodeEdgeOutOfSync     = "R021"
	CodeConfigInvalid     = "R040"
	CodeConfigRead        = "R041"
	CodeExportFailed      = "R060"
	CodeExportDestination = "R061"
	CodeSnapshotDecode    = "R062"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (R001-R019)
	// ============================================

	CodeStaleHandle: {
		Category:   CategoryRuntime,
		Message:    "Handle refers to a disposed node",
		Detail:     "The node this handle pointed to has been disposed and its slot may have been reused. Reads through a stale handle never return another node's data.",
		Suggestion: "Use the Try* variant if the node may legitimately be gone, or keep the owning scope alive for as long as the handle is used.",
	},
	CodeTypeMismatch: {
		Category:   CategoryRuntime,
		Message:    "Stored value has a different type",
		Detail:     "The node holds a value of another type than the one requested. This happens when a handle is shared between code that disagrees about its type.",
		Suggestion: "Use the typed wrappers (Signal[T], Memo[T], StoredValue[T]) instead of passing raw NodeIDs around.",
	},
	CodeNoOwner: {
		Category: CategoryRuntime,
		Message:  "No current owner",
		Detail:   "Cleanups and context values attach to the current owner. Outside of a scope, effect or memo there is nothing to attach to.",
	},
	CodeFlushBudget: {
		Category:   CategoryScheduler,
		Message:    "Flush budget exceeded",
		Detail:     "A single flush re-ran more computations than the configured budget allows. This usually means an effect writes to a signal it also reads, directly or through other effects.",
		Suggestion: "Break the cycle with Untrack, or raise the budget with WithFlushBudget if the graph is legitimately that large.",
	},
	CodeWrongGoroutine: {
		Category:   CategoryRuntime,
		Message:    "Runtime used from another goroutine",
		Detail:     "A Runtime is confined to the goroutine that created it.",
		Suggestion: "Send results back to the owning goroutine over a channel and apply them there.",
	},
	CodeNotComputation: {
		Category: CategoryRuntime,
		Message:  "Node is not a computation",
		Detail:   "The operation requires an effect or memo handle.",
	},

	// ============================================
	// Storage Errors (R020-R039)
	// ============================================

	CodeFreeListCorrupted: {
		Category: CategoryStorage,
		Message:  "Arena free list corrupted",
		Detail:   "A slot on the free list is marked occupied.",
	},
	CodeEdgeOutOfSync: {
		Category: CategoryStorage,
		Message:  "Dependency edges out of sync",
		Detail:   "A computation lists a dependency whose subscriber list does not contain it.",
	},

	// ============================================
	// Config Errors (R040-R059)
	// ============================================

	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file contains an invalid value.",
	},
	CodeConfigRead: {
		Category:   CategoryConfig,
		Message:    "Cannot read configuration",
		Detail:     "The configuration file exists but could not be read or parsed.",
		Suggestion: "Check that the file is valid JSON (reactive.json) or YAML (reactive.yaml).",
	},

	// ============================================
	// Export Errors (R060-R079)
	// ============================================

	CodeExportFailed: {
		Category: CategoryExport,
		Message:  "Snapshot export failed",
		Detail:   "The snapshot could not be written to its destination.",
	},
	CodeExportDestination: {
		Category:   CategoryExport,
		Message:    "Unsupported export destination",
		Detail:     "Snapshots can be exported to a local path or to s3://bucket/key.",
		Suggestion: "Use a file path or an s3:// URL.",
	},
	CodeSnapshotDecode: {
		Category: CategoryExport,
		Message:  "Cannot decode snapshot",
		Detail:   "The input is not a snapshot written by this tool.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for a code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces an error template.
// It is not safe to call concurrently with New.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

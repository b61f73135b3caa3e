package reactive

import (
	"errors"
	"reflect"

	rerrors "github.com/vango-dev/reactive/internal/errors"
)

// ErrDisposed is reported when a handle refers to a node that has been
// disposed. Stale handles never resolve to another node, even after their
// slot was reused.
var ErrDisposed = errors.New("reactive: node disposed")

// ErrTypeMismatch is reported when a node holds a value of another type than
// the one requested.
var ErrTypeMismatch = errors.New("reactive: type mismatch")

// ErrNoOwner is returned by CurrentOwner outside of any scope, effect or memo.
var ErrNoOwner = errors.New("reactive: no current owner")

// ErrFlushBudgetExceeded is reported through LastError when a flush re-ran
// more computations than the configured budget allows. The flush is aborted
// and the pending queue dropped.
var ErrFlushBudgetExceeded = errors.New("reactive: flush budget exceeded")

// ErrWrongGoroutine is the panic value cause when a runtime created with
// WithGoroutineCheck is used from another goroutine.
var ErrWrongGoroutine = errors.New("reactive: runtime used from another goroutine")

// staleHandleError describes an access through a stale handle, including the
// node's label and creation site when debug information is compiled in.
func (rt *Runtime) staleHandleError(id NodeID) *rerrors.ReactiveError {
	err := rerrors.New(rerrors.CodeStaleHandle).Wrap(ErrDisposed)
	if label, site, ok := rt.deadNodeInfo(id); ok {
		err.WithNode(id.String(), label).WithLocationString(site)
	} else {
		err.WithNode(id.String(), "")
	}
	return err
}

func (rt *Runtime) typeMismatchError(id NodeID, want, got reflect.Type) *rerrors.ReactiveError {
	err := rerrors.New(rerrors.CodeTypeMismatch).
		WithNode(id.String(), rt.DebugLabel(id)).
		WithDetail("requested " + typeName(want) + ", node holds " + typeName(got)).
		Wrap(ErrTypeMismatch)
	if site := rt.DefinedAt(id); site != "" {
		err.Location = rerrors.ParseLocation(site)
	}
	return err
}

// logTypeMismatch reports a failed downcast. The caller treats the value as
// absent.
func (rt *Runtime) logTypeMismatch(id NodeID, want, got reflect.Type) {
	err := rt.typeMismatchError(id, want, got)
	rt.logger.Warn("reactive: type mismatch",
		"code", err.Code,
		"node", id.String(),
		"want", typeName(want),
		"got", typeName(got),
	)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nothing>"
	}
	return t.String()
}

package reactive

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestRuntime(t testing.TB, opts ...Option) *Runtime {
	t.Helper()
	base := []Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return NewRuntime(append(base, opts...)...)
}

// newLoggedRuntime returns a runtime whose log output is captured in buf.
func newLoggedRuntime(t testing.TB, opts ...Option) (*Runtime, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	base := []Option{WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))}
	return NewRuntime(append(base, opts...)...), &buf
}

func mustPanic(t *testing.T, fn func()) (recovered any) {
	t.Helper()
	defer func() {
		recovered = recover()
		if recovered == nil {
			t.Fatal("expected panic")
		}
	}()
	fn()
	return nil
}

// depsOf returns the recorded dependencies of a computation.
func depsOf(rt *Runtime, id NodeID) []NodeID {
	ed, ok := rt.effects.Get(id)
	if !ok {
		return nil
	}
	var out []NodeID
	for d := range ed.deps.All() {
		out = append(out, d.id)
	}
	return out
}

// subscribersOf returns the computations subscribed to a signal or memo.
func subscribersOf(rt *Runtime, id NodeID) []NodeID {
	sd, ok := rt.signals.Get(id)
	if !ok {
		return nil
	}
	return sd.subscribers.Slice()
}

func containsID(ids []NodeID, id NodeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

package reactive

import (
	"errors"
	"testing"

	rerrors "github.com/vango-dev/reactive/internal/errors"
)

func TestEffectLogScenario(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 0)

	var log []int
	rt.CreateEffect(func() {
		log = append(log, Get[int](rt, s))
	})
	if len(log) != 1 || log[0] != 0 {
		t.Fatalf("after create: log = %v, want [0]", log)
	}

	Set(rt, s, 1)
	if len(log) != 2 || log[1] != 1 {
		t.Fatalf("after update: log = %v, want [0 1]", log)
	}

	rt.Batch(func() {
		Set(rt, s, 2)
		Set(rt, s, 3)
	})
	want := []int{0, 1, 3}
	if len(log) != len(want) {
		t.Fatalf("after batch: log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("after batch: log = %v, want %v", log, want)
		}
	}
}

func TestSignalReadWrite(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, "a")

	if v, ok := TryGet[string](rt, s); !ok || v != "a" {
		t.Errorf("TryGet = %q, %v", v, ok)
	}
	if !Update(rt, s, func(p *string) { *p += "b" }) {
		t.Fatal("Update returned false")
	}
	if v := GetUntracked[string](rt, s); v != "ab" {
		t.Errorf("GetUntracked = %q, want ab", v)
	}

	n, ok := With(rt, s, func(p *string) int { return len(*p) })
	if !ok || n != 2 {
		t.Errorf("With = %d, %v", n, ok)
	}
}

func TestSetAlwaysNotifies(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 1)
	runs := 0
	rt.CreateEffect(func() {
		_ = Get[int](rt, s)
		runs++
	})

	Set(rt, s, 1)
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestDependencyAccuracy(t *testing.T) {
	rt := newTestRuntime(t)
	a := CreateSignal(rt, 1)
	b := CreateSignal(rt, 2)
	c := CreateSignal(rt, 3)

	e := rt.CreateEffect(func() {
		_ = Get[int](rt, a)
		_ = Get[int](rt, b)
		_ = Get[int](rt, a)
		_ = GetUntracked[int](rt, c)
	})

	deps := depsOf(rt, e)
	if len(deps) != 2 || !containsID(deps, a) || !containsID(deps, b) {
		t.Errorf("deps = %v, want [%v %v]", deps, a, b)
	}
	if subs := subscribersOf(rt, c); len(subs) != 0 {
		t.Errorf("untracked read subscribed: %v", subs)
	}
}

func TestDedupRepeatedReads(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 0)

	e := rt.CreateEffect(func() {
		for i := 0; i < 100; i++ {
			_ = Get[int](rt, s)
		}
	})

	if n := len(depsOf(rt, e)); n != 1 {
		t.Errorf("deps = %d, want 1", n)
	}
	if n := len(subscribersOf(rt, s)); n != 1 {
		t.Errorf("subscribers = %d, want 1", n)
	}

	// Edges are rebuilt on every run, still deduplicated.
	Set(rt, s, 1)
	if n := len(depsOf(rt, e)); n != 1 {
		t.Errorf("deps after rerun = %d, want 1", n)
	}
	if n := len(subscribersOf(rt, s)); n != 1 {
		t.Errorf("subscribers after rerun = %d, want 1", n)
	}
}

func TestDedupAcrossNestedRun(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 0)

	var inner NodeID
	outer := rt.CreateEffect(func() {
		_ = Get[int](rt, s)
		inner = rt.CreateEffect(func() {
			_ = Get[int](rt, s)
		})
		_ = Get[int](rt, s)
	})

	if n := len(depsOf(rt, outer)); n != 1 {
		t.Errorf("outer deps = %d, want 1", n)
	}
	subs := subscribersOf(rt, s)
	if len(subs) != 2 || !containsID(subs, outer) || !containsID(subs, inner) {
		t.Errorf("subscribers = %v, want outer and inner", subs)
	}
}

func TestDynamicDependencies(t *testing.T) {
	rt := newTestRuntime(t)
	cond := CreateSignal(rt, true)
	a := CreateSignal(rt, "a")
	b := CreateSignal(rt, "b")

	var seen []string
	e := rt.CreateEffect(func() {
		if Get[bool](rt, cond) {
			seen = append(seen, Get[string](rt, a))
		} else {
			seen = append(seen, Get[string](rt, b))
		}
	})

	Set(rt, b, "b1")
	if len(seen) != 1 {
		t.Fatalf("unread signal triggered a run: %v", seen)
	}

	Set(rt, cond, false)
	if deps := depsOf(rt, e); containsID(deps, a) || !containsID(deps, b) {
		t.Errorf("deps after switch = %v", deps)
	}
	Set(rt, a, "a1")
	if len(seen) != 2 {
		t.Errorf("dropped dependency still triggers: %v", seen)
	}
	Set(rt, b, "b2")
	if len(seen) != 3 || seen[2] != "b2" {
		t.Errorf("seen = %v", seen)
	}
}

func TestBatchNested(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 0)
	runs := 0
	rt.CreateEffect(func() {
		_ = Get[int](rt, s)
		runs++
	})

	rt.Batch(func() {
		Set(rt, s, 1)
		rt.Batch(func() {
			Set(rt, s, 2)
		})
		if runs != 1 {
			t.Errorf("inner batch flushed: runs = %d", runs)
		}
		if !rt.InBatch() {
			t.Error("InBatch() = false inside batch")
		}
		if rt.Pending() != 1 {
			t.Errorf("Pending() = %d, want 1", rt.Pending())
		}
	})

	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
	if rt.InBatch() {
		t.Error("InBatch() = true after batch")
	}
}

func TestBatchPanicDefersFlush(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 0)
	runs := 0
	rt.CreateEffect(func() {
		_ = Get[int](rt, s)
		runs++
	})

	mustPanic(t, func() {
		rt.Batch(func() {
			Set(rt, s, 1)
			panic("boom")
		})
	})
	if rt.InBatch() {
		t.Error("batch depth not restored after panic")
	}
	if runs != 1 || rt.Pending() != 1 {
		t.Errorf("runs = %d pending = %d, want 1 and 1", runs, rt.Pending())
	}

	rt.Batch(func() {})
	if runs != 2 || rt.Pending() != 0 {
		t.Errorf("runs = %d pending = %d, want 2 and 0", runs, rt.Pending())
	}
}

func TestFlushOrderIsFIFO(t *testing.T) {
	rt := newTestRuntime(t)
	a := CreateSignal(rt, 0)
	b := CreateSignal(rt, 0)

	var order []string
	rt.CreateEffect(func() {
		_ = Get[int](rt, a)
		order = append(order, "a")
	})
	rt.CreateEffect(func() {
		_ = Get[int](rt, b)
		order = append(order, "b")
	})
	order = nil

	rt.Batch(func() {
		Set(rt, b, 1)
		Set(rt, a, 1)
		Set(rt, b, 2)
	})
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Errorf("order = %v, want [b a]", order)
	}
}

func TestEffectRunsOncePerFlush(t *testing.T) {
	rt := newTestRuntime(t)
	a := CreateSignal(rt, 0)
	b := CreateSignal(rt, 0)
	runs := 0
	rt.CreateEffect(func() {
		_ = Get[int](rt, a) + Get[int](rt, b)
		runs++
	})

	rt.Batch(func() {
		Set(rt, a, 1)
		Set(rt, b, 1)
	})
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestUpdatesFromEffectsAreQueued(t *testing.T) {
	rt := newTestRuntime(t)
	src := CreateSignal(rt, 0)
	dst := CreateSignal(rt, 0)

	var seen []int
	rt.CreateEffect(func() {
		Set(rt, dst, Get[int](rt, src)*10)
	})
	rt.CreateEffect(func() {
		seen = append(seen, Get[int](rt, dst))
	})

	Set(rt, src, 2)
	if len(seen) != 2 || seen[1] != 20 {
		t.Errorf("seen = %v, want [0 20]", seen)
	}
}

func TestUntrack(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 1)
	runs := 0
	rt.CreateEffect(func() {
		v := Untracked(rt, func() int { return Get[int](rt, s) })
		_ = v
		runs++
	})

	Set(rt, s, 2)
	if runs != 1 {
		t.Errorf("untracked read re-ran the effect: runs = %d", runs)
	}
}

func TestManualTrackAndNotify(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, []int{1})
	runs := 0
	rt.CreateEffect(func() {
		rt.TrackSignal(s)
		runs++
	})

	if !rt.NotifySignal(s) {
		t.Fatal("NotifySignal returned false")
	}
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}

	rt.Dispose(s)
	if rt.NotifySignal(s) {
		t.Error("NotifySignal on a disposed signal returned true")
	}
}

func TestTrackSignalRefreshesStaleMemo(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 1)
	m := CreateMemo(rt, func() int { return Get[int](rt, s) * 2 })
	Set(rt, s, 2) // m is stale and nobody reads it

	runs := 0
	rt.CreateEffect(func() {
		rt.TrackSignal(m)
		runs++
	})

	Set(rt, s, 3)
	Set(rt, s, 4)
	if runs != 3 {
		t.Errorf("runs = %d, want 3", runs)
	}
	if v := GetUntracked[int](rt, m); v != 8 {
		t.Errorf("m = %d, want 8", v)
	}
}

func TestStaleHandle(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 7)
	rt.SetDebugLabel(s, "count")
	rt.Dispose(s)

	if rt.IsValid(s) {
		t.Error("disposed handle still valid")
	}
	if _, ok := TryGet[int](rt, s); ok {
		t.Error("TryGet on disposed handle succeeded")
	}
	if Set(rt, s, 1) {
		t.Error("Set on disposed handle succeeded")
	}

	reused := CreateSignal(rt, 9)
	if reused.Index != s.Index || reused.Generation == s.Generation {
		t.Errorf("expected slot reuse with new generation: old %v new %v", s, reused)
	}
	if _, ok := TryGet[int](rt, s); ok {
		t.Error("stale handle resolved to the reused slot")
	}

	err, ok := mustPanic(t, func() { Get[int](rt, s) }).(error)
	if !ok {
		t.Fatal("panic value is not an error")
	}
	if !errors.Is(err, ErrDisposed) {
		t.Errorf("panic %v does not wrap ErrDisposed", err)
	}
	if rerrors.CodeOf(err) != rerrors.CodeStaleHandle {
		t.Errorf("code = %q, want %q", rerrors.CodeOf(err), rerrors.CodeStaleHandle)
	}
	if DebugInfo {
		if got := err.Error(); !containsAll(got, "R001", "count", "runtime_test.go") {
			t.Errorf("panic message %q lacks label or site", got)
		}
	}
}

func TestTypeMismatch(t *testing.T) {
	rt, logs := newLoggedRuntime(t)
	s := CreateSignal(rt, 1)

	if _, ok := TryGet[string](rt, s); ok {
		t.Error("TryGet[string] on int signal succeeded")
	}
	if !containsAll(logs.String(), "type mismatch", "want=string", "got=int") {
		t.Errorf("mismatch not logged: %s", logs.String())
	}
	if Update(rt, s, func(*string) { t.Error("mutator called on mismatch") }) {
		t.Error("Update with wrong type succeeded")
	}

	err := mustPanic(t, func() { Get[string](rt, s) }).(error)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("panic %v does not wrap ErrTypeMismatch", err)
	}
	if rerrors.CodeOf(err) != rerrors.CodeTypeMismatch {
		t.Errorf("code = %q, want %q", rerrors.CodeOf(err), rerrors.CodeTypeMismatch)
	}
}

func TestCurrentOwner(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := rt.CurrentOwner(); !errors.Is(err, ErrNoOwner) {
		t.Errorf("CurrentOwner() outside scope: %v", err)
	}

	var inside NodeID
	scope := rt.CreateScope(func() {
		inside, _ = rt.CurrentOwner()
	})
	if inside != scope {
		t.Errorf("CurrentOwner() = %v, want %v", inside, scope)
	}
}

func TestNodeIntrospection(t *testing.T) {
	rt := newTestRuntime(t)
	var s, e NodeID
	scope := rt.CreateScope(func() {
		s = CreateSignal(rt, 0)
		e = rt.CreateEffect(func() {})
	})

	if k, ok := rt.Kind(s); !ok || k != KindSignal {
		t.Errorf("Kind(s) = %v, %v", k, ok)
	}
	if k, _ := rt.Kind(e); k != KindEffect {
		t.Errorf("Kind(e) = %v", k)
	}
	if p, _ := rt.Parent(s); p != scope {
		t.Errorf("Parent(s) = %v, want %v", p, scope)
	}
	if p, _ := rt.Parent(scope); !p.IsZero() {
		t.Errorf("scope should be a root, parent = %v", p)
	}
	children := rt.Children(scope)
	if len(children) != 2 || children[0] != s || children[1] != e {
		t.Errorf("Children = %v", children)
	}
	if DebugInfo && rt.DefinedAt(s) == "" {
		t.Error("DefinedAt is empty")
	}
}

func TestGoroutineCheck(t *testing.T) {
	rt := newTestRuntime(t, WithGoroutineCheck())
	s := CreateSignal(rt, 0)

	done := make(chan any)
	go func() {
		defer func() { done <- recover() }()
		Set(rt, s, 1)
	}()

	r := <-done
	err, ok := r.(error)
	if !ok || !errors.Is(err, ErrWrongGoroutine) {
		t.Fatalf("expected ErrWrongGoroutine panic, got %v", r)
	}
	if v := Get[int](rt, s); v != 0 {
		t.Errorf("value changed from another goroutine: %d", v)
	}
}

func TestKindString(t *testing.T) {
	want := []string{"scope", "signal", "effect", "memo", "stored", "callback", "noderef"}
	for i, k := range Kinds {
		if k.String() != want[i] {
			t.Errorf("%d.String() = %q, want %q", k, k.String(), want[i])
		}
	}
	if NodeKind(0).String() != "unknown" {
		t.Error("zero kind should be unknown")
	}
}

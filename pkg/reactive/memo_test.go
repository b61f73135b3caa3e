package reactive

import (
	"reflect"
	"testing"
)

func TestMemoBasic(t *testing.T) {
	rt := newTestRuntime(t)
	count := CreateSignal(rt, 2)
	double := CreateMemo(rt, func() int { return Get[int](rt, count) * 2 })

	if v := Get[int](rt, double); v != 4 {
		t.Errorf("double = %d, want 4", v)
	}
	Set(rt, count, 5)
	if v := Get[int](rt, double); v != 10 {
		t.Errorf("double = %d, want 10", v)
	}
}

func TestMemoIsLazy(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 1)
	computations := 0
	m := CreateMemo(rt, func() int {
		computations++
		return Get[int](rt, s) + 1
	})
	if computations != 1 {
		t.Fatalf("computations = %d after create, want 1", computations)
	}

	Set(rt, s, 2)
	Set(rt, s, 3)
	if computations != 1 {
		t.Errorf("unread memo recomputed: %d", computations)
	}

	if v := Get[int](rt, m); v != 4 {
		t.Errorf("m = %d, want 4", v)
	}
	_ = Get[int](rt, m)
	if computations != 2 {
		t.Errorf("computations = %d, want 2", computations)
	}
}

func TestMemoGlitchFree(t *testing.T) {
	rt := newTestRuntime(t)
	a := CreateSignal(rt, 0)
	even := CreateMemo(rt, func() bool { return Get[int](rt, a)%2 == 0 })

	runs := 0
	rt.CreateEffect(func() {
		_ = Get[bool](rt, even)
		runs++
	})

	Set(rt, a, 2)
	if runs != 1 {
		t.Errorf("effect re-ran although memo value was unchanged: runs = %d", runs)
	}
	if s := rt.Stats(); s.SkippedRuns != 1 {
		t.Errorf("SkippedRuns = %d, want 1", s.SkippedRuns)
	}

	Set(rt, a, 3)
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestMemoDiamond(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 0)
	left := CreateMemo(rt, func() int { return Get[int](rt, s) * 2 })
	right := CreateMemo(rt, func() int { return Get[int](rt, s) * 3 })

	var sums []int
	rt.CreateEffect(func() {
		sums = append(sums, Get[int](rt, left)+Get[int](rt, right))
	})

	Set(rt, s, 1)
	if len(sums) != 2 || sums[1] != 5 {
		t.Errorf("sums = %v, want [0 5]", sums)
	}
	Set(rt, s, 2)
	if len(sums) != 3 || sums[2] != 10 {
		t.Errorf("sums = %v, want [0 5 10]", sums)
	}
}

func TestMemoChainWithUnchangedLink(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 1)
	sign := CreateMemo(rt, func() int {
		if Get[int](rt, s) < 0 {
			return -1
		}
		return 1
	})
	label := CreateMemo(rt, func() string {
		if Get[int](rt, sign) < 0 {
			return "negative"
		}
		return "positive"
	})

	labelRuns := 0
	var labels []string
	rt.CreateEffect(func() {
		labels = append(labels, Get[string](rt, label))
		labelRuns++
	})

	Set(rt, s, 5)
	Set(rt, s, 10)
	if labelRuns != 1 {
		t.Errorf("effect re-ran %d times for unchanged sign", labelRuns-1)
	}
	Set(rt, s, -3)
	if len(labels) != 2 || labels[1] != "negative" {
		t.Errorf("labels = %v", labels)
	}
}

func TestMemoWithPreviousValue(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 1)

	var prevs []*int
	total := CreateMemoWith(rt, func(prev *int) int {
		prevs = append(prevs, prev)
		base := 0
		if prev != nil {
			base = *prev
		}
		return base + Get[int](rt, s)
	}, nil)

	Set(rt, s, 2)
	if v := Get[int](rt, total); v != 3 {
		t.Errorf("total = %d, want 3", v)
	}
	if len(prevs) != 2 || prevs[0] != nil || prevs[1] == nil || *prevs[1] != 1 {
		t.Errorf("unexpected prev values")
	}
}

func TestMemoNilEqualAlwaysNotifies(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 0)
	m := CreateMemoWith(rt, func(*int) int { _ = Get[int](rt, s); return 1 }, nil)

	runs := 0
	rt.CreateEffect(func() {
		_ = Get[int](rt, m)
		runs++
	})
	Set(rt, s, 1)
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestDerivedDeepEqual(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 3)
	evens := CreateDerived(rt, func() []int {
		var out []int
		for i := 0; i <= Get[int](rt, s); i += 2 {
			out = append(out, i)
		}
		return out
	})

	runs := 0
	rt.CreateEffect(func() {
		_ = Get[[]int](rt, evens)
		runs++
	})

	Set(rt, s, 2) // still [0 2]
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
	Set(rt, s, 4)
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestSliceProjection(t *testing.T) {
	type user struct {
		Name string
		Age  int
	}
	rt := newTestRuntime(t)
	u := CreateSignal(rt, user{Name: "ann", Age: 30})
	name := Slice(rt, u, func(u *user) string { return u.Name })

	var names []string
	rt.CreateEffect(func() {
		names = append(names, Get[string](rt, name))
	})

	Update(rt, u, func(u *user) { u.Age++ })
	if len(names) != 1 {
		t.Errorf("age change re-ran name effect: %v", names)
	}
	Update(rt, u, func(u *user) { u.Name = "bob" })
	if len(names) != 2 || names[1] != "bob" {
		t.Errorf("names = %v", names)
	}
}

func TestMemoTrackedInsideMemo(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 1)
	m := CreateMemo(rt, func() int { return Get[int](rt, s) })
	outer := CreateMemo(rt, func() int { return Get[int](rt, m) + 100 })

	if deps := depsOf(rt, outer); len(deps) != 1 || deps[0] != m {
		t.Errorf("outer deps = %v, want [%v]", deps, m)
	}
	Set(rt, s, 2)
	if v := Get[int](rt, outer); v != 102 {
		t.Errorf("outer = %d, want 102", v)
	}
}

func TestDefaultEquals(t *testing.T) {
	if !defaultEquals(1, 1) || defaultEquals(1, 2) {
		t.Error("int comparison")
	}
	if !defaultEquals("a", "a") || defaultEquals("a", "b") {
		t.Error("string comparison")
	}
	if !defaultEquals([]int{1}, []int{1}) || defaultEquals([]int{1}, []int{2}) {
		t.Error("slice comparison")
	}
	if !defaultEquals[any](1, 1) || defaultEquals[any](1, "1") {
		t.Error("interface comparison")
	}
	if defaultEquals[any](1, int64(1)) {
		t.Error("different dynamic types compared equal")
	}
}

func TestMemoOverInterfaceType(t *testing.T) {
	rt := newTestRuntime(t)
	s := CreateSignal(rt, 1)
	m := CreateMemo(rt, func() any {
		return make([]int, Get[int](rt, s))
	})

	runs := 0
	rt.CreateEffect(func() {
		_ = Get[any](rt, m)
		runs++
	})

	rt.NotifySignal(s) // same slice contents
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
	Set(rt, s, 2)
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestHoldsInterface(t *testing.T) {
	type plain struct {
		A int
		B string
	}
	type boxed struct {
		A int
		V any
	}
	cases := []struct {
		typ  reflect.Type
		want bool
	}{
		{reflect.TypeFor[int](), false},
		{reflect.TypeFor[plain](), false},
		{reflect.TypeFor[[2]plain](), false},
		{reflect.TypeFor[*any](), false},
		{reflect.TypeFor[any](), true},
		{reflect.TypeFor[error](), true},
		{reflect.TypeFor[boxed](), true},
		{reflect.TypeFor[[3]boxed](), true},
	}
	for _, c := range cases {
		if got := holdsInterface(c.typ); got != c.want {
			t.Errorf("holdsInterface(%v) = %v, want %v", c.typ, got, c.want)
		}
	}
}

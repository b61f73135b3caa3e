package reactive

import "testing"

func BenchmarkCreateSignal(b *testing.B) {
	rt := newTestRuntime(b)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rt.Dispose(CreateSignal(rt, i))
	}
}

func BenchmarkGetUntracked(b *testing.B) {
	rt := newTestRuntime(b)
	s := CreateSignal(rt, 42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GetUntracked[int](rt, s)
	}
}

func BenchmarkSetNoSubscribers(b *testing.B) {
	rt := newTestRuntime(b)
	s := CreateSignal(rt, 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Set(rt, s, i)
	}
}

func BenchmarkSet1Effect(b *testing.B) {
	rt := newTestRuntime(b)
	s := CreateSignal(rt, 0)
	rt.CreateEffect(func() { _ = Get[int](rt, s) })
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Set(rt, s, i)
	}
}

func BenchmarkSet10Effects(b *testing.B) {
	rt := newTestRuntime(b)
	s := CreateSignal(rt, 0)
	for j := 0; j < 10; j++ {
		rt.CreateEffect(func() { _ = Get[int](rt, s) })
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Set(rt, s, i)
	}
}

func BenchmarkMemoCached(b *testing.B) {
	rt := newTestRuntime(b)
	s := CreateSignal(rt, 2)
	m := CreateMemo(rt, func() int { return Get[int](rt, s) * 2 })
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GetUntracked[int](rt, m)
	}
}

func BenchmarkDiamond(b *testing.B) {
	rt := newTestRuntime(b)
	s := CreateSignal(rt, 0)
	l := CreateMemo(rt, func() int { return Get[int](rt, s) + 1 })
	r := CreateMemo(rt, func() int { return Get[int](rt, s) * 2 })
	rt.CreateEffect(func() { _ = Get[int](rt, l) + Get[int](rt, r) })
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Set(rt, s, i)
	}
}

func BenchmarkBatch100Updates(b *testing.B) {
	rt := newTestRuntime(b)
	s := CreateSignal(rt, 0)
	rt.CreateEffect(func() { _ = Get[int](rt, s) })
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rt.Batch(func() {
			for j := 0; j < 100; j++ {
				Set(rt, s, j)
			}
		})
	}
}

func BenchmarkScopeChurn(b *testing.B) {
	rt := newTestRuntime(b)
	s := CreateSignal(rt, 0)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		scope := rt.CreateScope(func() {
			for j := 0; j < 8; j++ {
				rt.CreateEffect(func() { _ = Get[int](rt, s) })
			}
		})
		rt.Dispose(scope)
	}
}

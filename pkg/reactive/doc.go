// Package reactive is a fine-grained reactive runtime: signals hold values,
// effects and memos re-run when the signals they read change, and an
// ownership tree disposes everything a scope created when the scope goes
// away.
//
// # Runtime
//
// All state lives in an explicitly constructed *Runtime. Nodes are addressed
// by NodeID handles (slot index plus generation), so a handle to a disposed
// node never resolves to whatever reuses its slot:
//
//	rt := reactive.NewRuntime()
//	count := reactive.CreateSignal(rt, 0)
//	rt.CreateEffect(func() {
//	    fmt.Println("count:", reactive.Get[int](rt, count))
//	})
//	reactive.Set(rt, count, 1) // prints "count: 1"
//
// A Runtime is confined to the goroutine that uses it. It takes no locks;
// nested calls from inside computations are expected and handled.
//
// # Tracking
//
// Reading a signal or memo with Get, TryGet or With inside an effect or memo
// records a dependency. Each run rebuilds the dependency set from scratch,
// so conditional reads are handled naturally. Reading the same signal many
// times in one run records one edge.
//
// # Scheduling
//
// Update and Set apply the new value immediately and queue the affected
// effects. Outside of a Batch the queue is flushed before the call returns.
// Flushing is iterative and first-in first-out; an effect runs at most once
// per flush no matter how many of its dependencies changed.
//
// Memos are evaluated lazily. A memo whose inputs changed is recomputed when
// something reads it; if the result is equal to the previous value, nothing
// downstream re-runs.
//
// # Ownership
//
// Every node is created under the current owner: the running effect or
// memo, or the scope passed to CreateScope or RunInScope. Disposing a node
// disposes its children first, then runs its OnCleanup callbacks, then
// removes it from every subscriber list and frees its storage. Re-running a
// computation disposes the children of its previous run.
//
// # Typed handles
//
// Signal, ReadSignal, WriteSignal, Memo, StoredValue, Callback and NodeRef
// wrap a NodeID and the runtime for ergonomic use:
//
//	name := reactive.NewSignal(rt, "world")
//	greeting := reactive.NewMemo(rt, func() string { return "hello " + name.Get() })
//	name.Set("gopher")
//	fmt.Println(greeting.Get())
package reactive

// Package errors provides coded, structured diagnostics for the reactive
// runtime and its tooling.
//
// Every error carries a registry code (e.g. "R001") that maps to a short
// message and a longer explanation. Runtime errors about a specific node can
// carry the node's handle, its debug label and the source location where it
// was created, so a panic on a stale handle points at the code that made the
// node:
//
//	err := errors.New(errors.CodeStaleHandle).
//	    WithNode("12:3", "counter").
//	    WithLocationString("app/counter.go:42").
//	    Wrap(reactive.ErrDisposed)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R001: Handle refers to a disposed node
//	//
//	//   node 12:3 "counter"
//	//   app/counter.go:42
//	//
//	//     40 │ func Counter(rt *reactive.Runtime) {
//	//     41 │     ...
//	//   → 42 │     count := reactive.CreateSignal(rt, 0)
//	//     ...
package errors

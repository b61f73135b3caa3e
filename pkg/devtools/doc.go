// Package devtools serves a live view of a reactive runtime over HTTP.
//
// A Publisher observes the runtime and takes rate-limited snapshots of its
// graph on the runtime's goroutine. A Server exposes the latest snapshot as
// JSON, streams new snapshots to WebSocket clients and serves Prometheus
// metrics:
//
//	GET /api/graph          latest graph (?format=zstd for a compressed body)
//	GET /api/stats          latest runtime counters
//	GET /api/nodes/{id}     one node of the latest graph
//	GET /healthz            liveness
//	GET /metrics            Prometheus metrics
//	GET /ws                 snapshot stream
//
// Example:
//
//	pub := devtools.NewPublisher(250 * time.Millisecond)
//	rt := reactive.NewRuntime(reactive.WithObserver(pub))
//	pub.Bind(rt)
//	srv := devtools.NewServer(pub, devtools.WithAddr("localhost:7070"))
//	go srv.Run(ctx)
package devtools

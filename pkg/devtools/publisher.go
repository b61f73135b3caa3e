package devtools

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/vango-dev/reactive/pkg/reactive"
	"github.com/vango-dev/reactive/pkg/snapshot"
)

// Publisher snapshots a runtime after flushes, at most once per interval,
// and hands the snapshots to other goroutines. Install it as an observer,
// then Bind it to the runtime.
type Publisher struct {
	reactive.NopObserver

	rt      *reactive.Runtime
	limiter *rate.Limiter
	latest  atomic.Pointer[snapshot.Graph]
	updates chan *snapshot.Graph
	taken   atomic.Uint64
}

var _ reactive.Observer = (*Publisher)(nil)

// NewPublisher creates a publisher. An interval <= 0 publishes after every
// flush.
func NewPublisher(interval time.Duration) *Publisher {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Publisher{
		limiter: rate.NewLimiter(limit, 1),
		updates: make(chan *snapshot.Graph, 1),
	}
}

// Bind sets the runtime to snapshot. It must be called on the runtime's
// goroutine before the first flush.
func (p *Publisher) Bind(rt *reactive.Runtime) {
	p.rt = rt
}

// FlushFinished publishes a snapshot unless one was published too recently.
func (p *Publisher) FlushFinished(reactive.FlushStats) {
	if p.rt == nil || !p.limiter.Allow() {
		return
	}
	p.Publish()
}

// Publish takes a snapshot now, regardless of the rate limit. It must be
// called on the runtime's goroutine.
func (p *Publisher) Publish() *snapshot.Graph {
	if p.rt == nil {
		return nil
	}
	g := p.rt.Snapshot()
	p.latest.Store(g)
	p.taken.Add(1)

	// Keep only the newest pending snapshot.
	select {
	case p.updates <- g:
	default:
		select {
		case <-p.updates:
		default:
		}
		select {
		case p.updates <- g:
		default:
		}
	}
	return g
}

// Latest returns the most recent snapshot, or nil. Safe from any goroutine.
func (p *Publisher) Latest() *snapshot.Graph {
	return p.latest.Load()
}

// Updates delivers new snapshots. Slow readers only see the newest one.
func (p *Publisher) Updates() <-chan *snapshot.Graph {
	return p.updates
}

// Published returns the number of snapshots taken.
func (p *Publisher) Published() uint64 {
	return p.taken.Load()
}

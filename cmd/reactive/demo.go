package main

import (
	"fmt"

	"github.com/vango-dev/reactive/pkg/reactive"
)

type todo struct {
	Title string
	Done  bool
}

// demo is the small todo-list graph served by inspect and exported by
// snapshot.
type demo struct {
	rt *reactive.Runtime

	todos     reactive.Signal[[]todo]
	filter    reactive.Signal[string]
	visible   reactive.Memo[[]todo]
	remaining reactive.Memo[int]
	history   reactive.StoredValue[[]string]
	toggle    reactive.Callback[int]
	rendered  int

	scope reactive.NodeID
	steps int
}

var demoFilters = []string{"all", "active", "done"}

func newDemo(rt *reactive.Runtime) *demo {
	d := &demo{rt: rt}
	d.scope = rt.CreateScope(func() {
		d.todos = reactive.NewSignal(rt, []todo{
			{Title: "write docs"},
			{Title: "ship release"},
			{Title: "review patches", Done: true},
		}).WithName("todos")
		d.filter = reactive.NewSignal(rt, "all").WithName("filter")

		d.visible = reactive.NewDerived(rt, func() []todo {
			filter := d.filter.Get()
			var out []todo
			for _, t := range d.todos.Get() {
				if filter == "all" || (filter == "done") == t.Done {
					out = append(out, t)
				}
			}
			return out
		}).WithName("visible")

		d.remaining = reactive.NewMemo(rt, func() int {
			n := 0
			for _, t := range d.todos.Get() {
				if !t.Done {
					n++
				}
			}
			return n
		}).WithName("remaining")

		d.history = reactive.NewStoredValue[[]string](rt, nil)
		rt.SetDebugLabel(d.history.ID(), "history")

		d.toggle = reactive.NewCallback(rt, func(i int) {
			d.todos.Mutate(func(ts *[]todo) {
				if i >= 0 && i < len(*ts) {
					(*ts)[i].Done = !(*ts)[i].Done
				}
			})
		})
		rt.SetDebugLabel(d.toggle.ID(), "toggle")

		watch := reactive.Watch(rt, d.remaining.Get, func(n, prev int) {
			d.history.Update(func(h *[]string) {
				*h = append(*h, fmt.Sprintf("remaining %d -> %d", prev, n))
			})
		}, false)
		rt.SetDebugLabel(watch, "remaining-watch")

		render := rt.CreateEffect(func() {
			d.visible.Get()
			d.rendered++
		})
		rt.SetDebugLabel(render, "render")
	})
	rt.SetDebugLabel(d.scope, "todo-app")
	return d
}

// step applies the next scripted change to the graph.
func (d *demo) step() {
	n := d.steps
	d.steps++

	switch n % 3 {
	case 0:
		d.toggle.Call(n % len(d.todos.Peek()))
	case 1:
		d.filter.Set(demoFilters[(n/3)%len(demoFilters)])
	case 2:
		d.rt.Batch(func() {
			d.todos.Update(func(ts []todo) []todo {
				return append(ts[:len(ts):len(ts)], todo{Title: fmt.Sprintf("task %d", n)})
			})
			d.filter.Set("all")
		})
	}
}

// changes returns the transitions recorded by the remaining-watch effect.
func (d *demo) changes() []string {
	return d.history.Get()
}

func (d *demo) dispose() {
	d.rt.Dispose(d.scope)
}

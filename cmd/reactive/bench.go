package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/reactive/internal/config"
	rerrors "github.com/vango-dev/reactive/internal/errors"
	"github.com/vango-dev/reactive/pkg/reactive"
	"github.com/vango-dev/reactive/pkg/tracing"
)

// profile sizes the synthetic graphs. Width is the chain length, the fan-out
// or the number of batched signals, depending on the scenario.
type profile struct {
	Name       string
	Width      int
	Iterations int
}

var profiles = map[string]profile{
	"fast": {
		Name:       "fast",
		Width:      100,
		Iterations: 200,
	},
	"standard": {
		Name:       "standard",
		Width:      1_000,
		Iterations: 1_000,
	},
	"stress": {
		Name:       "stress",
		Width:      10_000,
		Iterations: 2_000,
	},
}

type scenario struct {
	Name  string
	Usage string
	Run   func(rt *reactive.Runtime, p profile, iterations int)
}

var scenarios = []scenario{
	{Name: "chain", Usage: "signal -> Width memos in a row -> effect", Run: benchChain},
	{Name: "fanout", Usage: "one signal read by Width effects", Run: benchFanout},
	{Name: "diamond", Usage: "signal -> Width memos -> summing memo -> effect", Run: benchDiamond},
	{Name: "batch", Usage: "Width signals written in one batch, one effect", Run: benchBatch},
	{Name: "churn", Usage: "create and dispose a scope of Width/10 nodes", Run: benchChurn},
}

type benchOptions struct {
	Profile    string
	Scenarios  []string
	Iterations int
	Trace      bool
	JSONOutput string
}

// benchResult is one row of the report.
type benchResult struct {
	Scenario    string        `json:"scenario"`
	Profile     string        `json:"profile"`
	Width       int           `json:"width"`
	Iterations  int           `json:"iterations"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	NsPerOp     float64       `json:"ns_per_op"`
	Runs        uint64        `json:"runs"`
	SkippedRuns uint64        `json:"skipped_runs"`
	Flushes     uint64        `json:"flushes"`
	LiveNodes   int           `json:"live_nodes"`
	Spans       int           `json:"spans,omitempty"`
}

func benchCmd(g *globalFlags) *cobra.Command {
	var opts benchOptions

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark propagation on synthetic graphs",
		Long: `Build synthetic dependency graphs and time how long updates take
to propagate through them.

Scenarios:
` + scenarioHelp() + `
Profiles: fast, standard, stress.

Examples:
  reactive bench
  reactive bench --profile=stress --scenario=chain,diamond
  reactive bench --trace --json=results.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(cmd)
			if err != nil {
				return err
			}
			return runBench(cmd.Context(), cmd.OutOrStdout(), cfg, logger, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Profile, "profile", "p", "", "Profile: fast, standard, stress (default from config)")
	cmd.Flags().StringSliceVarP(&opts.Scenarios, "scenario", "s", nil, "Scenarios to run (default: all)")
	cmd.Flags().IntVarP(&opts.Iterations, "iterations", "n", 0, "Updates per scenario (default from profile)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "Record flushes as OpenTelemetry spans")
	cmd.Flags().StringVar(&opts.JSONOutput, "json", "", "Write results as JSON to this file")

	return cmd
}

func scenarioHelp() string {
	var b strings.Builder
	for _, s := range scenarios {
		fmt.Fprintf(&b, "  %-8s %s\n", s.Name, s.Usage)
	}
	return b.String()
}

func resolveBench(cfg *config.Config, opts benchOptions) (profile, []scenario, int, error) {
	name := opts.Profile
	if name == "" {
		name = cfg.Bench.Profile
	}
	p, ok := profiles[name]
	if !ok {
		names := make([]string, 0, len(profiles))
		for n := range profiles {
			names = append(names, n)
		}
		sort.Strings(names)
		return profile{}, nil, 0, rerrors.New(rerrors.CodeConfigInvalid).
			WithDetail(fmt.Sprintf("unknown profile %q (available: %s)", name, strings.Join(names, ", ")))
	}

	iterations := p.Iterations
	if cfg.Bench.Iterations > 0 {
		iterations = cfg.Bench.Iterations
	}
	if opts.Iterations > 0 {
		iterations = opts.Iterations
	}

	if len(opts.Scenarios) == 0 {
		return p, scenarios, iterations, nil
	}
	var selected []scenario
	for _, name := range opts.Scenarios {
		found := false
		for _, s := range scenarios {
			if s.Name == name {
				selected = append(selected, s)
				found = true
				break
			}
		}
		if !found {
			return profile{}, nil, 0, rerrors.New(rerrors.CodeConfigInvalid).
				WithDetail(fmt.Sprintf("unknown scenario %q", name))
		}
	}
	return p, selected, iterations, nil
}

func runBench(ctx context.Context, w io.Writer, cfg *config.Config, logger *slog.Logger, opts benchOptions) error {
	p, selected, iterations, err := resolveBench(cfg, opts)
	if err != nil {
		return err
	}

	var results []benchResult
	for _, s := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := runScenario(ctx, cfg, logger, s, p, iterations, opts.Trace || cfg.Tracing.Enabled)
		if err != nil {
			return err
		}
		logger.Debug("bench: scenario finished", "scenario", s.Name, "elapsed", res.Elapsed)
		results = append(results, res)
	}

	printResults(w, p, results)

	if opts.JSONOutput != "" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.JSONOutput, append(data, '\n'), 0644); err != nil {
			return err
		}
		success(w, "Results written to %s", opts.JSONOutput)
	}
	return nil
}

func runScenario(ctx context.Context, cfg *config.Config, logger *slog.Logger, s scenario, p profile, iterations int, trace bool) (benchResult, error) {
	_, collector := newRegistry(cfg)

	var (
		tracer   reactive.Observer
		recorder *tracetest.SpanRecorder
		tp       *sdktrace.TracerProvider
	)
	if trace {
		recorder = tracetest.NewSpanRecorder()
		tp = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		tracer = tracing.New(
			tracing.WithTracerProvider(tp),
			tracing.WithTracerName(cfg.Tracing.TracerName),
			tracing.WithContext(ctx),
			tracing.WithRecordComputations(false),
			tracing.WithAttributes(
				attribute.String("bench.scenario", s.Name),
				attribute.String("bench.profile", p.Name),
			),
		)
	}

	rt := reactive.NewRuntime(runtimeOptions(cfg, logger, collector, tracer)...)

	start := time.Now()
	s.Run(rt, p, iterations)
	elapsed := time.Since(start)

	if err := rt.LastError(); err != nil {
		return benchResult{}, err
	}

	stats := rt.Stats()
	res := benchResult{
		Scenario:    s.Name,
		Profile:     p.Name,
		Width:       p.Width,
		Iterations:  iterations,
		Elapsed:     elapsed,
		Runs:        stats.Runs,
		SkippedRuns: stats.SkippedRuns,
		Flushes:     stats.Flushes,
		LiveNodes:   stats.Nodes,
	}
	if iterations > 0 {
		res.NsPerOp = float64(elapsed.Nanoseconds()) / float64(iterations)
	}

	if tp != nil {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			return benchResult{}, err
		}
		res.Spans = len(recorder.Ended())
	}
	return res, nil
}

func printResults(w io.Writer, p profile, results []benchResult) {
	fmt.Fprintf(w, "\nprofile %s (width %d)\n\n", p.Name, p.Width)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tITERATIONS\tNS/OP\tRUNS\tSKIPPED\tFLUSHES\tNODES\tSPANS")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%.0f\t%d\t%d\t%d\t%d\t%d\n",
			r.Scenario, r.Iterations, r.NsPerOp, r.Runs, r.SkippedRuns, r.Flushes, r.LiveNodes, r.Spans)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

var benchSink int

func benchChain(rt *reactive.Runtime, p profile, iterations int) {
	src := reactive.NewSignal(rt, 0)
	prev := src.ReadOnly()
	for i := 0; i < p.Width; i++ {
		in := prev
		prev = reactive.NewMemo(rt, func() int { return in.Get() + 1 }).ReadSignal
	}
	last := prev
	rt.CreateEffect(func() { benchSink = last.Get() })

	for i := 1; i <= iterations; i++ {
		src.Set(i)
	}
}

func benchFanout(rt *reactive.Runtime, p profile, iterations int) {
	src := reactive.NewSignal(rt, 0)
	for i := 0; i < p.Width; i++ {
		rt.CreateEffect(func() { benchSink += src.Get() })
	}

	for i := 1; i <= iterations; i++ {
		src.Set(i)
	}
}

func benchDiamond(rt *reactive.Runtime, p profile, iterations int) {
	src := reactive.NewSignal(rt, 0)
	arms := make([]reactive.Memo[int], p.Width)
	for i := range arms {
		k := i
		arms[i] = reactive.NewMemo(rt, func() int { return src.Get() * k })
	}
	sum := reactive.NewMemo(rt, func() int {
		total := 0
		for _, m := range arms {
			total += m.Get()
		}
		return total
	})
	rt.CreateEffect(func() { benchSink = sum.Get() })

	for i := 1; i <= iterations; i++ {
		src.Set(i)
	}
}

func benchBatch(rt *reactive.Runtime, p profile, iterations int) {
	signals := make([]reactive.Signal[int], p.Width)
	for i := range signals {
		signals[i] = reactive.NewSignal(rt, 0)
	}
	rt.CreateEffect(func() {
		total := 0
		for _, s := range signals {
			total += s.Get()
		}
		benchSink = total
	})

	for i := 1; i <= iterations; i++ {
		rt.Batch(func() {
			for _, s := range signals {
				s.Set(i)
			}
		})
	}
}

func benchChurn(rt *reactive.Runtime, p profile, iterations int) {
	size := max(p.Width/10, 1)
	for i := 0; i < iterations; i++ {
		scope := rt.CreateScope(func() {
			for j := 0; j < size; j++ {
				s := reactive.NewSignal(rt, j)
				m := reactive.NewMemo(rt, func() int { return s.Get() * 2 })
				rt.CreateEffect(func() { benchSink = m.Get() })
				rt.OnCleanup(func() { benchSink-- })
			}
		})
		rt.Dispose(scope)
	}
}

package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/reactive/internal/config"
	"github.com/vango-dev/reactive/pkg/devtools"
	"github.com/vango-dev/reactive/pkg/reactive"
)

type inspectOptions struct {
	Port int
	Host string
	Tick time.Duration
}

func inspectCmd(g *globalFlags) *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Serve a live demo graph to the inspector",
		Long: `Build a demo todo-list graph, mutate it on a timer, and serve its
snapshots over HTTP and WebSocket.

Endpoints:
  /api/graph      latest snapshot (?format=zstd for compressed)
  /api/stats      runtime counters
  /api/nodes/{id} one node
  /metrics        Prometheus metrics
  /ws             snapshot stream

Examples:
  reactive inspect
  reactive inspect --port=9090 --tick=100ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(cmd)
			if err != nil {
				return err
			}
			if opts.Port > 0 {
				cfg.Devtools.Port = opts.Port
			}
			if opts.Host != "" {
				cfg.Devtools.Host = opts.Host
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.DevtoolsAddress())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printBanner(out)
			success(out, "Inspector running at http://%s", ln.Addr())
			info(out, "Press Ctrl+C to stop")

			return runInspect(ctx, out, cfg, logger, ln, opts.Tick)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&opts.Host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().DurationVar(&opts.Tick, "tick", time.Second, "Interval between demo updates (0 disables)")

	return cmd
}

// runInspect serves the demo graph on ln until ctx is canceled. The runtime
// is driven from the calling goroutine only; the server reads snapshots
// through the publisher.
func runInspect(ctx context.Context, w io.Writer, cfg *config.Config, logger *slog.Logger, ln net.Listener, tick time.Duration) error {
	interval, err := cfg.PublishInterval()
	if err != nil {
		return err
	}

	reg, collector := newRegistry(cfg)
	pub := devtools.NewPublisher(interval)
	rt := reactive.NewRuntime(runtimeOptions(cfg, logger, collector, pub)...)
	pub.Bind(rt)

	d := newDemo(rt)
	defer d.dispose()
	pub.Publish()

	srv := devtools.NewServer(pub,
		devtools.WithAllowedOrigins(cfg.Devtools.AllowedOrigins...),
		devtools.WithGatherer(reg),
		devtools.WithLogger(logger),
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Serve(ctx, ln)
	})

	var ticks <-chan time.Time
	if tick > 0 {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		ticks = ticker.C
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticks:
			d.step()
			if err := rt.LastError(); err != nil {
				warn(w, "%v", err)
			}
		}
	}

	if err := group.Wait(); err != nil {
		return err
	}
	stats := rt.Stats()
	info(w, "Stopped after %d steps, %d flushes", d.steps, stats.Flushes)
	return nil
}

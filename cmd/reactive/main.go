package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reactive/internal/config"
	rerrors "github.com/vango-dev/reactive/internal/errors"
	"github.com/vango-dev/reactive/internal/logging"
	"github.com/vango-dev/reactive/pkg/metrics"
	"github.com/vango-dev/reactive/pkg/reactive"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┌─┐┌─┐┌┬┐┬┬  ┬┌─┐
  ├┬┘├┤ ├─┤│   │ │└┐┌┘├┤
  ┴└─└─┘┴ ┴└─┘ ┴ ┴ └┘ └─┘
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		rerrors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "reactive",
		Short: "Tooling for the fine-grained reactive runtime",
		Long: `reactive drives and inspects the fine-grained reactive runtime.

  • bench     measure propagation on synthetic graphs
  • inspect   serve a live dependency graph over HTTP and WebSocket
  • snapshot  export a graph to a file or to S3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "Config file or directory (default: working directory)")
	flags.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&g.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(
		benchCmd(g),
		inspectCmd(g),
		snapshotCmd(g),
		versionCmd(),
	)

	return rootCmd
}

// load resolves the configuration for a command and builds its logger.
// Flags win over environment variables, which win over the config file.
func (g *globalFlags) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.FromConfig(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func (g *globalFlags) loadConfig() (*config.Config, error) {
	if g.configPath == "" {
		return config.LoadOrDefault(".")
	}

	fi, err := os.Stat(g.configPath)
	if err != nil {
		return nil, rerrors.New(rerrors.CodeConfigRead).Wrap(err)
	}
	if fi.IsDir() {
		return config.LoadOrDefault(g.configPath)
	}

	cfg, err := config.LoadFile(g.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newRegistry returns a fresh registry and a metrics observer registered on
// it. The observer is nil when metrics are disabled.
func newRegistry(cfg *config.Config) (*prometheus.Registry, reactive.Observer) {
	reg := prometheus.NewRegistry()
	if cfg.Metrics.Disabled {
		return reg, nil
	}
	return reg, metrics.New(
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithSubsystem(cfg.Metrics.Subsystem),
		metrics.WithRegistry(reg),
	)
}

// runtimeOptions translates the runtime section of cfg into options.
func runtimeOptions(cfg *config.Config, logger *slog.Logger, observers ...reactive.Observer) []reactive.Option {
	opts := []reactive.Option{
		reactive.WithLogger(logger),
		reactive.WithFlushBudget(cfg.Runtime.FlushBudget),
	}
	if cfg.Runtime.GoroutineCheck {
		opts = append(opts, reactive.WithGoroutineCheck())
	}

	var live []reactive.Observer
	for _, o := range observers {
		if o != nil {
			live = append(live, o)
		}
	}
	switch len(live) {
	case 0:
	case 1:
		opts = append(opts, reactive.WithObserver(live[0]))
	default:
		opts = append(opts, reactive.WithObserver(reactive.Observers(live...)))
	}
	return opts
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

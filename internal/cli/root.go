// Package cli implements the tooluse command line: listing and calling the local tools and
// demonstrating serial execution and failure fallback.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/functions"
	"github.com/skosovsky/tooluse/internal/config"
	promexp "github.com/skosovsky/tooluse/observability/prometheus"
	"github.com/skosovsky/tooluse/serial"
)

// app is the state shared by the commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string

	cfg     *config.Config
	logger  *slog.Logger
	reg     *tooluse.Registry
	metrics *prom.Registry // nil unless metrics.enabled
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// NewRootCommand builds the command tree. Each call returns an independent tree with its own
// viper instance, so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:   "tooluse",
		Short: "Run LLM tool functions locally",
		Long: `tooluse registers the local tool functions a model can call and runs them
the way an orchestrator would: validated arguments, per-call timeouts, parallel batches,
and one-at-a-time execution for tools that must not run concurrently.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is $HOME/.config/tooluse/config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.Bool("metrics", false, "print serial queue metrics after the command")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("metrics.enabled", flags.Lookup("metrics"))

	root.AddCommand(
		newToolsCommand(a),
		newCallCommand(a),
		newParallelCommand(a),
		newFallbackCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.Init(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log)

	opts := []tooluse.RegistryOption{
		tooluse.WithDefaultTimeout(cfg.Registry.DefaultTimeout),
		tooluse.WithMaxConcurrency(cfg.Registry.MaxConcurrency),
		tooluse.WithLogger(a.logger),
	}
	if cfg.Metrics.Enabled {
		a.metrics = prom.NewRegistry()
		exp, err := promexp.NewMetricsExporter(cfg.Metrics.Namespace, a.metrics, promexp.ExporterOptions{})
		if err != nil {
			return fmt.Errorf("metrics exporter: %w", err)
		}
		opts = append(opts, tooluse.WithSerialQueueOptions(serial.WithMetrics(exp)))
	}
	a.reg = tooluse.NewRegistry(opts...)
	a.reg.Use(tooluse.WithLogging(a.logger))
	return functions.Register(a.reg, a.functionOptions()...)
}

func (a *app) functionOptions(extra ...functions.Option) []functions.Option {
	gd := a.cfg.Functions.GetData
	return append([]functions.Option{functions.WithDelayRange(gd.MinDelay, gd.MaxDelay)}, extra...)
}

func (a *app) teardown(ctx context.Context, w io.Writer) error {
	if a.reg == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.reg.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if a.metrics != nil {
		return renderMetrics(w, a.metrics)
	}
	return nil
}

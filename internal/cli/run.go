package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/di"
	"e2e-harness/internal/domain/entity"
	"e2e-harness/internal/infrastructure/diagnostics"
	"e2e-harness/internal/infrastructure/env"
	"e2e-harness/internal/infrastructure/scenariofile"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ErrScenariosFailed is returned when at least one scenario did not pass.
var ErrScenariosFailed = errors.New("scenarios failed")

type containerFactory func(cfg di.Config) (*di.Container, error)

type RunOptions struct {
	Headless    bool
	Parallel    int
	Artifacts   string
	MetricsAddr string
	Trace       string
	BaseURL     string

	newContainer containerFactory
}

func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(rootOpts, di.NewContainer)
}

func newRunCommand(rootOpts *RootOptions, factory containerFactory) *cobra.Command {
	opts := &RunOptions{newContainer: factory}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Run scenarios, each in its own browser session",
		Long: `Run scenario files against the application under test.

Every scenario gets a fresh browser, context and page that are torn down
when it ends. Scenarios run concurrently up to --parallel. The command
fails when any scenario does not pass.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Headless, "headless", true, "run the browser without a window")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 1, "scenarios to run at the same time")
	cmd.Flags().StringVar(&opts.Artifacts, "artifacts", "", "directory for failure snapshots")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", `write spans to this file ("-" for stderr)`)
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "resolve relative navigate URLs against this origin")

	return cmd
}

func runScenarios(cmd *cobra.Command, rootOpts *RootOptions, opts *RunOptions, paths []string) error {
	if opts.Parallel < 1 {
		return fmt.Errorf("--parallel must be at least 1, got %d", opts.Parallel)
	}

	scenarios := make([]*entity.Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := scenariofile.LoadFile(p)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = opts.Headless
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Artifacts != "" {
		cfg.CaptureDiagnostics = true
	}

	if opts.Trace != "" {
		w, closeTrace, err := openTrace(opts.Trace, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeTrace()
		cfg.TraceOutput = w
	}

	c, err := opts.newContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Close(ctx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "flush traces: %v\n", err)
		}
	}()

	if opts.MetricsAddr != "" {
		stop, err := serveMetrics(opts.MetricsAddr, c)
		if err != nil {
			return err
		}
		defer stop()
	}

	results := runAll(cmd.Context(), c, scenarios, opts.Parallel)

	reports := make([]report, len(results))
	failed := 0
	for i, res := range results {
		reports[i] = newReport(res)
		if !res.Passed() {
			failed++
		}
		if opts.Artifacts != "" && res.Diagnostics != nil {
			written, err := diagnostics.Write(opts.Artifacts, artifactName(res.Name), res.Diagnostics)
			if err != nil {
				c.Logger.Warn("Failed to write diagnostics", "scenario", res.Name, "error", err)
			}
			reports[i].Artifacts = written
		}
	}

	if err := writeReports(cmd.OutOrStdout(), rootOpts.Format, reports); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d: %w", failed, len(results), ErrScenariosFailed)
	}
	return nil
}

// runAll fans scenarios out up to limit at a time. Results keep input order.
func runAll(ctx context.Context, c *di.Container, scenarios []*entity.Scenario, limit int) []*entity.ScenarioResult {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]*entity.ScenarioResult, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, sc := range scenarios {
		g.Go(func() error {
			res, err := c.Runner.RunScenario(gctx, *sc)
			if err != nil {
				c.Logger.Error("Scenario could not start", "scenario", sc.Name, "error", err)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func loadConfig(rootOpts *RootOptions) (di.Config, error) {
	var svc output.ConfigPort
	if len(rootOpts.EnvFiles) > 0 {
		loaded, err := env.NewEnvServiceFromFiles(rootOpts.EnvFiles...)
		if err != nil {
			return di.Config{}, err
		}
		svc = loaded
	} else {
		svc = env.NewEnvService()
	}
	return di.ConfigFromEnv(svc), nil
}

func openTrace(path string, stderr io.Writer) (io.Writer, func(), error) {
	if path == "-" {
		return stderr, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create trace dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func serveMetrics(addr string, c *di.Container) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	r := chi.NewRouter()
	r.Handle("/metrics", c.Metrics.Handler())
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.Logger.Error("Metrics server stopped", "error", err)
		}
	}()
	c.Logger.Info("Serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

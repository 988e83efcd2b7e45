package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"e2e-harness/internal/application/port/input"
	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/application/service"
	"e2e-harness/internal/infrastructure/browser/rod"
	"e2e-harness/internal/infrastructure/diagnostics"
	"e2e-harness/internal/infrastructure/logger"
	"e2e-harness/internal/infrastructure/metrics"
	"e2e-harness/internal/infrastructure/tracing"
	"e2e-harness/internal/usecase/evaluator"
	"e2e-harness/internal/usecase/executor"
	"e2e-harness/internal/usecase/frames"
	"e2e-harness/internal/usecase/locator"
	"e2e-harness/internal/usecase/runner"
	"e2e-harness/internal/usecase/session"
)

type Container struct {
	Config     Config
	Logger     output.LoggerPort
	Automation output.Automation
	Metrics    *metrics.Collector
	Tracing    *tracing.Provider
	Steps      output.StepRegistry
	Runner     input.ScenarioRunner
}

type Config struct {
	// LogName names the log file under ./log.
	LogName  string
	LogLevel string

	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	BrowserBin     string
	SlowMotion     time.Duration

	DefaultTimeout    time.Duration
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	AssertTimeout     time.Duration
	SettleTimeout     time.Duration
	SettleDelay       time.Duration
	PollInterval      time.Duration

	BaseURL            string
	CaptureDiagnostics bool
	ScreenshotMaxWidth int

	// TraceOutput receives exported spans; nil disables tracing.
	TraceOutput io.Writer
}

func DefaultConfig() Config {
	sc := session.DefaultConfig()
	policy := locator.DefaultPolicy()
	return Config{
		LogName:            "harness",
		LogLevel:           "info",
		Headless:           sc.Launch.Headless,
		ViewportWidth:      sc.Launch.ViewportWidth,
		ViewportHeight:     sc.Launch.ViewportHeight,
		DefaultTimeout:     sc.DefaultTimeout,
		NavigationTimeout:  executor.DefaultNavigationTimeout,
		ActionTimeout:      executor.DefaultActionTimeout,
		AssertTimeout:      evaluator.DefaultAssertTimeout,
		SettleTimeout:      frames.DefaultSettleTimeout,
		SettleDelay:        policy.SettleDelay,
		PollInterval:       policy.PollInterval,
		CaptureDiagnostics: true,
		ScreenshotMaxWidth: diagnostics.DefaultMaxWidth,
	}
}

// ConfigFromEnv reads HARNESS_* settings on top of DefaultConfig.
func ConfigFromEnv(env output.ConfigPort) Config {
	cfg := DefaultConfig()
	cfg.LogLevel = env.GetWithDefault("HARNESS_LOG_LEVEL", cfg.LogLevel)
	cfg.Headless = env.GetBool("HARNESS_HEADLESS", cfg.Headless)
	cfg.ViewportWidth = env.GetInt("HARNESS_VIEWPORT_WIDTH", cfg.ViewportWidth)
	cfg.ViewportHeight = env.GetInt("HARNESS_VIEWPORT_HEIGHT", cfg.ViewportHeight)
	cfg.BrowserBin = env.Get("HARNESS_BROWSER_BIN")
	cfg.SlowMotion = env.GetDuration("HARNESS_SLOW_MOTION", cfg.SlowMotion)
	cfg.DefaultTimeout = env.GetDuration("HARNESS_DEFAULT_TIMEOUT", cfg.DefaultTimeout)
	cfg.NavigationTimeout = env.GetDuration("HARNESS_NAVIGATION_TIMEOUT", cfg.NavigationTimeout)
	cfg.ActionTimeout = env.GetDuration("HARNESS_ACTION_TIMEOUT", cfg.ActionTimeout)
	cfg.AssertTimeout = env.GetDuration("HARNESS_ASSERT_TIMEOUT", cfg.AssertTimeout)
	cfg.SettleTimeout = env.GetDuration("HARNESS_SETTLE_TIMEOUT", cfg.SettleTimeout)
	cfg.SettleDelay = env.GetDuration("HARNESS_SETTLE_DELAY", cfg.SettleDelay)
	cfg.PollInterval = env.GetDuration("HARNESS_POLL_INTERVAL", cfg.PollInterval)
	cfg.BaseURL = env.Get("HARNESS_BASE_URL")
	cfg.CaptureDiagnostics = env.GetBool("HARNESS_DIAGNOSTICS", cfg.CaptureDiagnostics)
	return cfg
}

// NewContainer wires the harness against a real Chromium through rod.
func NewContainer(cfg Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(cfg.LogName, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c, err := Build(cfg, rod.NewAutomation(log), log)
	if err != nil {
		log.Close()
		return nil, err
	}
	return c, nil
}

// Build wires every use case around the given automation and logger.
func Build(cfg Config, automation output.Automation, log output.LoggerPort) (*Container, error) {
	tp, err := tracing.NewProvider(cfg.TraceOutput, "e2e-harness", false)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	collector := metrics.NewCollector()

	waiter := locator.NewWaiter(locator.Policy{
		SettleDelay:  cfg.SettleDelay,
		PollInterval: cfg.PollInterval,
	})
	resolver := frames.NewResolver(log)
	exec := executor.New(executor.Config{
		ActionTimeout:     cfg.ActionTimeout,
		NavigationTimeout: cfg.NavigationTimeout,
	}, waiter, log)

	steps := service.NewStepRegistry()
	runner.RegisterHandlers(steps, resolver, exec, cfg.SettleTimeout)

	var snapshots output.SnapshotPort
	if cfg.CaptureDiagnostics {
		snapshots = diagnostics.NewCapturer(cfg.ScreenshotMaxWidth)
	}

	sessionCfg := session.DefaultConfig()
	sessionCfg.Launch.Headless = cfg.Headless
	if cfg.ViewportWidth > 0 {
		sessionCfg.Launch.ViewportWidth = cfg.ViewportWidth
	}
	if cfg.ViewportHeight > 0 {
		sessionCfg.Launch.ViewportHeight = cfg.ViewportHeight
	}
	sessionCfg.Launch.BrowserBin = cfg.BrowserBin
	sessionCfg.Launch.SlowMotion = cfg.SlowMotion
	if cfg.DefaultTimeout > 0 {
		sessionCfg.DefaultTimeout = cfg.DefaultTimeout
	}

	run := runner.New(runner.Config{
		Session:            sessionCfg,
		AssertTimeout:      cfg.AssertTimeout,
		SettleTimeout:      cfg.SettleTimeout,
		BaseURL:            cfg.BaseURL,
		CaptureDiagnostics: cfg.CaptureDiagnostics,
	}, runner.Deps{
		Sessions:  session.NewManager(automation, log, collector),
		Resolver:  resolver,
		Evaluator: evaluator.New(resolver, waiter, collector, log),
		Waiter:    waiter,
		Registry:  steps,
		Snapshots: snapshots,
		Metrics:   collector,
		Tracer:    tp.Tracer(),
		Logger:    log,
	})

	return &Container{
		Config:     cfg,
		Logger:     log,
		Automation: automation,
		Metrics:    collector,
		Tracing:    tp,
		Steps:      steps,
		Runner:     run,
	}, nil
}

// Close flushes spans and closes the log file.
func (c *Container) Close(ctx context.Context) error {
	var err error
	if c.Tracing != nil {
		err = c.Tracing.Shutdown(ctx)
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
	return err
}

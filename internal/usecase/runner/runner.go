package runner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"e2e-harness/internal/application/port/input"
	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/domain/entity"
	"e2e-harness/internal/usecase/evaluator"
	"e2e-harness/internal/usecase/frames"
	"e2e-harness/internal/usecase/locator"
	"e2e-harness/internal/usecase/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var _ input.ScenarioRunner = (*Runner)(nil)

const diagnosticsTimeout = 10 * time.Second

type Config struct {
	Session       session.Config
	AssertTimeout time.Duration
	SettleTimeout time.Duration
	// BaseURL resolves relative navigate URLs when the scenario sets none.
	BaseURL            string
	CaptureDiagnostics bool
}

type Deps struct {
	Sessions  *session.Manager
	Resolver  *frames.Resolver
	Evaluator *evaluator.Evaluator
	Waiter    *locator.Waiter
	Registry  output.StepRegistry
	Snapshots output.SnapshotPort
	Metrics   output.MetricsPort
	Tracer    trace.Tracer
	Logger    output.LoggerPort
}

type Runner struct {
	cfg       Config
	sessions  *session.Manager
	resolver  *frames.Resolver
	evaluator *evaluator.Evaluator
	waiter    *locator.Waiter
	registry  output.StepRegistry
	snapshots output.SnapshotPort
	metrics   output.MetricsPort
	tracer    trace.Tracer
	logger    output.LoggerPort
}

func New(cfg Config, deps Deps) *Runner {
	if cfg.AssertTimeout <= 0 {
		cfg.AssertTimeout = evaluator.DefaultAssertTimeout
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = frames.DefaultSettleTimeout
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &Runner{
		cfg:       cfg,
		sessions:  deps.Sessions,
		resolver:  deps.Resolver,
		evaluator: deps.Evaluator,
		waiter:    deps.Waiter,
		registry:  deps.Registry,
		snapshots: deps.Snapshots,
		metrics:   deps.Metrics,
		tracer:    tracer,
		logger:    deps.Logger.WithField("component", "runner"),
	}
}

// RunScenario opens a fresh session, executes the steps in order, evaluates
// the final assertions and tears the session down on every path.
// The returned error is non-nil only when no session could be opened; step
// and assertion failures are reported in the result.
func (r *Runner) RunScenario(ctx context.Context, sc entity.Scenario) (*entity.ScenarioResult, error) {
	result := entity.NewScenarioResult(sc.Name)
	log := r.logger.WithField("scenario", sc.Name)

	ctx, span := r.tracer.Start(ctx, "scenario "+sc.Name, trace.WithAttributes(
		attribute.String("scenario.name", sc.Name),
		attribute.Int("scenario.steps", len(sc.Steps)),
		attribute.Int("scenario.assertions", len(sc.Assertions)),
	))
	defer span.End()

	log.Info("Scenario started", "steps", len(sc.Steps), "assertions", len(sc.Assertions))

	sess, err := r.sessions.Open(ctx, r.cfg.Session)
	if err != nil {
		result.Failure = err
		result.Assertions = unattempted(sc.Assertions, err)
		result.Finalize()
		result.Transition(entity.StateFailed, -1, err.Error())
		result.Transition(entity.StateTornDown, -1, "")
		r.finish(span, log, result)
		return result, err
	}
	result.SessionID = sess.ID()
	span.SetAttributes(attribute.String("session.id", sess.ID()))

	func() {
		defer func() {
			if terr := r.sessions.Close(sess); terr != nil {
				result.TeardownErr = terr
				log.Warn("Session teardown incomplete", "error", terr)
			}
			result.Transition(entity.StateTornDown, -1, "")
		}()
		r.execute(ctx, sess, sc, result, log)
	}()

	result.Duration = time.Since(result.StartedAt)
	r.finish(span, log, result)
	return result, nil
}

func (r *Runner) execute(ctx context.Context, sess *session.Session, sc entity.Scenario, result *entity.ScenarioResult, log output.LoggerPort) {
	base := sc.BaseURL
	if base == "" {
		base = r.cfg.BaseURL
	}

	aborted := false
	for i, step := range sc.Steps {
		if aborted {
			result.Steps = append(result.Steps, entity.StepResult{Index: i, Step: step, Status: entity.StepSkipped})
			r.observeStep(step.Kind, entity.StepSkipped, 0)
			continue
		}

		sr := r.runStep(ctx, sess, i, step, base, result, log)
		result.Steps = append(result.Steps, sr)

		if sr.Status == entity.StepFailed {
			aborted = true
			result.Failure = sr.Err
			log.Error("Step failed, skipping remaining steps", "step", i+1, "error", sr.Err)
			r.captureDiagnostics(ctx, sess, result, log)
		}
	}

	result.Transition(entity.StateAsserting, -1, "")
	result.Assertions = r.evaluator.AssertAll(ctx, sess, sc.Assertions, r.cfg.AssertTimeout)

	if sc.Hold > 0 {
		log.Info("Holding session open", "hold", sc.Hold.String())
		_ = locator.Sleep(ctx, sc.Hold)
	}

	result.Finalize()
	if result.Passed() {
		result.Transition(entity.StateDone, -1, "")
		return
	}
	result.Transition(entity.StateFailed, -1, failureReason(result))
}

func (r *Runner) runStep(ctx context.Context, sess *session.Session, index int, step entity.Step, base string, result *entity.ScenarioResult, log output.LoggerPort) entity.StepResult {
	ctx, span := r.tracer.Start(ctx, "step "+string(step.Kind), trace.WithAttributes(
		attribute.Int("step.index", index),
		attribute.String("step.kind", string(step.Kind)),
		attribute.String("step.description", step.String()),
	))
	defer span.End()

	if step.Kind == entity.StepNavigate {
		result.Transition(entity.StateNavigating, index, step.URL)
	} else {
		result.Transition(entity.StateExecuting, index, step.String())
	}

	sr := entity.StepResult{Index: index, Step: step}
	start := time.Now()

	var run func(ctx context.Context) error
	switch {
	case step.Kind == entity.StepAssert:
		run = func(ctx context.Context) error {
			var err error
			sr.Assertions, err = r.assertStep(ctx, sess, step)
			return err
		}
	case step.Kind == entity.StepNavigate:
		resolved, err := resolveURL(base, step.URL)
		if err != nil {
			run = func(context.Context) error { return err }
			break
		}
		step.URL = resolved
		run = r.handlerFunc(sess, step)
	default:
		run = r.handlerFunc(sess, step)
	}

	sr.Attempts, sr.Err = r.withRetries(ctx, step, run, log)

	if sr.Err == nil && step.Kind == entity.StepNavigate {
		result.Transition(entity.StateSettling, index, "")
		report := r.resolver.Settle(ctx, r.resolver.Current(ctx, sess), r.cfg.SettleTimeout)
		span.SetAttributes(attribute.Int("settle.skipped", len(report.Skipped)))
	}

	sr.Elapsed = time.Since(start)
	switch {
	case sr.Err == nil:
		sr.Status = entity.StepPassed
		log.Info("Step passed", "step", index+1, "kind", string(step.Kind), "elapsed", sr.Elapsed.String())
	case step.Optional:
		sr.Status = entity.StepTolerated
		log.Warn("Optional step failed", "step", index+1, "kind", string(step.Kind), "error", sr.Err)
	default:
		sr.Status = entity.StepFailed
	}

	span.SetAttributes(
		attribute.Int("step.attempts", sr.Attempts),
		attribute.String("step.status", string(sr.Status)),
	)
	if sr.Err != nil {
		span.RecordError(sr.Err)
		span.SetStatus(codes.Error, sr.Err.Error())
	}
	r.observeStep(step.Kind, sr.Status, sr.Elapsed)
	return sr
}

func (r *Runner) handlerFunc(sess *session.Session, step entity.Step) func(ctx context.Context) error {
	handler, ok := r.registry.Get(step.Kind)
	if !ok {
		return func(context.Context) error {
			return fmt.Errorf("%w: %q", entity.ErrUnknownStep, step.Kind)
		}
	}
	return func(ctx context.Context) error {
		return handler.Handle(ctx, sess, step)
	}
}

// withRetries runs fn once plus up to step.Retries more times while the
// failure is retryable, pausing one poll interval between attempts.
// A panic inside fn is reported as a failed action.
func (r *Runner) withRetries(ctx context.Context, step entity.Step, fn func(ctx context.Context) error, log output.LoggerPort) (int, error) {
	for attempt := 1; ; attempt++ {
		err := guard(ctx, step, fn)
		if err == nil || attempt > step.Retries || !entity.IsRetryable(err) || ctx.Err() != nil {
			return attempt, err
		}
		log.Warn("Step failed, retrying", "kind", string(step.Kind), "attempt", attempt, "retries", step.Retries, "error", err)
		if serr := locator.Sleep(ctx, r.waiter.Policy().PollInterval); serr != nil {
			return attempt, err
		}
	}
}

func guard(ctx context.Context, step entity.Step, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = entity.NewHarnessError(entity.ErrActionFailed, string(step.Kind), step.Target, 0, fmt.Errorf("panic: %v", p))
		}
	}()
	return fn(ctx)
}

func (r *Runner) assertStep(ctx context.Context, sess *session.Session, step entity.Step) ([]entity.AssertionResult, error) {
	timeout := step.Timeout
	if timeout <= 0 {
		timeout = r.cfg.AssertTimeout
	}
	results := r.evaluator.AssertAll(ctx, sess, step.Expectations, timeout)

	var errs []error
	for _, res := range results {
		if !res.Passed {
			errs = append(errs, res.Err)
		}
	}
	if len(errs) == 0 {
		return results, nil
	}
	return results, fmt.Errorf("%d of %d expectation(s) failed: %w", len(errs), len(results), errors.Join(errs...))
}

func (r *Runner) captureDiagnostics(ctx context.Context, sess *session.Session, result *entity.ScenarioResult, log output.LoggerPort) {
	if !r.cfg.CaptureDiagnostics || r.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, diagnosticsTimeout)
	defer cancel()

	snap, err := r.snapshots.Capture(ctx, r.resolver.Current(ctx, sess))
	if err != nil {
		log.Warn("Failed to capture diagnostics", "error", err)
		return
	}
	result.Diagnostics = snap
}

func (r *Runner) finish(span trace.Span, log output.LoggerPort, result *entity.ScenarioResult) {
	span.SetAttributes(attribute.String("scenario.status", string(result.Status)))
	if !result.Passed() {
		span.SetStatus(codes.Error, failureReason(result))
	}
	if r.metrics != nil {
		r.metrics.ObserveScenario(result.Status)
	}
	log.Info("Scenario finished",
		"status", string(result.Status),
		"failed_assertions", len(result.FailedAssertions()),
		"duration", result.Duration.String(),
	)
}

func (r *Runner) observeStep(kind entity.StepKind, status entity.StepStatus, elapsed time.Duration) {
	if r.metrics != nil {
		r.metrics.ObserveStep(kind, status, elapsed)
	}
}

func failureReason(result *entity.ScenarioResult) string {
	if result.Failure != nil {
		return result.Failure.Error()
	}
	return fmt.Sprintf("%d assertion(s) failed", len(result.FailedAssertions()))
}

// unattempted marks every expectation failed with cause when the session
// never opened, so the report still lists them all.
func unattempted(exps []entity.Expectation, cause error) []entity.AssertionResult {
	results := make([]entity.AssertionResult, 0, len(exps))
	for _, exp := range exps {
		results = append(results, entity.AssertionResult{Expectation: exp, Err: cause})
	}
	return results
}

// resolveURL resolves raw against base when raw is relative.
func resolveURL(base, raw string) (string, error) {
	if base == "" {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() {
		return raw, nil
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return "", entity.NewHarnessError(entity.ErrActionFailed, "navigate", entity.ElementRef{Path: raw}, 0,
			fmt.Errorf("%w: base URL %q", entity.ErrInvalidURL, base))
	}
	return b.ResolveReference(u).String(), nil
}

package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/domain/entity"
	"e2e-harness/internal/usecase/frames"
	"e2e-harness/internal/usecase/locator"
)

const DefaultAssertTimeout = 30 * time.Second

type Evaluator struct {
	resolver *frames.Resolver
	waiter   *locator.Waiter
	metrics  output.MetricsPort
	logger   output.LoggerPort
}

func New(resolver *frames.Resolver, waiter *locator.Waiter, metrics output.MetricsPort, logger output.LoggerPort) *Evaluator {
	return &Evaluator{
		resolver: resolver,
		waiter:   waiter,
		metrics:  metrics,
		logger:   logger.WithField("component", "evaluator"),
	}
}

// AssertAll checks every expectation in order, each under its own timeout
// (the expectation's, else timeout). It returns exactly one result per
// expectation; a failure never stops the remaining checks.
func (e *Evaluator) AssertAll(ctx context.Context, scope output.RunScope, expectations []entity.Expectation, timeout time.Duration) []entity.AssertionResult {
	if timeout <= 0 {
		timeout = DefaultAssertTimeout
	}

	results := make([]entity.AssertionResult, 0, len(expectations))
	for _, exp := range expectations {
		res := e.assert(ctx, scope, exp, timeout)
		results = append(results, res)

		if e.metrics != nil {
			e.metrics.ObserveAssertion(res.Passed)
		}
		if res.Passed {
			e.logger.Info("Assertion passed", "expectation", exp.String(), "elapsed", res.Elapsed.String())
		} else {
			e.logger.Warn("Assertion failed", "expectation", exp.String(), "error", res.Err)
		}
	}
	return results
}

func (e *Evaluator) assert(ctx context.Context, scope output.RunScope, exp entity.Expectation, fallback time.Duration) entity.AssertionResult {
	timeout := exp.Timeout
	if timeout <= 0 {
		timeout = fallback
	}
	ref := exp.Ref()
	state := exp.ExpectedState()

	start := time.Now()
	err := e.waiter.Poll(ctx, timeout, func(ctx context.Context) error {
		// The active page and frame are re-resolved on every poll since a
		// click may have opened or replaced them.
		frame, err := e.resolver.Target(ctx, e.resolver.Current(ctx, scope), ref.Frame)
		if err != nil {
			// Nothing inside a missing frame can be showing.
			if state == entity.StateHidden && errors.Is(err, entity.ErrNotFound) {
				return nil
			}
			return err
		}
		h, err := locator.Locate(frame, ref)
		if err != nil {
			return err
		}
		return check(ctx, h, state)
	})

	res := entity.AssertionResult{
		Expectation: exp,
		Passed:      err == nil,
		Elapsed:     time.Since(start),
	}
	if err != nil {
		res.Err = failure(err, exp, ref, timeout)
	}
	return res
}

var errStateUnmet = errors.New("state not reached")

func check(ctx context.Context, h *locator.Handle, state entity.ExpectedState) error {
	el, err := h.Locator.Element(ctx)
	switch state {
	case entity.StateAttached:
		return err
	case entity.StateHidden:
		if errors.Is(err, entity.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		visible, err := el.Visible(ctx)
		if err != nil {
			return err
		}
		if visible {
			return fmt.Errorf("%w: still visible", errStateUnmet)
		}
		return nil
	default:
		if err != nil {
			return err
		}
		visible, err := el.Visible(ctx)
		if err != nil {
			return err
		}
		if !visible {
			return fmt.Errorf("%w: attached but not visible", errStateUnmet)
		}
		return nil
	}
}

func failure(err error, exp entity.Expectation, ref entity.ElementRef, timeout time.Duration) error {
	if errors.Is(err, entity.ErrInvalidLocator) || errors.Is(err, entity.ErrSessionClosed) {
		return entity.NewHarnessError(entity.ErrActionFailed, "assert "+string(exp.ExpectedState()), ref, 0, err)
	}
	return entity.NewHarnessError(entity.ErrAssertionTimeout, "assert "+string(exp.ExpectedState()), ref, timeout, locator.Cause(err))
}

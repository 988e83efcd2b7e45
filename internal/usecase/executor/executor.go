package executor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/domain/entity"
	"e2e-harness/internal/usecase/locator"
)

const (
	DefaultActionTimeout     = 5 * time.Second
	DefaultNavigationTimeout = 10 * time.Second
)

const innerHeightJS = `() => window.innerHeight`

type Config struct {
	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ActionTimeout:     DefaultActionTimeout,
		NavigationTimeout: DefaultNavigationTimeout,
	}
}

// Executor performs single browser actions, each under its own timeout.
// Failures come back typed and are never retried here.
type Executor struct {
	cfg    Config
	waiter *locator.Waiter
	logger output.LoggerPort
}

func New(cfg Config, waiter *locator.Waiter, logger output.LoggerPort) *Executor {
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = DefaultActionTimeout
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = DefaultNavigationTimeout
	}
	return &Executor{
		cfg:    cfg,
		waiter: waiter,
		logger: logger.WithField("component", "executor"),
	}
}

func (e *Executor) Fill(ctx context.Context, h *locator.Handle, text string, timeout time.Duration) error {
	return e.interact(ctx, h, "fill", timeout, func(ctx context.Context, el output.Element) error {
		return el.Fill(ctx, text)
	})
}

func (e *Executor) Click(ctx context.Context, h *locator.Handle, timeout time.Duration) error {
	return e.interact(ctx, h, "click", timeout, func(ctx context.Context, el output.Element) error {
		return el.Click(ctx)
	})
}

// interact settles, waits for the element to become actionable and runs act,
// all inside one timeout window.
func (e *Executor) interact(ctx context.Context, h *locator.Handle, action string, timeout time.Duration, act func(ctx context.Context, el output.Element) error) error {
	if timeout <= 0 {
		timeout = e.cfg.ActionTimeout
	}

	if err := e.waiter.Settle(ctx); err != nil {
		return entity.NewHarnessError(entity.ErrActionFailed, action, h.Ref, 0, err)
	}

	actionCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	el, err := e.waiter.Actionable(actionCtx, h, action, timeout)
	if err != nil {
		e.logger.Debug("Element not actionable", "action", action, "element", h.Ref.String(), "error", err)
		return err
	}

	if err := act(actionCtx, el); err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) || actionCtx.Err() != nil:
			return entity.NewHarnessError(entity.ErrActionTimeout, action, h.Ref, timeout, nil)
		case errors.Is(err, entity.ErrNotInteractable):
			return entity.NewHarnessError(entity.ErrNotInteractable, action, h.Ref, timeout, err)
		}
		return entity.NewHarnessError(entity.ErrActionFailed, action, h.Ref, 0, err)
	}

	e.logger.Debug("Action completed", "action", action, "element", h.Ref.String(), "elapsed", time.Since(start).String())
	return nil
}

// Navigate loads rawURL in page and returns once waitUntil is reached.
// commit returns as soon as the response is accepted and never upgrades to a
// stronger wait.
func (e *Executor) Navigate(ctx context.Context, page output.Page, rawURL string, waitUntil entity.LoadState, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = e.cfg.NavigationTimeout
	}
	if waitUntil == "" {
		waitUntil = entity.LoadCommit
	}
	ref := entity.ElementRef{Path: rawURL}

	if err := validateURL(rawURL); err != nil {
		return entity.NewHarnessError(entity.ErrActionFailed, "navigate", ref, 0, err)
	}

	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := page.Goto(navCtx, rawURL, waitUntil); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || navCtx.Err() != nil {
			return entity.NewHarnessError(entity.ErrNavigationTimeout, "navigate", ref, timeout, nil)
		}
		return entity.NewHarnessError(entity.ErrActionFailed, "navigate", ref, 0, err)
	}

	e.logger.Info("Navigated", "url", rawURL, "wait_until", string(waitUntil), "elapsed", time.Since(start).String())
	return nil
}

// Scroll wheels the page by viewports multiples of its visible height.
// Negative values scroll up.
func (e *Executor) Scroll(ctx context.Context, page output.Page, viewports float64, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = e.cfg.ActionTimeout
	}
	scrollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ref := entity.ElementRef{Path: "window"}
	res, err := page.Evaluate(scrollCtx, innerHeightJS)
	if err != nil {
		return e.scrollErr(scrollCtx, ref, timeout, err)
	}
	height, err := toFloat(res)
	if err != nil {
		return entity.NewHarnessError(entity.ErrActionFailed, "scroll", ref, 0, err)
	}

	if err := page.Wheel(scrollCtx, 0, height*viewports); err != nil {
		return e.scrollErr(scrollCtx, ref, timeout, err)
	}
	e.logger.Debug("Scrolled", "viewports", viewports, "pixels", height*viewports)
	return nil
}

func (e *Executor) scrollErr(ctx context.Context, ref entity.ElementRef, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return entity.NewHarnessError(entity.ErrActionTimeout, "scroll", ref, timeout, nil)
	}
	return entity.NewHarnessError(entity.ErrActionFailed, "scroll", ref, 0, err)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%w: %q has no host", entity.ErrInvalidURL, raw)
		}
		return nil
	case "about", "data", "file":
		return nil
	}
	return fmt.Errorf("%w: unsupported scheme in %q", entity.ErrInvalidURL, raw)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("unexpected viewport height %v (%T)", v, v)
}

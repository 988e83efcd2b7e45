package locator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/domain/entity"
)

const (
	DefaultSettleDelay  = 500 * time.Millisecond
	DefaultPollInterval = 100 * time.Millisecond
)

// Policy tunes how long to let the page settle before an interaction and how
// often to re-check an element while waiting on it.
type Policy struct {
	SettleDelay  time.Duration
	PollInterval time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		SettleDelay:  DefaultSettleDelay,
		PollInterval: DefaultPollInterval,
	}
}

// Handle is a resolved reference: a lazy locator bound to one frame. Nothing
// about the element's existence is known until it is waited on.
type Handle struct {
	Ref     entity.ElementRef
	Frame   output.Frame
	Locator output.Locator
}

// Locate builds a handle for the ref.Index-th match of ref.Path in frame.
// It never queries the DOM, so it succeeds for elements that do not exist yet.
func Locate(frame output.Frame, ref entity.ElementRef) (*Handle, error) {
	if ref.Path == "" {
		return nil, entity.NewHarnessError(entity.ErrNotFound, "locate", ref, 0, fmt.Errorf("%w: empty path", entity.ErrInvalidLocator))
	}
	if ref.Index < 0 {
		return nil, entity.NewHarnessError(entity.ErrNotFound, "locate", ref, 0, fmt.Errorf("%w: negative index %d", entity.ErrInvalidLocator, ref.Index))
	}
	return &Handle{
		Ref:     ref,
		Frame:   frame,
		Locator: frame.Locator(ref.Path).Nth(ref.Index),
	}, nil
}

type Waiter struct {
	policy Policy
}

func NewWaiter(policy Policy) *Waiter {
	if policy.PollInterval <= 0 {
		policy.PollInterval = DefaultPollInterval
	}
	if policy.SettleDelay < 0 {
		policy.SettleDelay = 0
	}
	return &Waiter{policy: policy}
}

func (w *Waiter) Policy() Policy {
	return w.policy
}

// Settle sleeps for the settle delay or until ctx ends.
func (w *Waiter) Settle(ctx context.Context) error {
	return Sleep(ctx, w.policy.SettleDelay)
}

// Actionable polls until the handle's element is attached and actionable,
// then returns it. When ctx or timeout ends first the last observation
// decides the failure kind: no match is NotFound, a match that never became
// actionable is NotInteractable.
func (w *Waiter) Actionable(ctx context.Context, h *Handle, action string, timeout time.Duration) (output.Element, error) {
	var el output.Element
	err := w.Poll(ctx, timeout, func(ctx context.Context) error {
		found, err := h.Locator.Element(ctx)
		if err != nil {
			return err
		}
		if err := found.Actionable(ctx); err != nil {
			return err
		}
		el = found
		return nil
	})
	if err == nil {
		return el, nil
	}
	return nil, Classify(err, action, h.Ref, timeout)
}

// Poll calls check until it returns nil or the window closes, and returns the
// last error check produced. A zero timeout leaves ctx's deadline in charge.
func (w *Waiter) Poll(ctx context.Context, timeout time.Duration, check func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(w.policy.PollInterval)
	defer ticker.Stop()

	var last error
	for {
		err := check(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			last = err
		}
		if errors.Is(err, entity.ErrSessionClosed) || errors.Is(err, entity.ErrInvalidLocator) {
			return err
		}

		select {
		case <-ctx.Done():
			if last == nil {
				last = ctx.Err()
			}
			return &deadlineError{last: last, ctx: ctx.Err()}
		case <-ticker.C:
		}
	}
}

// deadlineError marks a poll that ran out of time while keeping the last
// observed failure reachable through errors.Is.
type deadlineError struct {
	last error
	ctx  error
}

func (e *deadlineError) Error() string {
	return e.last.Error()
}

func (e *deadlineError) Unwrap() []error {
	return []error{e.last, e.ctx}
}

// Classify maps a failed wait onto the taxonomy. Errors that already carry a
// kind are returned unchanged.
func Classify(err error, action string, ref entity.ElementRef, timeout time.Duration) error {
	var he *entity.HarnessError
	if errors.As(err, &he) {
		return err
	}
	switch {
	case errors.Is(err, entity.ErrSessionClosed):
		return entity.NewHarnessError(entity.ErrActionFailed, action, ref, 0, err)
	case errors.Is(err, entity.ErrNotFound):
		return entity.NewHarnessError(entity.ErrNotFound, action, ref, timeout, Cause(err))
	case errors.Is(err, entity.ErrNotInteractable):
		return entity.NewHarnessError(entity.ErrNotInteractable, action, ref, timeout, Cause(err))
	case errors.Is(err, context.DeadlineExceeded):
		return entity.NewHarnessError(entity.ErrActionTimeout, action, ref, timeout, nil)
	}
	return entity.NewHarnessError(entity.ErrActionFailed, action, ref, 0, err)
}

// Cause returns the last failure a poll observed before its window closed,
// or nil when it observed nothing but the deadline.
func Cause(err error) error {
	var de *deadlineError
	if errors.As(err, &de) {
		if errors.Is(de.last, context.DeadlineExceeded) || errors.Is(de.last, context.Canceled) {
			return nil
		}
		return de.last
	}
	return err
}

// Sleep blocks for d or until ctx ends.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

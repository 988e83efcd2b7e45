package runner

import (
	"context"
	"time"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/domain/entity"
	"e2e-harness/internal/usecase/executor"
	"e2e-harness/internal/usecase/frames"
	"e2e-harness/internal/usecase/locator"
)

// RegisterHandlers installs the handlers for every step kind except assert,
// which the runner evaluates itself.
func RegisterHandlers(registry output.StepRegistry, resolver *frames.Resolver, exec *executor.Executor, settleTimeout time.Duration) {
	registry.Register(&NavigateHandler{resolver: resolver, exec: exec})
	registry.Register(&WaitHandler{})
	registry.Register(&SettleHandler{resolver: resolver, timeout: settleTimeout})
	registry.Register(&FillHandler{resolver: resolver, exec: exec})
	registry.Register(&ClickHandler{resolver: resolver, exec: exec})
	registry.Register(&ScrollHandler{resolver: resolver, exec: exec})
}

type NavigateHandler struct {
	resolver *frames.Resolver
	exec     *executor.Executor
}

func (h *NavigateHandler) Kind() entity.StepKind { return entity.StepNavigate }

func (h *NavigateHandler) Handle(ctx context.Context, scope output.RunScope, step entity.Step) error {
	return h.exec.Navigate(ctx, h.resolver.Current(ctx, scope), step.URL, step.WaitUntil, step.Timeout)
}

type WaitHandler struct{}

func (h *WaitHandler) Kind() entity.StepKind { return entity.StepWait }

func (h *WaitHandler) Handle(ctx context.Context, scope output.RunScope, step entity.Step) error {
	if err := locator.Sleep(ctx, step.Delay); err != nil {
		return entity.NewHarnessError(entity.ErrActionFailed, "wait", entity.ElementRef{}, 0, err)
	}
	return nil
}

// SettleHandler never fails; documents that miss the window are skipped.
type SettleHandler struct {
	resolver *frames.Resolver
	timeout  time.Duration
}

func (h *SettleHandler) Kind() entity.StepKind { return entity.StepSettle }

func (h *SettleHandler) Handle(ctx context.Context, scope output.RunScope, step entity.Step) error {
	timeout := step.Timeout
	if timeout <= 0 {
		timeout = h.timeout
	}
	h.resolver.Settle(ctx, h.resolver.Current(ctx, scope), timeout)
	return nil
}

type FillHandler struct {
	resolver *frames.Resolver
	exec     *executor.Executor
}

func (h *FillHandler) Kind() entity.StepKind { return entity.StepFill }

func (h *FillHandler) Handle(ctx context.Context, scope output.RunScope, step entity.Step) error {
	handle, err := locate(ctx, h.resolver, scope, step.Target)
	if err != nil {
		return err
	}
	return h.exec.Fill(ctx, handle, step.Value, step.Timeout)
}

type ClickHandler struct {
	resolver *frames.Resolver
	exec     *executor.Executor
}

func (h *ClickHandler) Kind() entity.StepKind { return entity.StepClick }

func (h *ClickHandler) Handle(ctx context.Context, scope output.RunScope, step entity.Step) error {
	handle, err := locate(ctx, h.resolver, scope, step.Target)
	if err != nil {
		return err
	}
	return h.exec.Click(ctx, handle, step.Timeout)
}

type ScrollHandler struct {
	resolver *frames.Resolver
	exec     *executor.Executor
}

func (h *ScrollHandler) Kind() entity.StepKind { return entity.StepScroll }

func (h *ScrollHandler) Handle(ctx context.Context, scope output.RunScope, step entity.Step) error {
	return h.exec.Scroll(ctx, h.resolver.Current(ctx, scope), step.Scroll, step.Timeout)
}

// locate re-resolves the current page and target frame on every call, then
// builds a lazy handle in it.
func locate(ctx context.Context, resolver *frames.Resolver, scope output.RunScope, ref entity.ElementRef) (*locator.Handle, error) {
	frame, err := resolver.Target(ctx, resolver.Current(ctx, scope), ref.Frame)
	if err != nil {
		return nil, err
	}
	return locator.Locate(frame, ref)
}

package frames

import (
	"context"
	"strings"
	"time"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/domain/entity"
)

const DefaultSettleTimeout = 3 * time.Second

type SettleReport struct {
	Settled []string
	Skipped []string
}

// Resolver answers which document a step should act on. It keeps no state:
// every call re-queries the session because pages and frames come and go.
type Resolver struct {
	logger output.LoggerPort
}

func NewResolver(logger output.LoggerPort) *Resolver {
	return &Resolver{logger: logger.WithField("component", "frames")}
}

// Current returns the top document of the most recently opened page.
func (r *Resolver) Current(ctx context.Context, scope output.RunScope) output.Page {
	return scope.ActivePage(ctx)
}

// Settle waits for the page and then each attached frame to reach
// domcontentloaded, each under its own timeout. Documents that miss their
// window are skipped; Settle itself never fails.
func (r *Resolver) Settle(ctx context.Context, page output.Page, timeout time.Duration) SettleReport {
	if timeout <= 0 {
		timeout = DefaultSettleTimeout
	}

	var report SettleReport
	r.settleOne(ctx, page, timeout, &report)

	frames, err := page.Frames(ctx)
	if err != nil {
		r.logger.Debug("Listing frames failed", "error", err)
		return report
	}
	for _, f := range frames {
		r.settleOne(ctx, f, timeout, &report)
	}

	if len(report.Skipped) > 0 {
		r.logger.Debug("Some documents did not settle", "skipped", report.Skipped, "timeout", timeout.String())
	}
	return report
}

func (r *Resolver) settleOne(ctx context.Context, f output.Frame, timeout time.Duration, report *SettleReport) {
	label := frameLabel(f)
	settleCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := f.WaitForLoadState(settleCtx, entity.LoadDOMContentLoaded); err != nil {
		report.Skipped = append(report.Skipped, label)
		return
	}
	report.Settled = append(report.Settled, label)
}

// Target resolves a step's frame selector against page. An empty selector
// means the page's top document. Otherwise frames are matched by name
// first, then by URL substring.
func (r *Resolver) Target(ctx context.Context, page output.Page, selector string) (output.Frame, error) {
	if selector == "" {
		return page, nil
	}

	frames, err := page.Frames(ctx)
	if err != nil {
		return nil, entity.NewHarnessError(entity.ErrNotFound, "frame", entity.ElementRef{Path: selector}, 0, err)
	}
	for _, f := range frames {
		if f.Name() == selector {
			return f, nil
		}
	}
	for _, f := range frames {
		if strings.Contains(f.URL(), selector) {
			return f, nil
		}
	}
	return nil, entity.NewHarnessError(entity.ErrNotFound, "frame", entity.ElementRef{Path: selector}, 0, nil)
}

func frameLabel(f output.Frame) string {
	if name := f.Name(); name != "" {
		return name
	}
	if url := f.URL(); url != "" {
		return url
	}
	return "main"
}

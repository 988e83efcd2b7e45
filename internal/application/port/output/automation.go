package output

import (
	"context"
	"time"

	"e2e-harness/internal/domain/entity"
)

// Blocking operations below are bounded by the deadline of ctx. When ctx has
// no deadline the adapter applies the context's default timeout.

type LaunchOptions struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	// Flags are browser command line switches in "name" or "name=value" form.
	Flags      []string
	BrowserBin string
	SlowMotion time.Duration
	Trace      bool
}

type Automation interface {
	Start(ctx context.Context) (Engine, error)
}

type Engine interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
	Stop() error
}

type Browser interface {
	NewContext(ctx context.Context) (BrowserContext, error)
	Close() error
}

type BrowserContext interface {
	NewPage(ctx context.Context) (Page, error)
	// Pages lists open pages in the order they were opened, most recent last.
	Pages(ctx context.Context) ([]Page, error)
	SetDefaultTimeout(d time.Duration)
	Close() error
}

type Frame interface {
	Name() string
	URL() string
	WaitForLoadState(ctx context.Context, state entity.LoadState) error
	// Locator builds a lazy reference; nothing is queried until it is resolved.
	Locator(selector string) Locator
	Evaluate(ctx context.Context, js string) (any, error)
}

// Page is a top-level document. Its embedded Frame is the main frame.
type Page interface {
	Frame
	Goto(ctx context.Context, url string, waitUntil entity.LoadState) error
	// Frames lists the nested frames currently attached, in document order.
	Frames(ctx context.Context) ([]Frame, error)
	Wheel(ctx context.Context, deltaX, deltaY float64) error
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
	Close() error
}

type Locator interface {
	Selector() string
	Index() int
	Nth(index int) Locator
	Count(ctx context.Context) (int, error)
	// Element resolves the Index-th match without waiting. It fails with
	// entity.ErrNotFound when fewer than Index+1 elements match.
	Element(ctx context.Context) (Element, error)
}

type Element interface {
	Visible(ctx context.Context) (bool, error)
	// Actionable returns nil when the element is visible, enabled and not
	// obscured, or an error wrapping entity.ErrNotInteractable.
	Actionable(ctx context.Context) error
	Click(ctx context.Context) error
	Fill(ctx context.Context, text string) error
}

package rod

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/domain/entity"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var (
	_ output.Automation     = (*Automation)(nil)
	_ output.Engine         = (*engine)(nil)
	_ output.Browser        = (*browser)(nil)
	_ output.BrowserContext = (*browserContext)(nil)
	_ output.Page           = (*page)(nil)
	_ output.Frame          = (*frame)(nil)
)

const (
	defaultTimeout    = 5 * time.Second
	readyStatePoll    = 50 * time.Millisecond
	infoTimeout       = 2 * time.Second
	maxFrameDepth     = 3
	screenshotQuality = 80
)

// Automation drives Chrome through the DevTools protocol.
type Automation struct {
	logger output.LoggerPort
}

func NewAutomation(logger output.LoggerPort) *Automation {
	return &Automation{logger: logger.WithField("component", "rod")}
}

func (a *Automation) Start(ctx context.Context) (output.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &engine{logger: a.logger}, nil
}

type engine struct {
	logger   output.LoggerPort
	mu       sync.Mutex
	launcher *launcher.Launcher
}

func (e *engine) Launch(ctx context.Context, opts output.LaunchOptions) (output.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(true).
		Delete("use-mock-keychain")
	if opts.BrowserBin != "" {
		l = l.Bin(opts.BrowserBin)
	}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", opts.ViewportWidth, opts.ViewportHeight))
	}
	for _, f := range opts.Flags {
		name, value, hasValue := strings.Cut(f, "=")
		if hasValue {
			l = l.Set(flags.Flag(name), value)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}

	e.mu.Lock()
	e.launcher = l
	e.mu.Unlock()

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().
		ControlURL(u).
		NoDefaultDevice().
		Trace(opts.Trace)
	if opts.SlowMotion > 0 {
		b = b.SlowMotion(opts.SlowMotion)
	}
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	e.logger.Debug("Browser launched", "control_url", u, "headless", opts.Headless)
	return &browser{browser: b, opts: opts, logger: e.logger}, nil
}

func (e *engine) Stop() error {
	e.mu.Lock()
	l := e.launcher
	e.launcher = nil
	e.mu.Unlock()

	if l == nil {
		return nil
	}
	l.Kill()
	l.Cleanup()
	return nil
}

type browser struct {
	browser *rod.Browser
	opts    output.LaunchOptions
	logger  output.LoggerPort
}

func (b *browser) NewContext(ctx context.Context) (output.BrowserContext, error) {
	incognito, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create incognito context: %w", err)
	}
	c := &browserContext{
		browser: incognito.Context(context.Background()),
		opts:    b.opts,
		logger:  b.logger,
		pages:   make(map[proto.TargetTargetID]*page),
	}
	c.timeout.Store(int64(defaultTimeout))
	return c, nil
}

func (b *browser) Close() error {
	return b.browser.Close()
}

// browserContext is one incognito context. It remembers the order in which
// it first saw each page so popups sort after their opener.
type browserContext struct {
	browser *rod.Browser
	opts    output.LaunchOptions
	logger  output.LoggerPort
	timeout atomic.Int64

	mu    sync.Mutex
	order []proto.TargetTargetID
	pages map[proto.TargetTargetID]*page
}

func (c *browserContext) NewPage(ctx context.Context) (output.Page, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	rp, err := c.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	p, err := c.adopt(ctx, rp)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *browserContext) Pages(ctx context.Context) ([]output.Page, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	res, err := proto.TargetGetTargets{}.Call(c.browser.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	live := make(map[proto.TargetTargetID]bool)
	for _, info := range res.TargetInfos {
		if info.Type != proto.TargetTargetInfoTypePage || info.BrowserContextID != c.browser.BrowserContextID {
			continue
		}
		live[info.TargetID] = true

		c.mu.Lock()
		_, known := c.pages[info.TargetID]
		c.mu.Unlock()
		if known {
			continue
		}
		rp, err := c.browser.Context(ctx).PageFromTarget(info.TargetID)
		if err != nil {
			c.logger.Debug("Skipping page that could not be attached", "target", string(info.TargetID), "error", err)
			continue
		}
		if _, err := c.adopt(ctx, rp); err != nil {
			c.logger.Debug("Skipping page that could not be prepared", "target", string(info.TargetID), "error", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.order[:0]
	var pages []output.Page
	for _, id := range c.order {
		if !live[id] {
			delete(c.pages, id)
			continue
		}
		kept = append(kept, id)
		pages = append(pages, c.pages[id])
	}
	c.order = kept
	return pages, nil
}

func (c *browserContext) adopt(ctx context.Context, rp *rod.Page) (*page, error) {
	if c.opts.ViewportWidth > 0 && c.opts.ViewportHeight > 0 {
		err := rp.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             c.opts.ViewportWidth,
			Height:            c.opts.ViewportHeight,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set viewport: %w", err)
		}
	}

	p := &page{document: document{page: rp, owner: c}}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.pages[rp.TargetID]; ok {
		return existing, nil
	}
	c.pages[rp.TargetID] = p
	c.order = append(c.order, rp.TargetID)
	return p, nil
}

func (c *browserContext) SetDefaultTimeout(d time.Duration) {
	if d > 0 {
		c.timeout.Store(int64(d))
	}
}

func (c *browserContext) Close() error {
	return c.browser.Close()
}

// bound applies the default timeout when ctx carries no deadline.
func (c *browserContext) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(c.timeout.Load()))
}

// document is the part shared by a top-level page and a nested frame.
type document struct {
	page  *rod.Page
	owner *browserContext
	name  string
	url   string
}

func (d *document) Name() string {
	return d.name
}

func (d *document) URL() string {
	if d.url != "" {
		return d.url
	}
	info, err := d.page.Timeout(infoTimeout).Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// WaitForLoadState polls document.readyState. commit is satisfied as soon as
// any document is present.
func (d *document) WaitForLoadState(ctx context.Context, state entity.LoadState) error {
	ctx, cancel := d.owner.bound(ctx)
	defer cancel()

	want := map[string]bool{"loading": true, "interactive": true, "complete": true}
	switch state {
	case entity.LoadDOMContentLoaded:
		want = map[string]bool{"interactive": true, "complete": true}
	case entity.LoadLoad:
		want = map[string]bool{"complete": true}
	}

	ticker := time.NewTicker(readyStatePoll)
	defer ticker.Stop()
	for {
		res, err := d.page.Context(ctx).Eval(`() => document.readyState`)
		if err == nil && want[res.Value.Str()] {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *document) Locator(selector string) output.Locator {
	return &locator{doc: d, selector: selector}
}

func (d *document) Evaluate(ctx context.Context, js string) (any, error) {
	ctx, cancel := d.owner.bound(ctx)
	defer cancel()

	res, err := d.page.Context(ctx).Eval(js)
	if err != nil {
		return nil, fmt.Errorf("evaluate failed: %w", err)
	}
	return res.Value.Val(), nil
}

type frame struct {
	document
}

type page struct {
	document
}

// Goto navigates and waits for waitUntil. commit returns once the navigation
// response is accepted.
func (p *page) Goto(ctx context.Context, url string, waitUntil entity.LoadState) error {
	ctx, cancel := p.owner.bound(ctx)
	defer cancel()

	rp := p.page.Context(ctx)
	var wait func()
	switch waitUntil {
	case entity.LoadDOMContentLoaded:
		wait = rp.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	case entity.LoadLoad:
		wait = rp.WaitNavigation(proto.PageLifecycleEventNameLoad)
	}

	if err := rp.Navigate(url); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	if wait != nil {
		wait()
	}
	return ctx.Err()
}

// Frames lists attached iframes depth-first, down to maxFrameDepth levels.
func (p *page) Frames(ctx context.Context) ([]output.Frame, error) {
	ctx, cancel := p.owner.bound(ctx)
	defer cancel()

	var out []output.Frame
	var walk func(parent *rod.Page, depth int) error
	walk = func(parent *rod.Page, depth int) error {
		if depth > maxFrameDepth {
			return nil
		}
		els, err := parent.Context(ctx).Elements("iframe, frame")
		if err != nil {
			return err
		}
		for _, el := range els {
			fp, err := el.Frame()
			if err != nil {
				continue
			}
			name, _ := el.Attribute("name")
			url := ""
			if res, err := fp.Context(ctx).Eval(`() => location.href`); err == nil {
				url = res.Value.Str()
			}
			out = append(out, &frame{document: document{page: fp, owner: p.owner, name: deref(name), url: url}})
			_ = walk(fp, depth+1)
		}
		return nil
	}

	if err := walk(p.page, 1); err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	return out, nil
}

// Wheel dispatches a mouse wheel event at the centre of the viewport.
func (p *page) Wheel(ctx context.Context, deltaX, deltaY float64) error {
	ctx, cancel := p.owner.bound(ctx)
	defer cancel()

	x, y := 100.0, 100.0
	if p.owner.opts.ViewportWidth > 0 {
		x = float64(p.owner.opts.ViewportWidth) / 2
		y = float64(p.owner.opts.ViewportHeight) / 2
	}
	err := proto.InputDispatchMouseEvent{
		Type:   proto.InputDispatchMouseEventTypeMouseWheel,
		X:      x,
		Y:      y,
		DeltaX: deltaX,
		DeltaY: deltaY,
	}.Call(p.page.Context(ctx))
	if err != nil {
		return fmt.Errorf("mouse wheel failed: %w", err)
	}
	return nil
}

func (p *page) Screenshot(ctx context.Context) ([]byte, error) {
	ctx, cancel := p.owner.bound(ctx)
	defer cancel()

	img, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(screenshotQuality),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return img, nil
}

func (p *page) HTML(ctx context.Context) (string, error) {
	ctx, cancel := p.owner.bound(ctx)
	defer cancel()

	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (p *page) Close() error {
	return p.page.Close()
}

type locator struct {
	doc      *document
	selector string
	index    int
}

func (l *locator) Selector() string { return l.selector }

func (l *locator) Index() int { return l.index }

func (l *locator) Nth(index int) output.Locator {
	return &locator{doc: l.doc, selector: l.selector, index: index}
}

func (l *locator) query(ctx context.Context) (rod.Elements, error) {
	query, isXPath := parseSelector(l.selector)
	rp := l.doc.page.Context(ctx)
	if isXPath {
		return rp.ElementsX(query)
	}
	return rp.Elements(query)
}

func (l *locator) Count(ctx context.Context) (int, error) {
	ctx, cancel := l.doc.owner.bound(ctx)
	defer cancel()

	els, err := l.query(ctx)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", l.selector, err)
	}
	return len(els), nil
}

func (l *locator) Element(ctx context.Context) (output.Element, error) {
	els, err := l.query(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("query %s: %w", l.selector, err)
	}
	if len(els) <= l.index {
		return nil, fmt.Errorf("%w: %s matched %d element(s)", entity.ErrNotFound, l.selector, len(els))
	}
	return &element{el: els[l.index], label: fmt.Sprintf("%s[%d]", l.selector, l.index)}, nil
}

type element struct {
	el    *rod.Element
	label string
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

func (e *element) Actionable(ctx context.Context) error {
	el := e.el.Context(ctx)

	visible, err := el.Visible()
	if err != nil {
		return e.interactErr(ctx, err)
	}
	if !visible {
		return fmt.Errorf("%w: %s is not visible", entity.ErrNotInteractable, e.label)
	}

	disabled, err := el.Property("disabled")
	if err == nil && disabled.Bool() {
		return fmt.Errorf("%w: %s is disabled", entity.ErrNotInteractable, e.label)
	}

	if _, err := el.Interactable(); err != nil {
		return e.interactErr(ctx, err)
	}
	return nil
}

func (e *element) interactErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %s: %v", entity.ErrNotInteractable, e.label, err)
}

func (e *element) Click(ctx context.Context) error {
	if err := e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (e *element) Fill(ctx context.Context, text string) error {
	el := e.el.Context(ctx)
	// Typing replaces the selection.
	_ = el.SelectAllText()
	if err := el.Input(text); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}

// Package fakebrowser is an in-memory implementation of the automation ports
// with scripted DOM state, load timings and failures.
package fakebrowser

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"time"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/domain/entity"
)

var (
	_ output.Automation     = (*Automation)(nil)
	_ output.Engine         = (*Engine)(nil)
	_ output.Browser        = (*Browser)(nil)
	_ output.BrowserContext = (*Context)(nil)
	_ output.Page           = (*Page)(nil)
	_ output.Frame          = (*Frame)(nil)
)

// Recorder keeps an ordered log of every call the fakes receive.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *Recorder) Record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Count returns how many recorded events start with prefix.
func (r *Recorder) Count(prefix string) int {
	n := 0
	for _, e := range r.Events() {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

type Automation struct {
	Rec *Recorder

	StartErr        error
	LaunchErr       error
	ContextErr      error
	PageErr         error
	StopErr         error
	BrowserCloseErr error
	ContextCloseErr error
	PanicOnClose    bool

	// Setup runs against every page the fake opens.
	Setup func(p *Page)

	mu       sync.Mutex
	contexts []*Context
}

func New() *Automation {
	return &Automation{Rec: &Recorder{}}
}

func (a *Automation) Start(ctx context.Context) (output.Engine, error) {
	a.Rec.Record("engine.start")
	if a.StartErr != nil {
		return nil, a.StartErr
	}
	return &Engine{a: a}, nil
}

// Contexts returns every browser context opened so far.
func (a *Automation) Contexts() []*Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Context(nil), a.contexts...)
}

type Engine struct {
	a    *Automation
	Opts output.LaunchOptions
}

func (e *Engine) Launch(ctx context.Context, opts output.LaunchOptions) (output.Browser, error) {
	e.a.Rec.Record("engine.launch")
	e.Opts = opts
	if e.a.LaunchErr != nil {
		return nil, e.a.LaunchErr
	}
	return &Browser{a: e.a, opts: opts}, nil
}

func (e *Engine) Stop() error {
	e.a.Rec.Record("engine.stop")
	return e.a.StopErr
}

type Browser struct {
	a    *Automation
	opts output.LaunchOptions
}

func (b *Browser) NewContext(ctx context.Context) (output.BrowserContext, error) {
	b.a.Rec.Record("browser.new_context")
	if b.a.ContextErr != nil {
		return nil, b.a.ContextErr
	}
	c := &Context{a: b.a, opts: b.opts}
	b.a.mu.Lock()
	b.a.contexts = append(b.a.contexts, c)
	b.a.mu.Unlock()
	return c, nil
}

func (b *Browser) Close() error {
	b.a.Rec.Record("browser.close")
	return b.a.BrowserCloseErr
}

type Context struct {
	a              *Automation
	opts           output.LaunchOptions
	mu             sync.Mutex
	pages          []*Page
	DefaultTimeout time.Duration
}

func (c *Context) NewPage(ctx context.Context) (output.Page, error) {
	c.a.Rec.Record("context.new_page")
	if c.a.PageErr != nil {
		return nil, c.a.PageErr
	}
	return c.Open(), nil
}

// Open attaches a new page to the context, as a popup would.
func (c *Context) Open() *Page {
	p := NewPage(c.a.Rec)
	if c.a.Setup != nil {
		c.a.Setup(p)
	}
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()
	return p
}

func (c *Context) Pages(ctx context.Context) ([]output.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pages := make([]output.Page, 0, len(c.pages))
	for _, p := range c.pages {
		pages = append(pages, p)
	}
	return pages, nil
}

// PageAt returns the i-th opened page.
func (c *Context) PageAt(i int) *Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages[i]
}

func (c *Context) SetDefaultTimeout(d time.Duration) {
	c.a.Rec.Record("context.default_timeout %s", d)
	c.DefaultTimeout = d
}

func (c *Context) Close() error {
	c.a.Rec.Record("context.close")
	if c.a.PanicOnClose {
		panic("context close exploded")
	}
	return c.a.ContextCloseErr
}

// Node is one scripted element.
type Node struct {
	Visible  bool
	Disabled bool
	Covered  bool
	// AppearAfter delays attachment relative to the document's last navigation.
	AppearAfter time.Duration
	// ClickDelay blocks Click, simulating an action that never completes in time.
	ClickDelay time.Duration
	OnClick    func(p *Page)

	mu     sync.Mutex
	value  string
	clicks int
}

func Visible() *Node {
	return &Node{Visible: true}
}

func (n *Node) Value() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value
}

func (n *Node) Clicks() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.clicks
}

type doc struct {
	rec  *Recorder
	page *Page

	mu    sync.Mutex
	name  string
	url   string
	since time.Time
	nodes map[string][]*Node

	// SettleDelay is how long WaitForLoadState blocks; Stall blocks until ctx ends.
	SettleDelay time.Duration
	Stall       bool
}

func (d *doc) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

func (d *doc) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

// Set replaces the nodes matching selector.
func (d *doc) Set(selector string, nodes ...*Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes[selector] = nodes
}

func (d *doc) WaitForLoadState(ctx context.Context, state entity.LoadState) error {
	d.rec.Record("settle %s %s", d.label(), state)
	if d.Stall {
		<-ctx.Done()
		return ctx.Err()
	}
	return sleep(ctx, d.SettleDelay)
}

func (d *doc) label() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.name != "" {
		return d.name
	}
	return "main"
}

func (d *doc) Locator(selector string) output.Locator {
	return &Locator{doc: d, selector: selector}
}

func (d *doc) Evaluate(ctx context.Context, js string) (any, error) {
	d.rec.Record("evaluate %s", js)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.Contains(js, "innerHeight") {
		return d.page.InnerHeight, nil
	}
	return nil, nil
}

func (d *doc) attached(selector string) []*Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	elapsed := time.Since(d.since)
	var out []*Node
	for _, n := range d.nodes[selector] {
		if n.AppearAfter <= elapsed {
			out = append(out, n)
		}
	}
	return out
}

type Frame struct {
	*doc
}

type Page struct {
	*doc

	CommitDelay     time.Duration
	DOMContentDelay time.Duration
	LoadDelay       time.Duration
	GotoErr         error
	InnerHeight     float64
	Content         string
	// Routes reshape the page when it navigates to the keyed URL.
	Routes map[string]func(p *Page)

	mu      sync.Mutex
	frames  []*Frame
	scrollY float64
}

func NewPage(rec *Recorder) *Page {
	p := &Page{
		InnerHeight: 720,
		Content:     "<html><body><main>fake</main></body></html>",
		Routes:      make(map[string]func(p *Page)),
	}
	p.doc = &doc{
		rec:   rec,
		page:  p,
		url:   "about:blank",
		since: time.Now(),
		nodes: make(map[string][]*Node),
	}
	return p
}

// AddFrame attaches a nested frame.
func (p *Page) AddFrame(name, url string) *Frame {
	f := &Frame{doc: &doc{
		rec:   p.rec,
		page:  p,
		name:  name,
		url:   url,
		since: time.Now(),
		nodes: make(map[string][]*Node),
	}}
	p.mu.Lock()
	p.frames = append(p.frames, f)
	p.mu.Unlock()
	return f
}

func (p *Page) Goto(ctx context.Context, url string, waitUntil entity.LoadState) error {
	p.rec.Record("goto %s %s", url, waitUntil)
	if p.GotoErr != nil {
		return p.GotoErr
	}
	delay := p.CommitDelay
	switch waitUntil {
	case entity.LoadDOMContentLoaded:
		delay += p.DOMContentDelay
	case entity.LoadLoad:
		delay += p.DOMContentDelay + p.LoadDelay
	}
	if err := sleep(ctx, delay); err != nil {
		return err
	}
	p.doc.mu.Lock()
	p.doc.url = url
	p.doc.since = time.Now()
	p.doc.mu.Unlock()
	if route, ok := p.Routes[url]; ok {
		route(p)
	}
	return nil
}

func (p *Page) Frames(ctx context.Context) ([]output.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	frames := make([]output.Frame, 0, len(p.frames))
	for _, f := range p.frames {
		frames = append(frames, f)
	}
	return frames, nil
}

func (p *Page) Wheel(ctx context.Context, deltaX, deltaY float64) error {
	p.rec.Record("wheel %g %g", deltaX, deltaY)
	p.mu.Lock()
	p.scrollY += deltaY
	p.mu.Unlock()
	return ctx.Err()
}

func (p *Page) ScrollY() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollY
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		for y := 0; y < 6; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.Content, nil
}

func (p *Page) Close() error {
	p.rec.Record("page.close")
	return nil
}

type Locator struct {
	doc      *doc
	selector string
	index    int
}

func (l *Locator) Selector() string { return l.selector }

func (l *Locator) Index() int { return l.index }

func (l *Locator) Nth(index int) output.Locator {
	return &Locator{doc: l.doc, selector: l.selector, index: index}
}

func (l *Locator) Count(ctx context.Context) (int, error) {
	return len(l.doc.attached(l.selector)), nil
}

func (l *Locator) Element(ctx context.Context) (output.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nodes := l.doc.attached(l.selector)
	if len(nodes) <= l.index {
		return nil, fmt.Errorf("%w: %s matched %d element(s)", entity.ErrNotFound, l.selector, len(nodes))
	}
	return &Element{node: nodes[l.index], doc: l.doc, label: fmt.Sprintf("%s[%d]", l.selector, l.index)}, nil
}

type Element struct {
	node  *Node
	doc   *doc
	label string
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	return e.node.Visible, ctx.Err()
}

func (e *Element) Actionable(ctx context.Context) error {
	switch {
	case !e.node.Visible:
		return fmt.Errorf("%w: %s is not visible", entity.ErrNotInteractable, e.label)
	case e.node.Disabled:
		return fmt.Errorf("%w: %s is disabled", entity.ErrNotInteractable, e.label)
	case e.node.Covered:
		return fmt.Errorf("%w: %s is covered", entity.ErrNotInteractable, e.label)
	}
	return ctx.Err()
}

func (e *Element) Click(ctx context.Context) error {
	e.doc.rec.Record("click %s", e.label)
	if err := sleep(ctx, e.node.ClickDelay); err != nil {
		return err
	}
	e.node.mu.Lock()
	e.node.clicks++
	e.node.mu.Unlock()
	if e.node.OnClick != nil {
		e.node.OnClick(e.doc.page)
	}
	return nil
}

func (e *Element) Fill(ctx context.Context, text string) error {
	e.doc.rec.Record("fill %s %s", e.label, text)
	e.node.mu.Lock()
	e.node.value = text
	e.node.mu.Unlock()
	return ctx.Err()
}

func sleep(ctx context.Context, d time.Duration) error {
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

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/domain/entity"

	"github.com/google/uuid"
)

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
	defaultTimeout        = 5 * time.Second
)

// DefaultFlags keep the browser stable in constrained containers.
var DefaultFlags = []string{
	"disable-dev-shm-usage",
	"ipc=host",
	"single-process",
}

type Config struct {
	Launch         output.LaunchOptions
	DefaultTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Launch: output.LaunchOptions{
			Headless:       true,
			ViewportWidth:  defaultViewportWidth,
			ViewportHeight: defaultViewportHeight,
			Flags:          append([]string(nil), DefaultFlags...),
		},
		DefaultTimeout: defaultTimeout,
	}
}

var _ output.RunScope = (*Session)(nil)

// Session owns one engine, browser, isolated context and initial page.
// It is never shared between scenarios.
type Session struct {
	id             string
	engine         output.Engine
	browser        output.Browser
	context        output.BrowserContext
	page           output.Page
	defaultTimeout time.Duration
	logger         output.LoggerPort

	closeOnce sync.Once
	closeErr  error
}

func (s *Session) ID() string { return s.id }

func (s *Session) Page() output.Page { return s.page }

func (s *Session) Context() output.BrowserContext { return s.context }

func (s *Session) DefaultTimeout() time.Duration { return s.defaultTimeout }

// ActivePage returns the most recently opened page of the context, falling
// back to the session's initial page when the context cannot be queried.
func (s *Session) ActivePage(ctx context.Context) output.Page {
	if s.context == nil {
		return s.page
	}
	pages, err := s.context.Pages(ctx)
	if err != nil {
		s.logger.Debug("Listing pages failed, using initial page", "error", err)
		return s.page
	}
	if len(pages) == 0 {
		return s.page
	}
	return pages[len(pages)-1]
}

type Manager struct {
	automation output.Automation
	logger     output.LoggerPort
	metrics    output.MetricsPort
}

func NewManager(automation output.Automation, logger output.LoggerPort, metrics output.MetricsPort) *Manager {
	return &Manager{
		automation: automation,
		logger:     logger.WithField("component", "session"),
		metrics:    metrics,
	}
}

// Open starts the engine, launches a browser, creates one isolated context
// and opens one page. Whatever was acquired before a failure is released.
func (m *Manager) Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaultTimeout
	}

	id := uuid.NewString()
	s := &Session{
		id:             id,
		defaultTimeout: cfg.DefaultTimeout,
		logger:         m.logger.WithField("session_id", id),
	}

	engine, err := m.automation.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start automation engine: %w", err)
	}
	s.engine = engine

	browser, err := engine.Launch(ctx, cfg.Launch)
	if err != nil {
		m.release(s)
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	s.browser = browser

	bctx, err := browser.NewContext(ctx)
	if err != nil {
		m.release(s)
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	s.context = bctx
	bctx.SetDefaultTimeout(cfg.DefaultTimeout)

	page, err := bctx.NewPage(ctx)
	if err != nil {
		m.release(s)
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	s.page = page

	if m.metrics != nil {
		m.metrics.ObserveSessionOpened()
	}
	s.logger.Info("Session opened",
		"headless", cfg.Launch.Headless,
		"viewport", fmt.Sprintf("%dx%d", cfg.Launch.ViewportWidth, cfg.Launch.ViewportHeight),
		"default_timeout", cfg.DefaultTimeout.String(),
	)
	return s, nil
}

// Close releases context, browser and engine in that order. Each release is
// attempted even when an earlier one fails. Failures are logged and returned
// joined under entity.ErrSessionTeardown; callers record them, never raise them.
// Only the first call tears down; later calls return entity.ErrSessionClosed.
func (m *Manager) Close(s *Session) error {
	if s == nil {
		return nil
	}
	first := false
	s.closeOnce.Do(func() {
		first = true
		s.closeErr = m.release(s)
	})
	if !first {
		return entity.ErrSessionClosed
	}
	return s.closeErr
}

// With runs fn inside a fresh session and always closes it, including when
// fn panics. The teardown error is returned separately so it never shadows
// fn's own error.
func (m *Manager) With(ctx context.Context, cfg Config, fn func(ctx context.Context, s *Session) error) (err error, teardownErr error) {
	s, err := m.Open(ctx, cfg)
	if err != nil {
		return err, nil
	}
	defer func() {
		teardownErr = m.Close(s)
	}()
	return fn(ctx, s), nil
}

func (m *Manager) release(s *Session) error {
	var errs []error
	if s.context != nil {
		errs = append(errs, m.guard(s, "context", s.context.Close))
	}
	if s.browser != nil {
		errs = append(errs, m.guard(s, "browser", s.browser.Close))
	}
	if s.engine != nil {
		errs = append(errs, m.guard(s, "engine", s.engine.Stop))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrSessionTeardown, err)
	}
	s.logger.Info("Session closed")
	return nil
}

func (m *Manager) guard(s *Session, resource string, closeFn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("close %s panicked: %v", resource, r)
		}
		if err != nil {
			s.logger.Warn("Failed to release session resource", "resource", resource, "error", err)
			if m.metrics != nil {
				m.metrics.ObserveTeardownError(resource)
			}
		}
	}()
	if err := closeFn(); err != nil {
		return fmt.Errorf("close %s: %w", resource, err)
	}
	return nil
}

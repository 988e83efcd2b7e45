package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"e2e-harness/internal/application/port/output/mocks"
	"e2e-harness/internal/domain/entity"
	"e2e-harness/internal/infrastructure/logger"
	"e2e-harness/internal/testutil/fakebrowser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newManager(a *fakebrowser.Automation) *Manager {
	return NewManager(a, logger.NewNopLogger(), nil)
}

func TestOpen_AppliesLaunchConfig(t *testing.T) {
	fake := fakebrowser.New()
	m := newManager(fake)

	s, err := m.Open(context.Background(), DefaultConfig())
	require.NoError(t, err)
	defer m.Close(s)

	assert.NotEmpty(t, s.ID())
	assert.Equal(t, []string{
		"engine.start",
		"engine.launch",
		"browser.new_context",
		"context.default_timeout 5s",
		"context.new_page",
	}, fake.Rec.Events())

	ctxs := fake.Contexts()
	require.Len(t, ctxs, 1)
	assert.Equal(t, 5*time.Second, ctxs[0].DefaultTimeout)
	assert.Same(t, ctxs[0].PageAt(0), s.Page())
}

func TestOpen_DefaultsTimeout(t *testing.T) {
	m := newManager(fakebrowser.New())
	cfg := DefaultConfig()
	cfg.DefaultTimeout = 0

	s, err := m.Open(context.Background(), cfg)
	require.NoError(t, err)
	defer m.Close(s)

	assert.Equal(t, defaultTimeout, s.DefaultTimeout())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Launch.Headless)
	assert.Equal(t, 1280, cfg.Launch.ViewportWidth)
	assert.Equal(t, 720, cfg.Launch.ViewportHeight)
	assert.Equal(t, []string{"disable-dev-shm-usage", "ipc=host", "single-process"}, cfg.Launch.Flags)

	cfg.Launch.Flags[0] = "mutated"
	assert.Equal(t, "disable-dev-shm-usage", DefaultFlags[0])
}

func TestClose_ReleasesInReverseOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	automation := mocks.NewMockAutomation(ctrl)
	engine := mocks.NewMockEngine(ctrl)
	browser := mocks.NewMockBrowser(ctrl)
	bctx := mocks.NewMockBrowserContext(ctrl)
	page := fakebrowser.NewPage(&fakebrowser.Recorder{})

	gomock.InOrder(
		automation.EXPECT().Start(gomock.Any()).Return(engine, nil),
		engine.EXPECT().Launch(gomock.Any(), gomock.Any()).Return(browser, nil),
		browser.EXPECT().NewContext(gomock.Any()).Return(bctx, nil),
		bctx.EXPECT().SetDefaultTimeout(5*time.Second),
		bctx.EXPECT().NewPage(gomock.Any()).Return(page, nil),
		bctx.EXPECT().Close().Return(nil),
		browser.EXPECT().Close().Return(nil),
		engine.EXPECT().Stop().Return(nil),
	)

	m := NewManager(automation, logger.NewNopLogger(), nil)
	s, err := m.Open(context.Background(), DefaultConfig())
	require.NoError(t, err)
	assert.NoError(t, m.Close(s))
}

func TestClose_ContinuesAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	automation := mocks.NewMockAutomation(ctrl)
	engine := mocks.NewMockEngine(ctrl)
	browser := mocks.NewMockBrowser(ctrl)
	bctx := mocks.NewMockBrowserContext(ctrl)
	page := fakebrowser.NewPage(&fakebrowser.Recorder{})

	automation.EXPECT().Start(gomock.Any()).Return(engine, nil)
	engine.EXPECT().Launch(gomock.Any(), gomock.Any()).Return(browser, nil)
	browser.EXPECT().NewContext(gomock.Any()).Return(bctx, nil)
	bctx.EXPECT().SetDefaultTimeout(gomock.Any())
	bctx.EXPECT().NewPage(gomock.Any()).Return(page, nil)

	closeErr := errors.New("target crashed")
	gomock.InOrder(
		bctx.EXPECT().Close().Return(closeErr),
		browser.EXPECT().Close().Return(nil),
		engine.EXPECT().Stop().Return(nil),
	)

	m := NewManager(automation, logger.NewNopLogger(), nil)
	s, err := m.Open(context.Background(), DefaultConfig())
	require.NoError(t, err)

	err = m.Close(s)
	assert.ErrorIs(t, err, entity.ErrSessionTeardown)
	assert.ErrorIs(t, err, closeErr)
}

func TestOpen_ReleasesPartialAcquisition(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(a *fakebrowser.Automation)
		events []string
	}{
		{
			name:   "engine fails",
			setup:  func(a *fakebrowser.Automation) { a.StartErr = errors.New("no driver") },
			events: []string{"engine.start"},
		},
		{
			name:   "launch fails",
			setup:  func(a *fakebrowser.Automation) { a.LaunchErr = errors.New("no chrome") },
			events: []string{"engine.start", "engine.launch", "engine.stop"},
		},
		{
			name:   "context fails",
			setup:  func(a *fakebrowser.Automation) { a.ContextErr = errors.New("boom") },
			events: []string{"engine.start", "engine.launch", "browser.new_context", "browser.close", "engine.stop"},
		},
		{
			name:  "page fails",
			setup: func(a *fakebrowser.Automation) { a.PageErr = errors.New("boom") },
			events: []string{
				"engine.start", "engine.launch", "browser.new_context", "context.default_timeout 5s",
				"context.new_page", "context.close", "browser.close", "engine.stop",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := fakebrowser.New()
			tt.setup(fake)

			s, err := newManager(fake).Open(context.Background(), DefaultConfig())
			assert.Error(t, err)
			assert.Nil(t, s)
			assert.Equal(t, tt.events, fake.Rec.Events())
		})
	}
}

func TestClose_RecoversPanics(t *testing.T) {
	fake := fakebrowser.New()
	fake.PanicOnClose = true
	m := newManager(fake)

	s, err := m.Open(context.Background(), DefaultConfig())
	require.NoError(t, err)

	err = m.Close(s)
	assert.ErrorIs(t, err, entity.ErrSessionTeardown)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, 1, fake.Rec.Count("browser.close"))
	assert.Equal(t, 1, fake.Rec.Count("engine.stop"))
}

func TestClose_OnlyOnce(t *testing.T) {
	fake := fakebrowser.New()
	m := newManager(fake)

	s, err := m.Open(context.Background(), DefaultConfig())
	require.NoError(t, err)

	assert.NoError(t, m.Close(s))
	assert.ErrorIs(t, m.Close(s), entity.ErrSessionClosed)
	assert.Equal(t, 1, fake.Rec.Count("engine.stop"))
	assert.NoError(t, m.Close(nil))
}

func TestWith_ClosesOnEveryPath(t *testing.T) {
	stepErr := errors.New("step failed")

	tests := []struct {
		name    string
		fn      func(ctx context.Context, s *Session) error
		wantErr error
	}{
		{name: "success", fn: func(ctx context.Context, s *Session) error { return nil }},
		{name: "failure", fn: func(ctx context.Context, s *Session) error { return stepErr }, wantErr: stepErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := fakebrowser.New()
			fake.BrowserCloseErr = errors.New("already gone")

			err, teardownErr := newManager(fake).With(context.Background(), DefaultConfig(), tt.fn)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.ErrorIs(t, teardownErr, entity.ErrSessionTeardown)
			assert.Equal(t, 1, fake.Rec.Count("context.close"))
			assert.Equal(t, 1, fake.Rec.Count("engine.stop"))
		})
	}
}

func TestWith_ClosesOnPanic(t *testing.T) {
	fake := fakebrowser.New()
	m := newManager(fake)

	assert.Panics(t, func() {
		_, _ = m.With(context.Background(), DefaultConfig(), func(ctx context.Context, s *Session) error {
			panic("scenario exploded")
		})
	})
	assert.Equal(t, 1, fake.Rec.Count("engine.stop"))
}

func TestActivePage_PrefersMostRecent(t *testing.T) {
	fake := fakebrowser.New()
	m := newManager(fake)

	s, err := m.Open(context.Background(), DefaultConfig())
	require.NoError(t, err)
	defer m.Close(s)

	assert.Same(t, s.Page(), s.ActivePage(context.Background()))

	popup := fake.Contexts()[0].Open()
	assert.Same(t, popup, s.ActivePage(context.Background()))
}

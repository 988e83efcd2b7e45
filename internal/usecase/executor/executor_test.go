package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"e2e-harness/internal/domain/entity"
	"e2e-harness/internal/infrastructure/logger"
	"e2e-harness/internal/testutil/fakebrowser"
	"e2e-harness/internal/usecase/locator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(settle time.Duration) *Executor {
	waiter := locator.NewWaiter(locator.Policy{SettleDelay: settle, PollInterval: 5 * time.Millisecond})
	return New(DefaultConfig(), waiter, logger.NewNopLogger())
}

func handle(t *testing.T, page *fakebrowser.Page, path string, index int) *locator.Handle {
	t.Helper()
	h, err := locator.Locate(page, entity.ElementRef{Path: path, Index: index})
	require.NoError(t, err)
	return h
}

func TestFill(t *testing.T) {
	rec := &fakebrowser.Recorder{}
	page := fakebrowser.NewPage(rec)
	first, second := fakebrowser.Visible(), fakebrowser.Visible()
	page.Set("//input", first, second)

	err := newExecutor(0).Fill(context.Background(), handle(t, page, "//input", 1), "admin", time.Second)
	require.NoError(t, err)

	assert.Empty(t, first.Value())
	assert.Equal(t, "admin", second.Value())
	assert.Equal(t, []string{"fill //input[1] admin"}, rec.Events())
}

func TestClick_SettlesFirst(t *testing.T) {
	page := fakebrowser.NewPage(&fakebrowser.Recorder{})
	btn := fakebrowser.Visible()
	page.Set("button", btn)

	start := time.Now()
	err := newExecutor(60*time.Millisecond).Click(context.Background(), handle(t, page, "button", 0), time.Second)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Equal(t, 1, btn.Clicks())
}

func TestClick_ActionTimeout(t *testing.T) {
	page := fakebrowser.NewPage(&fakebrowser.Recorder{})
	page.Set("button", &fakebrowser.Node{Visible: true, ClickDelay: time.Hour})

	const timeout = 100 * time.Millisecond
	start := time.Now()
	err := newExecutor(0).Click(context.Background(), handle(t, page, "button", 0), timeout)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, entity.ErrActionTimeout)
	assert.NotErrorIs(t, err, entity.ErrNotFound)
	assert.Contains(t, err.Error(), "click button")
	assert.Less(t, elapsed, timeout*3/2)
}

func TestClick_FailureKinds(t *testing.T) {
	tests := []struct {
		name  string
		nodes []*fakebrowser.Node
		want  error
	}{
		{name: "missing", want: entity.ErrNotFound},
		{name: "disabled", nodes: []*fakebrowser.Node{{Visible: true, Disabled: true}}, want: entity.ErrNotInteractable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := fakebrowser.NewPage(&fakebrowser.Recorder{})
			page.Set("button", tt.nodes...)

			err := newExecutor(0).Click(context.Background(), handle(t, page, "button", 0), 40*time.Millisecond)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, entity.IsRetryable(err))
		})
	}
}

func TestNavigate_CommitDoesNotWaitForContent(t *testing.T) {
	rec := &fakebrowser.Recorder{}
	page := fakebrowser.NewPage(rec)
	page.DOMContentDelay = 300 * time.Millisecond

	ex := newExecutor(0)

	start := time.Now()
	require.NoError(t, ex.Navigate(context.Background(), page, "http://app.test/", entity.LoadCommit, time.Second))
	commitElapsed := time.Since(start)

	start = time.Now()
	require.NoError(t, ex.Navigate(context.Background(), page, "http://app.test/", entity.LoadDOMContentLoaded, time.Second))
	domElapsed := time.Since(start)

	assert.Less(t, commitElapsed, 100*time.Millisecond)
	assert.GreaterOrEqual(t, domElapsed, 300*time.Millisecond)
	assert.Equal(t, []string{
		"goto http://app.test/ commit",
		"goto http://app.test/ domcontentloaded",
	}, rec.Events())
}

func TestNavigate_Timeout(t *testing.T) {
	page := fakebrowser.NewPage(&fakebrowser.Recorder{})
	page.LoadDelay = time.Hour

	err := newExecutor(0).Navigate(context.Background(), page, "https://app.test/slow", entity.LoadLoad, 50*time.Millisecond)
	assert.ErrorIs(t, err, entity.ErrNavigationTimeout)
	assert.Contains(t, err.Error(), "https://app.test/slow")
}

func TestNavigate_Errors(t *testing.T) {
	page := fakebrowser.NewPage(&fakebrowser.Recorder{})
	ex := newExecutor(0)

	err := ex.Navigate(context.Background(), page, "ftp://files.test", entity.LoadCommit, time.Second)
	assert.ErrorIs(t, err, entity.ErrInvalidURL)
	assert.False(t, entity.IsRetryable(err))

	err = ex.Navigate(context.Background(), page, "http://", entity.LoadCommit, time.Second)
	assert.ErrorIs(t, err, entity.ErrInvalidURL)

	refused := errors.New("net::ERR_CONNECTION_REFUSED")
	page.GotoErr = refused
	err = ex.Navigate(context.Background(), page, "http://localhost:1", entity.LoadCommit, time.Second)
	assert.ErrorIs(t, err, entity.ErrActionFailed)
	assert.ErrorIs(t, err, refused)
}

func TestScroll_ByViewportHeight(t *testing.T) {
	rec := &fakebrowser.Recorder{}
	page := fakebrowser.NewPage(rec)
	page.InnerHeight = 800
	ex := newExecutor(0)

	require.NoError(t, ex.Scroll(context.Background(), page, 1, 0))
	require.NoError(t, ex.Scroll(context.Background(), page, 0.5, 0))
	assert.Equal(t, 1200.0, page.ScrollY())

	require.NoError(t, ex.Scroll(context.Background(), page, -1.5, 0))
	assert.Zero(t, page.ScrollY())
	assert.Equal(t, 3, rec.Count("wheel 0 "))
}

func TestToFloat(t *testing.T) {
	v, err := toFloat(720)
	require.NoError(t, err)
	assert.Equal(t, 720.0, v)

	_, err = toFloat("720")
	assert.Error(t, err)
}

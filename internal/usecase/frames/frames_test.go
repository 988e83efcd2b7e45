package frames

import (
	"context"
	"testing"
	"time"

	"e2e-harness/internal/domain/entity"
	"e2e-harness/internal/infrastructure/logger"
	"e2e-harness/internal/testutil/fakebrowser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettle_SkipsStalledFrames(t *testing.T) {
	rec := &fakebrowser.Recorder{}
	page := fakebrowser.NewPage(rec)
	page.AddFrame("ads", "https://ads.example/slot")
	stalled := page.AddFrame("chat", "https://chat.example/widget")
	stalled.Stall = true
	page.AddFrame("", "https://app.example/embed")

	r := NewResolver(logger.NewNopLogger())

	start := time.Now()
	report := r.Settle(context.Background(), page, 50*time.Millisecond)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"about:blank", "ads", "https://app.example/embed"}, report.Settled)
	assert.Equal(t, []string{"chat"}, report.Skipped)
	assert.Equal(t, []string{
		"settle main domcontentloaded",
		"settle ads domcontentloaded",
		"settle chat domcontentloaded",
		"settle main domcontentloaded",
	}, rec.Events())
}

func TestSettle_EachFrameHasOwnTimeout(t *testing.T) {
	page := fakebrowser.NewPage(&fakebrowser.Recorder{})
	page.SettleDelay = 30 * time.Millisecond
	for _, name := range []string{"a", "b", "c"} {
		f := page.AddFrame(name, "")
		f.SettleDelay = 30 * time.Millisecond
	}

	report := NewResolver(logger.NewNopLogger()).Settle(context.Background(), page, 50*time.Millisecond)

	assert.Len(t, report.Settled, 4)
	assert.Empty(t, report.Skipped)
}

func TestCurrent_FollowsNewestPage(t *testing.T) {
	fake := fakebrowser.New()
	engine, err := fake.Start(context.Background())
	require.NoError(t, err)
	browser, err := engine.Launch(context.Background(), fakeLaunch())
	require.NoError(t, err)
	bctx, err := browser.NewContext(context.Background())
	require.NoError(t, err)
	first, err := bctx.NewPage(context.Background())
	require.NoError(t, err)

	scope := &stubScope{ctx: fake.Contexts()[0], fallback: first}
	r := NewResolver(logger.NewNopLogger())

	assert.Same(t, first, r.Current(context.Background(), scope))

	popup := fake.Contexts()[0].Open()
	assert.Same(t, popup, r.Current(context.Background(), scope))
}

func TestTarget(t *testing.T) {
	page := fakebrowser.NewPage(&fakebrowser.Recorder{})
	named := page.AddFrame("editor", "https://app.example/editor")
	anon := page.AddFrame("", "https://cdn.example/payments/checkout")

	r := NewResolver(logger.NewNopLogger())
	ctx := context.Background()

	f, err := r.Target(ctx, page, "")
	require.NoError(t, err)
	assert.Same(t, page, f)

	f, err = r.Target(ctx, page, "editor")
	require.NoError(t, err)
	assert.Same(t, named, f)

	f, err = r.Target(ctx, page, "payments")
	require.NoError(t, err)
	assert.Same(t, anon, f)

	_, err = r.Target(ctx, page, "missing")
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.Contains(t, err.Error(), "frame missing")
}

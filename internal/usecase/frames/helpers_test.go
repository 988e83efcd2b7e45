package frames

import (
	"context"
	"time"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/testutil/fakebrowser"
)

type stubScope struct {
	ctx      *fakebrowser.Context
	fallback output.Page
}

func (s *stubScope) ID() string { return "test" }

func (s *stubScope) DefaultTimeout() time.Duration { return time.Second }

func (s *stubScope) ActivePage(ctx context.Context) output.Page {
	pages, err := s.ctx.Pages(ctx)
	if err != nil || len(pages) == 0 {
		return s.fallback
	}
	return pages[len(pages)-1]
}

func fakeLaunch() output.LaunchOptions {
	return output.LaunchOptions{Headless: true, ViewportWidth: 1280, ViewportHeight: 720}
}

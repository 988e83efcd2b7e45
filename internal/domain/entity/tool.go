package entity

import (
	"fmt"
	"strings"
	"time"
)

type StepKind string

const (
	StepNavigate StepKind = "navigate"
	StepWait     StepKind = "wait"
	StepSettle   StepKind = "settle"
	StepFill     StepKind = "fill"
	StepClick    StepKind = "click"
	StepScroll   StepKind = "scroll"
	StepAssert   StepKind = "assert"
)

var stepKinds = []StepKind{StepNavigate, StepWait, StepSettle, StepFill, StepClick, StepScroll, StepAssert}

func (k StepKind) String() string {
	return string(k)
}

func (k StepKind) Valid() bool {
	for _, known := range stepKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Interactive reports whether the step resolves an element before acting on it.
func (k StepKind) Interactive() bool {
	return k == StepFill || k == StepClick
}

// LoadState is the document readiness a navigation or settle waits for.
type LoadState string

const (
	LoadCommit           LoadState = "commit"
	LoadDOMContentLoaded LoadState = "domcontentloaded"
	LoadLoad             LoadState = "load"
)

func ParseLoadState(s string) (LoadState, error) {
	switch LoadState(strings.ToLower(strings.TrimSpace(s))) {
	case "", LoadCommit:
		return LoadCommit, nil
	case LoadDOMContentLoaded:
		return LoadDOMContentLoaded, nil
	case LoadLoad:
		return LoadLoad, nil
	}
	return "", fmt.Errorf("unknown load state %q", s)
}

// ElementRef is a logical, re-resolvable reference to a DOM element:
// a structural selector plus the ordinal of the match to use.
// Frame optionally names a nested frame (by name or URL fragment).
type ElementRef struct {
	Path  string
	Index int
	Frame string
}

func (r ElementRef) String() string {
	s := fmt.Sprintf("%s[%d]", r.Path, r.Index)
	if r.Frame != "" {
		s = r.Frame + " >> " + s
	}
	return s
}

type Step struct {
	Kind        StepKind
	Description string

	// navigate
	URL       string
	WaitUntil LoadState

	// fill, click
	Target ElementRef
	Value  string

	// scroll, in viewport heights; negative scrolls up
	Scroll float64

	// wait
	Delay time.Duration

	// assert
	Expectations []Expectation

	Timeout  time.Duration
	Retries  int
	Optional bool
}

func (s Step) String() string {
	switch s.Kind {
	case StepNavigate:
		return fmt.Sprintf("navigate %s", s.URL)
	case StepFill:
		return fmt.Sprintf("fill %s", s.Target)
	case StepClick:
		return fmt.Sprintf("click %s", s.Target)
	case StepScroll:
		return fmt.Sprintf("scroll %g", s.Scroll)
	case StepWait:
		return fmt.Sprintf("wait %s", s.Delay)
	case StepAssert:
		return fmt.Sprintf("assert %d expectation(s)", len(s.Expectations))
	}
	return string(s.Kind)
}

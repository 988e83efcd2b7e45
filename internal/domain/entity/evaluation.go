package entity

import (
	"fmt"
	"strings"
	"time"
)

type ExpectedState string

const (
	StateVisible  ExpectedState = "visible"
	StateHidden   ExpectedState = "hidden"
	StateAttached ExpectedState = "attached"
)

func ParseExpectedState(s string) (ExpectedState, error) {
	switch ExpectedState(strings.ToLower(strings.TrimSpace(s))) {
	case "", StateVisible:
		return StateVisible, nil
	case StateHidden:
		return StateHidden, nil
	case StateAttached:
		return StateAttached, nil
	}
	return "", fmt.Errorf("unknown expected state %q", s)
}

// Expectation names content that should reach State within Timeout.
// Text is shorthand for the first element whose own text contains it.
type Expectation struct {
	Text    string
	Target  ElementRef
	State   ExpectedState
	Timeout time.Duration
}

func (e Expectation) Ref() ElementRef {
	if e.Text != "" {
		return ElementRef{Path: "text=" + e.Text, Index: 0, Frame: e.Target.Frame}
	}
	return e.Target
}

func (e Expectation) ExpectedState() ExpectedState {
	if e.State == "" {
		return StateVisible
	}
	return e.State
}

func (e Expectation) String() string {
	ref := e.Ref()
	if e.Text != "" {
		return fmt.Sprintf("%s %s", e.ExpectedState(), ref.Path)
	}
	return fmt.Sprintf("%s %s", e.ExpectedState(), ref)
}

type AssertionResult struct {
	Expectation Expectation
	Passed      bool
	Elapsed     time.Duration
	Err         error
}

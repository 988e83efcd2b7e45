package entity

import (
	"fmt"
	"strings"
	"time"
)

type Scenario struct {
	Name        string
	Description string
	BaseURL     string
	Steps       []Step
	Assertions  []Expectation
	// Hold keeps the session open after the final assertions.
	Hold time.Duration
}

type ScenarioState string

const (
	StateInit       ScenarioState = "init"
	StateNavigating ScenarioState = "navigating"
	StateSettling   ScenarioState = "settling"
	StateExecuting  ScenarioState = "executing"
	StateAsserting  ScenarioState = "asserting"
	StateDone       ScenarioState = "done"
	StateFailed     ScenarioState = "failed"
	StateTornDown   ScenarioState = "torn_down"
)

type StateTransition struct {
	State  ScenarioState
	Step   int // -1 outside of step execution
	Reason string
	At     time.Time
}

type ScenarioStatus string

const (
	StatusPassed ScenarioStatus = "passed"
	StatusFailed ScenarioStatus = "failed"
)

type StepStatus string

const (
	StepPassed    StepStatus = "passed"
	StepFailed    StepStatus = "failed"
	StepTolerated StepStatus = "tolerated"
	StepSkipped   StepStatus = "skipped"
)

type StepResult struct {
	Index      int
	Step       Step
	Status     StepStatus
	Attempts   int
	Elapsed    time.Duration
	Err        error
	Assertions []AssertionResult
}

type ScenarioResult struct {
	Name        string
	SessionID   string
	Status      ScenarioStatus
	Transitions []StateTransition
	Steps       []StepResult
	Assertions  []AssertionResult
	// Failure is the step error that aborted the remaining steps, if any.
	Failure     error
	TeardownErr error
	Diagnostics *Snapshot
	StartedAt   time.Time
	Duration    time.Duration
}

func NewScenarioResult(name string) *ScenarioResult {
	r := &ScenarioResult{
		Name:      name,
		Status:    StatusFailed,
		StartedAt: time.Now(),
	}
	r.Transition(StateInit, -1, "")
	return r
}

func (r *ScenarioResult) Transition(state ScenarioState, step int, reason string) {
	r.Transitions = append(r.Transitions, StateTransition{
		State:  state,
		Step:   step,
		Reason: reason,
		At:     time.Now(),
	})
}

func (r *ScenarioResult) State() ScenarioState {
	if len(r.Transitions) == 0 {
		return StateInit
	}
	return r.Transitions[len(r.Transitions)-1].State
}

func (r *ScenarioResult) Passed() bool {
	return r.Status == StatusPassed
}

func (r *ScenarioResult) FailedAssertions() []AssertionResult {
	var failed []AssertionResult
	for _, a := range r.Assertions {
		if !a.Passed {
			failed = append(failed, a)
		}
	}
	return failed
}

// Finalize derives the status: passed only when no required step failed and
// every final assertion passed.
func (r *ScenarioResult) Finalize() {
	r.Status = StatusPassed
	if r.Failure != nil || len(r.FailedAssertions()) > 0 {
		r.Status = StatusFailed
	}
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			r.Status = StatusFailed
		}
	}
	r.Duration = time.Since(r.StartedAt)
}

func (r *ScenarioResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s: %s\n", r.Name, strings.ToUpper(string(r.Status)))

	if len(r.Steps) > 0 {
		b.WriteString("  steps:\n")
		for _, s := range r.Steps {
			fmt.Fprintf(&b, "    [%d] %s ... %s", s.Index+1, s.Step, s.Status)
			if s.Attempts > 1 {
				fmt.Fprintf(&b, " (%d attempts)", s.Attempts)
			}
			if s.Err != nil {
				fmt.Fprintf(&b, ": %v", s.Err)
			}
			b.WriteString("\n")
		}
	}

	passed := len(r.Assertions) - len(r.FailedAssertions())
	fmt.Fprintf(&b, "  assertions: %d/%d passed\n", passed, len(r.Assertions))
	for _, a := range r.Assertions {
		mark := "PASS"
		if !a.Passed {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "    %s %s", mark, a.Expectation)
		if a.Err != nil {
			fmt.Fprintf(&b, ": %v", a.Err)
		}
		b.WriteString("\n")
	}

	if r.Failure != nil {
		fmt.Fprintf(&b, "  failure: %v\n", r.Failure)
	}
	if r.TeardownErr != nil {
		fmt.Fprintf(&b, "  teardown: %v\n", r.TeardownErr)
	}
	return b.String()
}

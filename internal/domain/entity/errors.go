package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("element not found")
	ErrNotInteractable   = errors.New("element not interactable")
	ErrActionTimeout     = errors.New("action timeout")
	ErrActionFailed      = errors.New("action failed")
	ErrNavigationTimeout = errors.New("navigation timeout")
	ErrAssertionTimeout  = errors.New("assertion timeout")
	ErrSessionTeardown   = errors.New("session teardown failed")

	ErrInvalidLocator = errors.New("invalid locator")
	ErrInvalidURL     = errors.New("invalid URL")
	ErrSessionClosed  = errors.New("session closed")
	ErrUnknownStep    = errors.New("unknown step kind")
)

// HarnessError carries the failing action and element path alongside one of
// the sentinel kinds above. errors.Is matches both Kind and the wrapped cause.
type HarnessError struct {
	Kind    error
	Action  string
	Path    string
	Index   int
	Timeout time.Duration
	Err     error
}

func (e *HarnessError) Error() string {
	msg := e.Kind.Error()
	if e.Action != "" {
		target := e.Path
		if target != "" && e.Index > 0 {
			target = fmt.Sprintf("%s[%d]", e.Path, e.Index)
		}
		if target != "" {
			msg = fmt.Sprintf("%s %s: %s", e.Action, target, msg)
		} else {
			msg = fmt.Sprintf("%s: %s", e.Action, msg)
		}
	}
	if e.Timeout > 0 {
		msg = fmt.Sprintf("%s after %s", msg, e.Timeout)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *HarnessError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewHarnessError(kind error, action string, ref ElementRef, timeout time.Duration, cause error) *HarnessError {
	return &HarnessError{
		Kind:    kind,
		Action:  action,
		Path:    ref.Path,
		Index:   ref.Index,
		Timeout: timeout,
		Err:     cause,
	}
}

// IsTimeout reports whether err is one of the deadline-bound failure kinds.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrActionTimeout) ||
		errors.Is(err, ErrNavigationTimeout) ||
		errors.Is(err, ErrAssertionTimeout)
}

// IsRetryable reports whether a step failing with err might succeed if run again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSessionClosed) || errors.Is(err, ErrInvalidLocator) || errors.Is(err, ErrInvalidURL) {
		return false
	}
	return IsTimeout(err) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotInteractable)
}

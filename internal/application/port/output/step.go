package output

import (
	"context"
	"time"

	"e2e-harness/internal/domain/entity"
)

// RunScope is what a step handler sees of the session it runs in.
type RunScope interface {
	ID() string
	ActivePage(ctx context.Context) Page
	DefaultTimeout() time.Duration
}

type StepHandler interface {
	Kind() entity.StepKind
	Handle(ctx context.Context, scope RunScope, step entity.Step) error
}

type StepRegistry interface {
	Register(handler StepHandler)
	Get(kind entity.StepKind) (StepHandler, bool)
	Kinds() []entity.StepKind
}

type MetricsPort interface {
	ObserveStep(kind entity.StepKind, status entity.StepStatus, elapsed time.Duration)
	ObserveAssertion(passed bool)
	ObserveScenario(status entity.ScenarioStatus)
	ObserveSessionOpened()
	ObserveTeardownError(resource string)
}

type SnapshotPort interface {
	Capture(ctx context.Context, page Page) (*entity.Snapshot, error)
}

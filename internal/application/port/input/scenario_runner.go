package input

import (
	"context"

	"e2e-harness/internal/domain/entity"
)

type ScenarioRunner interface {
	// RunScenario opens a session, drives every step and the final assertion
	// batch, and tears the session down. The returned error is non-nil only
	// when no session could be opened; the result is always populated.
	RunScenario(ctx context.Context, scenario entity.Scenario) (*entity.ScenarioResult, error)
}

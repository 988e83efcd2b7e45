package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"e2e-harness/internal/domain/entity"
)

type report struct {
	Name       string            `json:"name"`
	SessionID  string            `json:"session_id,omitempty"`
	Status     string            `json:"status"`
	DurationMS int64             `json:"duration_ms"`
	Steps      []stepReport      `json:"steps"`
	Assertions []assertionReport `json:"assertions"`
	Failure    string            `json:"failure,omitempty"`
	Teardown   string            `json:"teardown,omitempty"`
	Artifacts  []string          `json:"artifacts,omitempty"`

	summary string
}

type stepReport struct {
	Index    int    `json:"index"`
	Step     string `json:"step"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

type assertionReport struct {
	Expectation string `json:"expectation"`
	Passed      bool   `json:"passed"`
	Error       string `json:"error,omitempty"`
}

func newReport(res *entity.ScenarioResult) report {
	r := report{
		Name:       res.Name,
		SessionID:  res.SessionID,
		Status:     string(res.Status),
		DurationMS: res.Duration.Milliseconds(),
		Steps:      []stepReport{},
		Assertions: []assertionReport{},
		Failure:    errString(res.Failure),
		Teardown:   errString(res.TeardownErr),
		summary:    res.Summary(),
	}
	for _, s := range res.Steps {
		r.Steps = append(r.Steps, stepReport{
			Index:    s.Index,
			Step:     s.Step.String(),
			Status:   string(s.Status),
			Attempts: s.Attempts,
			Error:    errString(s.Err),
		})
	}
	for _, a := range res.Assertions {
		r.Assertions = append(r.Assertions, assertionReport{
			Expectation: a.Expectation.String(),
			Passed:      a.Passed,
			Error:       errString(a.Err),
		})
	}
	return r
}

func writeReports(w io.Writer, format string, reports []report) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	passed := 0
	for _, r := range reports {
		fmt.Fprint(w, r.summary)
		for _, a := range r.Artifacts {
			fmt.Fprintf(w, "  artifact: %s\n", a)
		}
		if r.Status == string(entity.StatusPassed) {
			passed++
		}
	}
	fmt.Fprintf(w, "\n%d/%d scenario(s) passed\n", passed, len(reports))
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// artifactName turns a scenario name into a safe file stem.
func artifactName(name string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	stem = strings.Trim(stem, "_")
	if stem == "" {
		return "scenario"
	}
	return stem
}

package scenariofile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"e2e-harness/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk shape of a scenario.
type Document struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	BaseURL     string           `yaml:"base_url,omitempty"`
	Hold        Duration         `yaml:"hold,omitempty"`
	Steps       []StepDoc        `yaml:"steps"`
	Assertions  []ExpectationDoc `yaml:"assertions,omitempty"`
}

type StepDoc struct {
	Kind        string `yaml:"kind"`
	Description string `yaml:"description,omitempty"`

	URL       string `yaml:"url,omitempty"`
	WaitUntil string `yaml:"wait_until,omitempty"`

	Path  string `yaml:"path,omitempty"`
	Index int    `yaml:"index,omitempty"`
	Frame string `yaml:"frame,omitempty"`
	Value string `yaml:"value,omitempty"`

	// Scroll is measured in viewport heights.
	Scroll float64  `yaml:"scroll,omitempty"`
	Delay  Duration `yaml:"delay,omitempty"`

	Expect []ExpectationDoc `yaml:"expect,omitempty"`

	Timeout  Duration `yaml:"timeout,omitempty"`
	Retries  int      `yaml:"retries,omitempty"`
	Optional bool     `yaml:"optional,omitempty"`
}

type ExpectationDoc struct {
	Text    string   `yaml:"text,omitempty"`
	Path    string   `yaml:"path,omitempty"`
	Index   int      `yaml:"index,omitempty"`
	Frame   string   `yaml:"frame,omitempty"`
	State   string   `yaml:"state,omitempty"`
	Timeout Duration `yaml:"timeout,omitempty"`
}

// Duration accepts Go duration strings ("1.5s") or a bare integer of milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	if ms, err := strconv.ParseInt(value.Value, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", value.Line, value.Value)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// LoadFile reads, strictly decodes and validates one scenario file.
func LoadFile(path string) (*entity.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse rejects unknown fields so a typo such as "asertions:" never silently
// drops expectations.
func Parse(r io.Reader) (*entity.Scenario, error) {
	var doc Document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	sc, err := doc.Scenario()
	if err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return sc, nil
}

// Scenario converts the document, reporting every validation problem at once.
func (d Document) Scenario() (*entity.Scenario, error) {
	var errs []error
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if len(d.Steps) == 0 && len(d.Assertions) == 0 {
		errs = append(errs, errors.New("steps or assertions are required"))
	}
	if d.Hold < 0 {
		errs = append(errs, errors.New("hold must not be negative"))
	}

	sc := &entity.Scenario{
		Name:        d.Name,
		Description: d.Description,
		BaseURL:     d.BaseURL,
		Hold:        time.Duration(d.Hold),
	}
	for i, sd := range d.Steps {
		step, err := sd.step()
		if err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s): %w", i+1, sd.Kind, err))
			continue
		}
		sc.Steps = append(sc.Steps, step)
	}
	for i, ed := range d.Assertions {
		exp, err := ed.expectation()
		if err != nil {
			errs = append(errs, fmt.Errorf("assertion %d: %w", i+1, err))
			continue
		}
		sc.Assertions = append(sc.Assertions, exp)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sd StepDoc) step() (entity.Step, error) {
	kind := entity.StepKind(strings.ToLower(strings.TrimSpace(sd.Kind)))
	step := entity.Step{
		Kind:        kind,
		Description: sd.Description,
		URL:         sd.URL,
		Target:      entity.ElementRef{Path: sd.Path, Index: sd.Index, Frame: sd.Frame},
		Value:       sd.Value,
		Scroll:      sd.Scroll,
		Delay:       time.Duration(sd.Delay),
		Timeout:     time.Duration(sd.Timeout),
		Retries:     sd.Retries,
		Optional:    sd.Optional,
	}

	var errs []error
	if !kind.Valid() {
		return step, fmt.Errorf("%w: %q", entity.ErrUnknownStep, sd.Kind)
	}
	if sd.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if sd.Retries < 0 {
		errs = append(errs, errors.New("retries must not be negative"))
	}

	switch kind {
	case entity.StepNavigate:
		if sd.URL == "" {
			errs = append(errs, errors.New("url is required"))
		}
		ws, err := entity.ParseLoadState(sd.WaitUntil)
		if err != nil {
			errs = append(errs, err)
		}
		step.WaitUntil = ws
	case entity.StepFill, entity.StepClick:
		if err := validateRef(sd.Path, sd.Index); err != nil {
			errs = append(errs, err)
		}
	case entity.StepWait:
		if sd.Delay <= 0 {
			errs = append(errs, errors.New("delay must be positive"))
		}
	case entity.StepScroll:
		if sd.Scroll == 0 {
			errs = append(errs, errors.New("scroll must be non-zero"))
		}
	case entity.StepAssert:
		if len(sd.Expect) == 0 {
			errs = append(errs, errors.New("expect is required"))
		}
		for i, ed := range sd.Expect {
			exp, err := ed.expectation()
			if err != nil {
				errs = append(errs, fmt.Errorf("expect %d: %w", i+1, err))
				continue
			}
			step.Expectations = append(step.Expectations, exp)
		}
	}
	return step, errors.Join(errs...)
}

func (ed ExpectationDoc) expectation() (entity.Expectation, error) {
	exp := entity.Expectation{
		Text:    ed.Text,
		Target:  entity.ElementRef{Path: ed.Path, Index: ed.Index, Frame: ed.Frame},
		Timeout: time.Duration(ed.Timeout),
	}

	var errs []error
	switch {
	case ed.Text != "" && ed.Path != "":
		errs = append(errs, errors.New("text and path are mutually exclusive"))
	case ed.Text == "":
		if err := validateRef(ed.Path, ed.Index); err != nil {
			errs = append(errs, err)
		}
	}
	state, err := entity.ParseExpectedState(ed.State)
	if err != nil {
		errs = append(errs, err)
	}
	exp.State = state
	if ed.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	return exp, errors.Join(errs...)
}

func validateRef(path string, index int) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: path is required", entity.ErrInvalidLocator)
	}
	if index < 0 {
		return fmt.Errorf("%w: index must not be negative", entity.ErrInvalidLocator)
	}
	return nil
}

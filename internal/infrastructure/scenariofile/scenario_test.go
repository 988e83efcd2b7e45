package scenariofile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"e2e-harness/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `
name: listagem
base_url: http://clinic.test
hold: 1500
steps:
  - kind: navigate
    url: /login
    wait_until: commit
    timeout: 10s
  - kind: fill
    path: xpath=//input[@name='usuario']
    value: recepcao
  - kind: click
    path: button
    index: 1
    retries: 2
    optional: true
  - kind: scroll
    scroll: -0.5
  - kind: wait
    delay: 250ms
  - kind: assert
    expect:
      - text: Bem-vindo
assertions:
  - text: Pacientes
  - path: css=#vazio
    frame: relatorio
    state: hidden
    timeout: 2s
`

func TestParse(t *testing.T) {
	sc, err := Parse(strings.NewReader(listing))
	require.NoError(t, err)

	assert.Equal(t, "listagem", sc.Name)
	assert.Equal(t, "http://clinic.test", sc.BaseURL)
	assert.Equal(t, 1500*time.Millisecond, sc.Hold)
	require.Len(t, sc.Steps, 6)

	nav := sc.Steps[0]
	assert.Equal(t, entity.StepNavigate, nav.Kind)
	assert.Equal(t, "/login", nav.URL)
	assert.Equal(t, entity.LoadCommit, nav.WaitUntil)
	assert.Equal(t, 10*time.Second, nav.Timeout)

	assert.Equal(t, entity.ElementRef{Path: "xpath=//input[@name='usuario']"}, sc.Steps[1].Target)
	assert.Equal(t, "recepcao", sc.Steps[1].Value)

	click := sc.Steps[2]
	assert.Equal(t, 1, click.Target.Index)
	assert.Equal(t, 2, click.Retries)
	assert.True(t, click.Optional)

	assert.Equal(t, -0.5, sc.Steps[3].Scroll)
	assert.Equal(t, 250*time.Millisecond, sc.Steps[4].Delay)
	require.Len(t, sc.Steps[5].Expectations, 1)
	assert.Equal(t, "Bem-vindo", sc.Steps[5].Expectations[0].Text)

	require.Len(t, sc.Assertions, 2)
	assert.Equal(t, entity.StateVisible, sc.Assertions[0].State)
	assert.Equal(t, entity.Expectation{
		Target:  entity.ElementRef{Path: "css=#vazio", Frame: "relatorio"},
		State:   entity.StateHidden,
		Timeout: 2 * time.Second,
	}, sc.Assertions[1])
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("name: x\nsteps: []\nasertions:\n  - text: y\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asertions")
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty document")
}

func TestParse_ReportsEveryProblem(t *testing.T) {
	doc := `
steps:
  - kind: navigate
  - kind: hover
  - kind: click
    index: -1
    path: button
  - kind: wait
  - kind: navigate
    url: /x
    wait_until: networkidle
assertions:
  - text: a
    path: b
  - state: gone
    path: p
`
	_, err := Parse(strings.NewReader(doc))
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"name is required",
		"step 1 (navigate): url is required",
		`step 2 (hover): unknown step kind: "hover"`,
		"step 3 (click): invalid locator: index must not be negative",
		"step 4 (wait): delay must be positive",
		`unknown load state "networkidle"`,
		"assertion 1: text and path are mutually exclusive",
		`assertion 2: unknown expected state "gone"`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestParse_AssertStepNeedsExpectations(t *testing.T) {
	_, err := Parse(strings.NewReader("name: x\nsteps:\n  - kind: assert\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect is required")
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse(strings.NewReader("name: x\nsteps:\n  - kind: wait\n    delay: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid duration "soon"`)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(listing), 0644))

	sc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "listagem", sc.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestBundledScenariosAreValid(t *testing.T) {
	paths, err := filepath.Glob("../../../scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		t.Run(filepath.Base(p), func(t *testing.T) {
			sc, err := LoadFile(p)
			require.NoError(t, err)
			assert.NotEmpty(t, sc.Assertions)
		})
	}
}

package diagnostics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDOM_RemovesScriptStyleAndComments(t *testing.T) {
	raw := `
<body>
    <!-- build 42 -->
    <div id="main">Pacientes</div>
    <script>alert("hi")</script>
    <style>.x {}</style>
</body>`

	out := CleanDOM(raw, nil)

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<style")
	assert.NotContains(t, out, "build 42")
	assert.Contains(t, out, `<div id="main">Pacientes</div>`)
}

func TestCleanDOM_FiltersAttributes(t *testing.T) {
	raw := `<body><button style="color:red" onclick="go()" data-track="x" data-testid="salvar" aria-label="Salvar">Salvar</button></body>`

	out := CleanDOM(raw, nil)

	assert.NotContains(t, out, "style=")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "data-track")
	assert.Contains(t, out, `data-testid="salvar"`)
	assert.Contains(t, out, `aria-label="Salvar"`)
}

func TestCleanDOM_KeepsFrames(t *testing.T) {
	out := CleanDOM(`<body><iframe name="relatorio" src="/frames/inner"></iframe></body>`, nil)
	assert.Contains(t, out, `<iframe name="relatorio"`)
}

func TestCleanDOM_Truncates(t *testing.T) {
	cfg := DefaultCleanConfig
	cfg.MaxOutputSize = 64

	out := CleanDOM("<body>"+strings.Repeat("<p>linha</p>", 50)+"</body>", &cfg)

	assert.True(t, strings.HasSuffix(out, "<!-- truncated -->"))
	assert.LessOrEqual(t, len(out), 64+len("\n<!-- truncated -->"))
}

func TestCleanDOM_NoBody(t *testing.T) {
	out := CleanDOM(`<p>fragment</p>`, nil)
	assert.Contains(t, out, "fragment")
}

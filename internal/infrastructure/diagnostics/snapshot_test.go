package diagnostics

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"e2e-harness/internal/domain/entity"
	"e2e-harness/internal/testutil/fakebrowser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapture(t *testing.T) {
	page := fakebrowser.NewPage(&fakebrowser.Recorder{})
	page.Content = `<html><body><h1>Pacientes</h1><script>x()</script></body></html>`

	snap, err := NewCapturer(0).Capture(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, "about:blank", snap.URL)
	assert.Contains(t, snap.DOM, "<h1>Pacientes</h1>")
	assert.NotContains(t, snap.DOM, "script")
	assert.Equal(t, "jpeg", snap.Format)
	assert.Equal(t, 8, snap.Width)
	assert.Equal(t, 6, snap.Height)

	_, format, err := image.Decode(bytes.NewReader(snap.Screenshot))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestCapture_Downscales(t *testing.T) {
	page := fakebrowser.NewPage(&fakebrowser.Recorder{})

	snap, err := NewCapturer(4).Capture(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, 4, snap.Width)
	assert.Equal(t, 3, snap.Height)
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	snap := &entity.Snapshot{URL: "http://clinic.test/pacientes", DOM: "<body>x</body>", Screenshot: []byte{0xff, 0xd8}}

	paths, err := Write(dir, "novo-paciente", snap)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	dom, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(dom), "http://clinic.test/pacientes")
	assert.Contains(t, string(dom), "<body>x</body>")

	paths, err = Write(dir, "empty", nil)
	assert.NoError(t, err)
	assert.Empty(t, paths)
}

func TestCapture_PartialFailure(t *testing.T) {
	page := &brokenPage{Page: fakebrowser.NewPage(&fakebrowser.Recorder{})}

	snap, err := NewCapturer(0).Capture(context.Background(), page)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.DOM)
	assert.Empty(t, snap.Screenshot)
}

type brokenPage struct {
	*fakebrowser.Page
}

func (p *brokenPage) Screenshot(context.Context) ([]byte, error) {
	return nil, errors.New("target closed")
}

package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetters(t *testing.T) {
	t.Setenv("HARNESS_TEST_BOOL", "false")
	t.Setenv("HARNESS_TEST_BAD_BOOL", "nope")
	t.Setenv("HARNESS_TEST_INT", "1920")
	t.Setenv("HARNESS_TEST_STR", "http://localhost:8080")

	e := &EnvService{}
	assert.False(t, e.GetBool("HARNESS_TEST_BOOL", true))
	assert.True(t, e.GetBool("HARNESS_TEST_BAD_BOOL", true))
	assert.True(t, e.GetBool("HARNESS_TEST_UNSET", true))
	assert.Equal(t, 1920, e.GetInt("HARNESS_TEST_INT", 1280))
	assert.Equal(t, 720, e.GetInt("HARNESS_TEST_UNSET", 720))
	assert.Equal(t, "http://localhost:8080", e.GetWithDefault("HARNESS_TEST_STR", "x"))
	assert.Equal(t, "x", e.GetWithDefault("HARNESS_TEST_UNSET", "x"))
}

func TestGetDuration(t *testing.T) {
	e := &EnvService{}
	tests := []struct {
		val  string
		want time.Duration
	}{
		{"", 5 * time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{"30s", 30 * time.Second},
		{"3000", 3 * time.Second},
		{"soon", 5 * time.Second},
		{"-1s", 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.val, func(t *testing.T) {
			t.Setenv("HARNESS_TEST_DURATION", tt.val)
			assert.Equal(t, tt.want, e.GetDuration("HARNESS_TEST_DURATION", 5*time.Second))
		})
	}
}

func TestMustGet(t *testing.T) {
	t.Setenv("HARNESS_TEST_REQUIRED", "yes")
	e := &EnvService{}
	assert.Equal(t, "yes", e.MustGet("HARNESS_TEST_REQUIRED"))
	assert.Panics(t, func() { e.MustGet("HARNESS_TEST_NEVER_SET") })
}

func TestNewEnvServiceFromFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, ".env")
	local := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(base, []byte("HARNESS_TEST_FILE_A=base\nHARNESS_TEST_FILE_B=base\n"), 0o600))
	require.NoError(t, os.WriteFile(local, []byte("HARNESS_TEST_FILE_B=local\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("HARNESS_TEST_FILE_A")
		os.Unsetenv("HARNESS_TEST_FILE_B")
	})

	e, err := NewEnvServiceFromFiles(base, local)
	require.NoError(t, err)
	assert.Equal(t, "base", e.Get("HARNESS_TEST_FILE_A"))
	assert.Equal(t, "local", e.Get("HARNESS_TEST_FILE_B"))

	_, err = NewEnvServiceFromFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

package fixture

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestPages(t *testing.T) {
	srv := httptest.NewServer(NewHandler(Options{}))
	defer srv.Close()

	tests := []struct {
		path     string
		contains string
	}{
		{"/login", `name="senha"`},
		{"/pacientes", "Nenhum paciente encontrado"},
		{"/pacientes", "Novo Paciente"},
		{"/frames", `<iframe name="relatorio"`},
		{"/frames/inner", "Relatório mensal"},
		{"/financeiro", "<b>faturas</b> encontradas"},
		{"/scroll", "Fim do histórico"},
		{"/static/app.css", ".modal"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, srv, tt.path)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, tt.contains)
		})
	}
}

func TestRootRedirectsToLogin(t *testing.T) {
	srv := httptest.NewServer(NewHandler(Options{}))
	defer srv.Close()

	resp, _ := get(t, srv, "/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewHandler(Options{}))
	defer srv.Close()

	resp, _ := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSlow(t *testing.T) {
	srv := httptest.NewServer(NewHandler(Options{SlowDelay: time.Hour}))
	defer srv.Close()

	start := time.Now()
	_, body := get(t, srv, "/slow?delay=50")
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Contains(t, body, "Carregado")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAccessLog(t *testing.T) {
	buf := &syncBuffer{}
	srv := httptest.NewServer(NewHandler(Options{AccessLog: buf}))
	defer srv.Close()

	get(t, srv, "/pacientes")
	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "/pacientes")
	}, time.Second, 10*time.Millisecond)
}

// Package fixture serves a small clinic single-page app used as the
// application under test in integration tests and local demos.
package fixture

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

//go:embed static
var staticFiles embed.FS

const defaultSlowDelay = 2 * time.Second

type Options struct {
	// AccessLog receives one JSON line per request. Nil disables request logging.
	AccessLog io.Writer
	// SlowDelay is how long /slow stalls between its head and body.
	SlowDelay time.Duration
}

func NewHandler(opts Options) http.Handler {
	if opts.SlowDelay <= 0 {
		opts.SlowDelay = defaultSlowDelay
	}
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Heartbeat("/healthz"))
	if opts.AccessLog != nil {
		logger := httplog.NewLogger("clinic-fixture", httplog.Options{JSON: true}).Output(opts.AccessLog)
		r.Use(httplog.RequestLogger(logger))
	} else {
		r.Use(middleware.Recoverer)
	}

	page := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			http.ServeFileFS(w, req, static, name)
		}
	}

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/login", http.StatusFound)
	})
	r.Get("/login", page("login.html"))
	r.Get("/dashboard", page("dashboard.html"))
	r.Get("/pacientes", page("pacientes.html"))
	r.Get("/frames", page("frames.html"))
	r.Get("/frames/inner", page("inner.html"))
	r.Get("/financeiro", page("financeiro.html"))
	r.Get("/scroll", page("scroll.html"))
	r.Get("/slow", slow(opts.SlowDelay))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))

	return r
}

// slow sends the document head, flushes, then stalls before the body so
// that navigation commits long before DOMContentLoaded. ?delay=<ms>
// overrides the stall.
func slow(delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		d := delay
		if ms, err := strconv.Atoi(req.URL.Query().Get("delay")); err == nil && ms >= 0 {
			d = time.Duration(ms) * time.Millisecond
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<!doctype html><html><head><title>Carregando</title></head>")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		select {
		case <-req.Context().Done():
			return
		case <-time.After(d):
		}
		fmt.Fprint(w, "<body><p>Carregado</p></body></html>")
	}
}

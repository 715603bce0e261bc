// CLASSIFICATION: COMMUNITY
// Filename: server_test.go v0.3
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"kochab/devserver/api"
	"kochab/devserver/apod"
	devhttp "kochab/devserver/http"
	"kochab/internal/kochab"
	"kochab/internal/settings"
)

const custom404 = "<!DOCTYPE html><title>custom 404</title>"

func staticRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.html":          "<!DOCTYPE html><title>home</title>",
		"404.html":            custom404,
		"style.css":           "body{color:#123}",
		"docs/guide.txt":      "guide",
		"_private.html":       "private",
		".env":                "SECRET=1",
		"_drafts/post.html":   "draft",
		".git/config":         "[core]",
		"docs/_partial.html":  "partial",
		"docs/.hidden/a.html": "hidden",
	}
	for name, body := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func newServer(t *testing.T, cfg devhttp.Config) *devhttp.Server {
	t.Helper()
	if cfg.StaticDir == "" {
		cfg.StaticDir = staticRoot(t)
	}
	srv, err := devhttp.New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv
}

func newRouter(t *testing.T, logPath string) http.Handler {
	t.Helper()
	reg, err := api.DefaultRoutes(api.APODConfig{}, nil)
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	return newServer(t, devhttp.Config{LogFile: logPath, API: reg}).Router()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestBootServesRoot(t *testing.T) {
	ts := httptest.NewServer(newRouter(t, ""))
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get root: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code: %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("<title>home</title>")) {
		t.Fatalf("expected rewrite target content, got %q", body)
	}
	if resp.Header.Get(devhttp.RequestIDHeader) == "" {
		t.Fatalf("missing request id header")
	}
}

func TestRewriteServesTargetNotLiteralPath(t *testing.T) {
	root := staticRoot(t)
	os.WriteFile(filepath.Join(root, "home.html"), []byte("rewritten"), 0o644)
	srv := newServer(t, devhttp.Config{StaticDir: root, Rewrites: map[string]string{"/index.html": "home.html"}})
	rec := get(t, srv.Router(), "/index.html")
	if rec.Code != http.StatusOK || rec.Body.String() != "rewritten" {
		t.Fatalf("rewrite not applied: %d %q", rec.Code, rec.Body.String())
	}
}

func TestStaticFileServed(t *testing.T) {
	router := newRouter(t, "")
	rec := get(t, router, "/style.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/css;charset=UTF-8" {
		t.Fatalf("content type: %q", ct)
	}
	rec = get(t, router, "/docs/./../docs//guide.txt")
	if rec.Code != http.StatusOK || rec.Body.String() != "guide" {
		t.Fatalf("normalized path not served: %d %q", rec.Code, rec.Body.String())
	}
}

func TestStaticFileIdempotent(t *testing.T) {
	router := newRouter(t, "")
	first := get(t, router, "/style.css")
	second := get(t, router, "/style.css")
	if first.Body.String() != second.Body.String() || first.Code != second.Code {
		t.Fatalf("responses differ")
	}
	for _, h := range []string{"Content-Type", "Cache-Control"} {
		if first.Header().Get(h) != second.Header().Get(h) {
			t.Fatalf("header %s differs", h)
		}
	}
}

func TestReservedPathsAreNotFound(t *testing.T) {
	router := newRouter(t, "")
	for _, p := range []string{"/_private.html", "/.env", "/_drafts/post.html", "/.git/config", "/docs/_partial.html", "/docs/.hidden/a.html"} {
		rec := get(t, router, p)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", p, rec.Code)
		}
		if rec.Body.String() != custom404 {
			t.Fatalf("%s: expected custom 404 body, got %q", p, rec.Body.String())
		}
	}
}

func TestMissingFileServesCustom404(t *testing.T) {
	rec := get(t, newRouter(t, ""), "/missing.html")
	if rec.Code != http.StatusNotFound || rec.Body.String() != custom404 {
		t.Fatalf("unexpected 404: %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html;charset=UTF-8" {
		t.Fatalf("content type: %q", ct)
	}
}

func TestMissingCustom404FallsBack(t *testing.T) {
	srv := newServer(t, devhttp.Config{StaticDir: t.TempDir()})
	rec := get(t, srv.Router(), "/missing.html")
	if rec.Code != http.StatusNotFound || rec.Body.String() != "404 Not Found" {
		t.Fatalf("unexpected fallback: %d %q", rec.Code, rec.Body.String())
	}
}

func TestTraversalStaysInsideRoot(t *testing.T) {
	parent := t.TempDir()
	os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("secret"), 0o644)
	root := filepath.Join(parent, "public")
	os.MkdirAll(root, 0o755)
	srv := newServer(t, devhttp.Config{StaticDir: root})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "/../secret.txt"
	req.URL.RawPath = ""
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound || strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("traversal escaped root: %d %q", rec.Code, rec.Body.String())
	}
}

func TestHelloEndpoint(t *testing.T) {
	rec := get(t, newRouter(t, ""), "/api/hello")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code: %d", rec.Code)
	}
	var m map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["message"] != "Hello" {
		t.Fatalf("unexpected body: %v", m)
	}
}

func TestUnknownAPIWithoutCustom404(t *testing.T) {
	srv := newServer(t, devhttp.Config{API: api.NewRegistry(nil)})
	rec := get(t, srv.Router(), "/api/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status code: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type: %q", ct)
	}
	if rec.Body.String() != `{"status":404}` {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestUnknownAPIUsesCustom404(t *testing.T) {
	rec := get(t, newRouter(t, ""), "/api/nope")
	if rec.Code != http.StatusNotFound || rec.Body.String() != "404 Not found" {
		t.Fatalf("unexpected api 404: %d %q", rec.Code, rec.Body.String())
	}
}

func TestAPIPrefixWinsOverStaticFiles(t *testing.T) {
	root := staticRoot(t)
	os.MkdirAll(filepath.Join(root, "api"), 0o755)
	os.WriteFile(filepath.Join(root, "api", "hello"), []byte("static shadow"), 0o644)
	srv := newServer(t, devhttp.Config{StaticDir: root, API: api.NewRegistry(nil)})
	rec := get(t, srv.Router(), "/api/hello")
	if rec.Body.String() != `{"status":404}` {
		t.Fatalf("api path fell through to static: %q", rec.Body.String())
	}
}

func TestAPODEndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "DEMO_KEY" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"copyright":"Jane","date":"2022-10-01","title":"M42","url":"https://example.org/m42.jpg","explanation":"long"}`))
	}))
	defer upstream.Close()

	path := filepath.Join(t.TempDir(), "kochab.yaml")
	store := settings.NewStore(settings.Snapshot{APIFence: "1", NASAAPIKey: "DEMO_KEY"}, path)
	gate := kochab.NewGate(store)
	client := kochab.NewClient(gate, kochab.ClientConfig{Keys: store, Timeout: 2 * time.Second})
	reg, err := api.DefaultRoutes(api.APODConfig{Gate: gate, Fetcher: client, Endpoint: upstream.URL, Policy: apod.Strict}, nil)
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	router := newServer(t, devhttp.Config{API: reg}).Router()

	rec := get(t, router, "/api/nasa-apod")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code: %d %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `alt="M42"`) || strings.Contains(rec.Body.String(), "long") {
		t.Fatalf("unexpected fragment: %q", rec.Body.String())
	}

	// Raising the threshold in the settings file closes the gate without a restart.
	if err := os.WriteFile(path, []byte("api_fence: \"2\"\n"), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	rec = get(t, router, "/api/nasa-apod")
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "api access not allowed") {
		t.Fatalf("expected fenced response, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestAccessLogging(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "access.log")
	ts := httptest.NewServer(newRouter(t, logPath))
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/api/hello?api_key=should-not-appear")
	if err != nil {
		t.Fatalf("get hello: %v", err)
	}
	resp.Body.Close()
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !bytes.Contains(data, []byte("/api/hello")) {
		t.Fatalf("log missing entry")
	}
	if bytes.Contains(data, []byte("should-not-appear")) {
		t.Fatalf("query string leaked into access log")
	}
}

func TestRecoverMiddleware(t *testing.T) {
	srv := newServer(t, devhttp.Config{})
	srv.Router().(*chi.Mux).Get("/panic", func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/panic")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status code: %d", resp.StatusCode)
	}
}

func TestServerStart(t *testing.T) {
	srv := newServer(t, devhttp.Config{Bind: "127.0.0.1", Port: 0})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestNewRequiresStaticDir(t *testing.T) {
	if _, err := devhttp.New(devhttp.Config{}); err == nil {
		t.Fatalf("expected error without static dir")
	}
}

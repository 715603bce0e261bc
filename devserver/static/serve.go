// CLASSIFICATION: COMMUNITY
// Filename: serve.go v0.2
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

package static

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// NotFoundPage is the custom 404 page looked up under the root.
	NotFoundPage = "404.html"

	notFoundBody       = "404 Not Found"
	defaultReadTimeout = 5 * time.Second
)

// ErrOutsideRoot reports a path that resolves outside the static root.
var ErrOutsideRoot = errors.New("path escapes static root")

var mimeTypes = map[string]string{
	".html":        "text/html;charset=UTF-8",
	".css":         "text/css;charset=UTF-8",
	".txt":         "text/plain;charset=UTF-8",
	".js":          "text/javascript;charset=UTF-8",
	".json":        "application/json",
	".webmanifest": "application/manifest+json",
	".svg":         "image/svg+xml",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".ico":         "image/x-icon",
}

// MimeType maps a file name to a content type by extension only. Unknown
// extensions are served as HTML.
func MimeType(name string) string {
	if t, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return t
	}
	return mimeTypes[".html"]
}

// DefaultRewrites maps the site root to its index page.
func DefaultRewrites() map[string]string {
	return map[string]string{"/": "index.html"}
}

// Resolver serves files from Root.
type Resolver struct {
	root        string
	rewrites    map[string]string
	readTimeout time.Duration
	log         *zap.Logger
}

// New returns a resolver for root. The rewrite table is copied and not
// modified afterwards.
func New(root string, rewrites map[string]string, readTimeout time.Duration, log *zap.Logger) *Resolver {
	table := make(map[string]string, len(rewrites))
	for k, v := range rewrites {
		table[k] = v
	}
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{root: filepath.Clean(root), rewrites: table, readTimeout: readTimeout, log: log}
}

// Root returns the static root directory.
func (r *Resolver) Root() string { return r.root }

// Rewrite looks up an exact rewrite target for a normalized path.
func (r *Resolver) Rewrite(p string) (string, bool) {
	target, ok := r.rewrites[p]
	return target, ok
}

// Resolve joins name onto the root and rejects results outside it.
func (r *Resolver) Resolve(name string) (string, error) {
	full := filepath.Join(r.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(r.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

// ServeFile writes name with the given status, or the 404 page when it cannot
// be read.
func (r *Resolver) ServeFile(w http.ResponseWriter, req *http.Request, status int, name string) {
	data, err := r.read(req.Context(), name)
	if err != nil {
		r.log.Debug("static read failed", zap.String("file", name), zap.Error(err))
		r.ServeNotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", MimeType(name))
	w.WriteHeader(status)
	w.Write(data)
}

// ServeNotFound writes the custom 404 page, falling back to a plain body when
// the page itself cannot be read.
func (r *Resolver) ServeNotFound(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", MimeType(NotFoundPage))
	w.WriteHeader(http.StatusNotFound)
	data, err := r.read(req.Context(), NotFoundPage)
	if err != nil {
		r.log.Debug("custom 404 unavailable", zap.Error(err))
		w.Write([]byte(notFoundBody))
		return
	}
	w.Write(data)
}

func (r *Resolver) read(ctx context.Context, name string) ([]byte, error) {
	full, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(full)
		done <- result{data, err}
	}()
	select {
	case res := <-done:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CLASSIFICATION: COMMUNITY
// Filename: registry.go v0.1
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

// Package api maps /api/ routes to handlers registered at startup and answers
// every API request, falling back to a JSON 404 when a handler is missing or
// fails.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Prefix marks a request path as API traffic.
const Prefix = "/api/"

var (
	// ErrHandler wraps handler failures and recovered panics.
	ErrHandler = errors.New("api handler failed")
	// ErrFrozen is returned when registering after the table is frozen.
	ErrFrozen = errors.New("api registry frozen")
)

// Handler serves one API route and writes its own response. A returned error
// is logged and, when nothing was written yet, turned into the JSON 404.
type Handler interface {
	ServeAPI(w http.ResponseWriter, r *http.Request) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// ServeAPI implements Handler.
func (f HandlerFunc) ServeAPI(w http.ResponseWriter, r *http.Request) error { return f(w, r) }

// IsAPI reports whether a normalized path belongs to the API prefix.
func IsAPI(p string) bool {
	return strings.HasPrefix(p+"/", Prefix)
}

// Registry is the exact-match API route table.
type Registry struct {
	routes   map[string]Handler
	notFound Handler
	frozen   bool
	log      *zap.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{routes: make(map[string]Handler), log: log}
}

// Register adds a handler for a full route such as /api/hello.
func (r *Registry) Register(route string, h Handler) error {
	if r.frozen {
		return ErrFrozen
	}
	if h == nil {
		return fmt.Errorf("route %q: nil handler", route)
	}
	if !strings.HasPrefix(route, Prefix) {
		return fmt.Errorf("route %q must start with %s", route, Prefix)
	}
	if _, dup := r.routes[route]; dup {
		return fmt.Errorf("route %q already registered", route)
	}
	r.routes[route] = h
	return nil
}

// SetNotFound installs the custom handler for unknown API routes.
func (r *Registry) SetNotFound(h Handler) error {
	if r.frozen {
		return ErrFrozen
	}
	r.notFound = h
	return nil
}

// Freeze makes the table read-only. The server freezes it before serving.
func (r *Registry) Freeze() { r.frozen = true }

// Lookup returns the handler registered for route.
func (r *Registry) Lookup(route string) (Handler, bool) {
	h, ok := r.routes[route]
	return h, ok
}

// Routes lists registered routes in order.
func (r *Registry) Routes() []string {
	out := make([]string, 0, len(r.routes))
	for route := range r.routes {
		out = append(out, route)
	}
	sort.Strings(out)
	return out
}

// Dispatch invokes the handler for route, then the custom 404 handler, then
// the JSON 404, stopping at the first one that succeeds.
func (r *Registry) Dispatch(w http.ResponseWriter, req *http.Request, route string) {
	tw := &trackingWriter{ResponseWriter: w}
	if h, ok := r.routes[route]; ok {
		err := invoke(tw, req, h)
		if err == nil {
			return
		}
		r.log.Warn("api handler failed", zap.String("route", route), zap.Error(err))
	} else if r.notFound != nil {
		err := invoke(tw, req, r.notFound)
		if err == nil {
			return
		}
		r.log.Warn("api 404 handler failed", zap.String("route", route), zap.Error(err))
	}
	if tw.wrote {
		return
	}
	WriteNotFoundJSON(w)
}

// WriteNotFoundJSON writes the hardcoded API 404.
func WriteNotFoundJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"status":404}`))
}

func invoke(w http.ResponseWriter, req *http.Request, h Handler) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err = fmt.Errorf("%w: panic: %v", ErrHandler, rec)
		}
	}()
	if err := h.ServeAPI(w, req); err != nil {
		return fmt.Errorf("%w: %w", ErrHandler, err)
	}
	return nil
}

// trackingWriter records whether a handler started the response.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (t *trackingWriter) WriteHeader(status int) {
	t.wrote = true
	t.ResponseWriter.WriteHeader(status)
}

func (t *trackingWriter) Write(b []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(b)
}

func (t *trackingWriter) Unwrap() http.ResponseWriter { return t.ResponseWriter }

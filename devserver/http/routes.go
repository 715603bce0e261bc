// CLASSIFICATION: COMMUNITY
// Filename: routes.go v0.2
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

package http

import (
	"github.com/go-chi/chi/v5"
)

// routes mounts the dispatcher as the catch-all so paths are normalized
// before any classification happens.
func routes(s *Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLogger)
	r.Use(recoverMiddleware(s.log))

	r.Handle("/*", s.dispatcher)
	r.NotFound(s.dispatcher.ServeHTTP)
	r.MethodNotAllowed(s.dispatcher.ServeHTTP)
	return r
}

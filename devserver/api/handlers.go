// CLASSIFICATION: COMMUNITY
// Filename: handlers.go v0.3
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"kochab/devserver/apod"
	"kochab/internal/kochab"
)

// DefaultAPODEndpoint is NASA's Astronomy Picture Of the Day API.
const DefaultAPODEndpoint = "https://api.nasa.gov/planetary/apod"

// APODCacheControl lets shared caches keep a fragment for an hour.
const APODCacheControl = "s-maxage=3600"

// Gate reports whether outbound API access is currently permitted.
type Gate interface {
	Allowed() bool
}

// Fetcher retrieves a JSON object from an upstream URL.
type Fetcher interface {
	GetJSON(ctx context.Context, url string) (kochab.JSON, error)
}

// HelloResponse is the body of /api/hello.
type HelloResponse struct {
	Message string `json:"message"`
}

// Hello answers with a fixed JSON greeting.
func Hello(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	return json.NewEncoder(w).Encode(HelloResponse{Message: "Hello"})
}

// NotFound is the custom handler for unknown API routes.
func NotFound(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("404 Not found"))
	return err
}

// APODConfig wires the picture of the day handler.
type APODConfig struct {
	Gate     Gate
	Fetcher  Fetcher
	Endpoint string
	Policy   apod.Policy
	Log      *zap.Logger
}

// APOD proxies NASA's picture of the day and answers with an HTML fragment.
func APOD(cfg APODConfig) Handler {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultAPODEndpoint
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		if cfg.Fetcher == nil {
			return errors.New("apod: no upstream client")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if cfg.Gate == nil || !cfg.Gate.Allowed() {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 api access not allowed (check KOCHAB_API_FENCE env var)"))
			return nil
		}

		data, err := cfg.Fetcher.GetJSON(r.Context(), endpoint)
		if err != nil {
			log.Warn("apod upstream failed", zap.Error(err))
			status, body := http.StatusInternalServerError, "500 NASA api error"
			switch {
			case errors.Is(err, kochab.ErrAccessDenied):
				body = "500 api access not allowed (check KOCHAB_API_FENCE env var)"
			case errors.Is(err, kochab.ErrRateLimited):
				status, body = http.StatusTooManyRequests, "429 NASA api quota guard"
			}
			w.WriteHeader(status)
			w.Write([]byte(body))
			return nil
		}

		w.Header().Set("Cache-Control", APODCacheControl)
		w.WriteHeader(http.StatusOK)
		_, err = w.Write([]byte(apod.Format(apod.Filter(data), cfg.Policy)))
		return err
	})
}

// DefaultRoutes builds the registry served by kochab-dev.
func DefaultRoutes(cfg APODConfig, log *zap.Logger) (*Registry, error) {
	reg := NewRegistry(log)
	if err := reg.Register("/api/hello", HandlerFunc(Hello)); err != nil {
		return nil, err
	}
	if err := reg.Register("/api/nasa-apod", APOD(cfg)); err != nil {
		return nil, err
	}
	if err := reg.SetNotFound(HandlerFunc(NotFound)); err != nil {
		return nil, err
	}
	return reg, nil
}

// CLASSIFICATION: COMMUNITY
// Filename: settings.go v0.1
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

package settings

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds startup settings for the dev server.
type Config struct {
	Bind            string
	Port            int
	StaticDir       string
	AccessLog       string
	SettingsPath    string
	APIFence        string
	NASAAPIKey      string
	APODPolicy      string
	UpstreamTimeout time.Duration
	UpstreamRate    float64
	UpstreamBurst   int
	Dev             bool
}

// FromEnv loads configuration with defaults matching the hosted layout.
func FromEnv() Config {
	return Config{
		Bind:            getenv("KOCHAB_BIND", "0.0.0.0"),
		Port:            getenvInt("KOCHAB_PORT", 8000),
		StaticDir:       getenv("KOCHAB_STATIC_DIR", "public"),
		AccessLog:       getenv("KOCHAB_ACCESS_LOG", ""),
		SettingsPath:    getenv("KOCHAB_SETTINGS", ""),
		APIFence:        os.Getenv("KOCHAB_API_FENCE"),
		NASAAPIKey:      os.Getenv("NASA_API_KEY"),
		APODPolicy:      getenv("KOCHAB_APOD_POLICY", "strict"),
		UpstreamTimeout: getenvDuration("KOCHAB_UPSTREAM_TIMEOUT", 10*time.Second),
		UpstreamRate:    getenvFloat("KOCHAB_UPSTREAM_RATE", 1),
		UpstreamBurst:   getenvInt("KOCHAB_UPSTREAM_BURST", 5),
		Dev:             getenv("KOCHAB_DEV", "") != "",
	}
}

// Live returns the values that may change while the server runs.
func (c Config) Live() Snapshot {
	return Snapshot{APIFence: c.APIFence, NASAAPIKey: c.NASAAPIKey}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return def
}

// Snapshot is the reloadable part of the configuration.
type Snapshot struct {
	APIFence   string `yaml:"api_fence"`
	NASAAPIKey string `yaml:"nasa_api_key"`
}

// Merge overlays non-empty fields of over onto s.
func (s Snapshot) Merge(over Snapshot) Snapshot {
	if over.APIFence != "" {
		s.APIFence = over.APIFence
	}
	if over.NASAAPIKey != "" {
		s.NASAAPIKey = over.NASAAPIKey
	}
	return s
}

// LoadFile reads a YAML settings file.
func LoadFile(path string) (Snapshot, error) {
	var s Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// Store serves the current snapshot to the access gate and upstream client.
// Reads are lock free; Reload swaps the whole snapshot.
type Store struct {
	base Snapshot
	path string
	cur  atomic.Pointer[Snapshot]
}

// NewStore returns a store seeded with base. When path is set the settings
// file is layered over base on every Reload.
func NewStore(base Snapshot, path string) *Store {
	s := &Store{base: base, path: path}
	snap := base
	s.cur.Store(&snap)
	return s
}

// Path returns the settings file backing the store, if any.
func (s *Store) Path() string { return s.path }

// Load returns the current snapshot.
func (s *Store) Load() Snapshot { return *s.cur.Load() }

// Threshold returns the operator fence threshold.
func (s *Store) Threshold() string { return s.Load().APIFence }

// APIKey returns the upstream API key.
func (s *Store) APIKey() string { return s.Load().NASAAPIKey }

// Reload re-reads the settings file. A missing file falls back to the base
// snapshot; a malformed one keeps the current snapshot and reports the error.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	file, err := LoadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		snap := s.base
		s.cur.Store(&snap)
		return nil
	}
	if err != nil {
		return err
	}
	snap := s.base.Merge(file)
	s.cur.Store(&snap)
	return nil
}

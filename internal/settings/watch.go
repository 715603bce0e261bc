// CLASSIFICATION: COMMUNITY
// Filename: watch.go v0.1
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

package settings

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a Store whenever its settings file changes.
type Watcher struct {
	store   *Store
	target  string
	watcher *fsnotify.Watcher
	log     *zap.Logger
}

// NewWatcher starts watching the directory holding the store's settings file.
// The directory is watched rather than the file so editors that replace the
// file on save are still seen.
func NewWatcher(store *Store, log *zap.Logger) (*Watcher, error) {
	if store == nil || store.Path() == "" {
		return nil, fmt.Errorf("settings watcher: no settings file")
	}
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("settings watcher: %w", err)
	}
	target := filepath.Clean(store.Path())
	if err := fw.Add(filepath.Dir(target)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("settings watcher: %w", err)
	}
	return &Watcher{store: store, target: target, watcher: fw, log: log}, nil
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.store.Reload(); err != nil {
				w.log.Warn("settings reload failed", zap.String("path", w.target), zap.Error(err))
				continue
			}
			w.log.Info("settings reloaded", zap.String("path", w.target), zap.String("op", ev.Op.String()))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("settings watcher error", zap.Error(err))
		}
	}
}

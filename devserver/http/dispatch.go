// CLASSIFICATION: COMMUNITY
// Filename: dispatch.go v0.1
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"
	"kochab/devserver/api"
	"kochab/devserver/static"
)

// ErrDecode reports a request path that cannot be percent-decoded.
var ErrDecode = errors.New("malformed request path")

// Normalize decodes a raw request path and collapses ".", ".." and duplicate
// separators. The result always starts with "/".
func Normalize(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return path.Clean("/" + decoded), nil
}

// Blocked reports whether a normalized path names a dotfile, an underscore
// file, or anything inside a directory starting with "." or "_".
func Blocked(p string) bool {
	dir, base := path.Split(p)
	for _, seg := range strings.Split(dir, "/") {
		if seg != "" && reserved(seg[0]) {
			return true
		}
	}
	return base != "" && reserved(base[0])
}

func reserved(c byte) bool { return c == '.' || c == '_' }

// Dispatcher picks exactly one outcome per request: a static file, the static
// 404, an API handler or the API 404.
type Dispatcher struct {
	Static *static.Resolver
	API    *api.Registry
	Log    *zap.Logger
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	norm, err := Normalize(r.URL.EscapedPath())
	if err != nil {
		d.Log.Debug("rejecting request path", zap.Error(err))
		d.Static.ServeNotFound(w, r)
		return
	}
	switch {
	case api.IsAPI(norm):
		d.API.Dispatch(w, r, norm)
	case Blocked(norm):
		d.Static.ServeNotFound(w, r)
	default:
		if target, ok := d.Static.Rewrite(norm); ok {
			d.Static.ServeFile(w, r, http.StatusOK, target)
			return
		}
		d.Static.ServeFile(w, r, http.StatusOK, norm)
	}
}

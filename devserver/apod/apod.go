// CLASSIFICATION: COMMUNITY
// Filename: apod.go v0.1
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

// Package apod reshapes NASA Astronomy Picture Of the Day JSON into an HTML
// figure fragment.
package apod

import (
	"fmt"
	"html/template"
	"strings"
)

// Policy selects how missing required keys are handled.
type Policy int

const (
	// Strict replaces the whole fragment with ErrorFragment when any
	// required key is missing.
	Strict Policy = iota
	// Lenient substitutes a placeholder per missing key.
	Lenient
)

func (p Policy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// ParsePolicy maps "strict" or "lenient" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, fmt.Errorf("unknown apod policy %q", s)
	}
}

// ErrorFragment is emitted by the Strict policy on incomplete input.
const ErrorFragment = "\n<div class='kochabErr'>Loading NASA APOD json failed</div>"

// FilteredKeys are dropped before formatting.
var FilteredKeys = []string{"explanation", "hdurl", "media_type", "service_version"}

// RequiredKeys must be present for a complete figure.
var RequiredKeys = []string{"copyright", "date", "title", "url"}

var figure = template.Must(template.New("apod").Parse(
	"\n<figure class='kochabApod'>\n" +
		`<img src="{{.URL}}" alt="{{.Title}}">` +
		"<figcaption>{{.Title}}<br>{{.Copyright}}<br>\n" +
		"NASA Astronomy Picture of the Day {{.Date}}</figcaption>\n" +
		"\n</figure>\n"))

type figureData struct {
	Copyright string
	Date      string
	Title     string
	URL       string
}

// Filter returns a copy of data without the long or uninteresting keys.
func Filter(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, k := range FilteredKeys {
		delete(out, k)
	}
	return out
}

// Placeholder is the Lenient stand-in for a missing key.
func Placeholder(key string) string {
	return "[" + key + " not provided]"
}

// Format renders data as a figure fragment. Values are HTML escaped.
func Format(data map[string]any, policy Policy) string {
	values := make(map[string]string, len(RequiredKeys))
	for _, k := range RequiredKeys {
		v, ok := data[k]
		if !ok {
			if policy == Strict {
				return ErrorFragment
			}
			values[k] = Placeholder(k)
			continue
		}
		values[k] = text(v)
	}

	var b strings.Builder
	err := figure.Execute(&b, figureData{
		Copyright: values["copyright"],
		Date:      values["date"],
		Title:     values["title"],
		URL:       values["url"],
	})
	if err != nil {
		return ErrorFragment
	}
	return b.String()
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

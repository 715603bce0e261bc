// CLASSIFICATION: COMMUNITY
// Filename: fence.go v0.1
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

// Package kochab holds the pieces shared by API handlers that reach third
// party services: the access fence and the upstream JSON client.
package kochab

import (
	"os"
	"strconv"
	"strings"
)

// APIFence is compared against the operator supplied threshold. Increment it
// when deploying handler changes; raising the threshold past an old build's
// fence cuts that build off from upstream APIs.
const APIFence = 1

// ThresholdSource returns the raw operator threshold. It is consulted on every
// gate check so updates apply without a restart.
type ThresholdSource interface {
	Threshold() string
}

// ThresholdFunc adapts a function to ThresholdSource.
type ThresholdFunc func() string

// Threshold implements ThresholdSource.
func (f ThresholdFunc) Threshold() string { return f() }

// EnvSource reads the threshold from an environment variable on every call.
type EnvSource string

// FenceEnv names the variable holding the operator threshold.
const FenceEnv EnvSource = "KOCHAB_API_FENCE"

// Threshold implements ThresholdSource.
func (e EnvSource) Threshold() string { return os.Getenv(string(e)) }

// Gate decides whether outbound API calls are permitted.
type Gate struct {
	Fence  int
	Source ThresholdSource
}

// NewGate returns a gate carrying the compiled-in fence.
func NewGate(src ThresholdSource) *Gate {
	return &Gate{Fence: APIFence, Source: src}
}

// Allowed reports whether Fence >= threshold. A missing source, an empty
// threshold or one that is not an integer denies access.
func (g *Gate) Allowed() bool {
	if g == nil || g.Source == nil {
		return false
	}
	threshold, err := strconv.Atoi(strings.TrimSpace(g.Source.Threshold()))
	if err != nil {
		return false
	}
	return g.Fence >= threshold
}

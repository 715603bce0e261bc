// CLASSIFICATION: COMMUNITY
// Filename: signal_plan9.go v0.2
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

//go:build plan9

package main

import (
	"context"
	"os"
	"os/signal"
)

func newSignalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

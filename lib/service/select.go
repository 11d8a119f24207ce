// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"log/slog"

	"github.com/hypercopy-trading/hypercopy/lib/platform"
)

// ForPlatform returns the native Manager for a resolved platform:
// systemd on Linux, a user-level launchd agent on Darwin. logDir is
// where launchd redirects agent stdout/stderr; systemd ignores it
// (journald owns process output there).
func ForPlatform(profile platform.Profile, logDir string, logger *slog.Logger) Manager {
	switch profile.OS {
	case platform.Linux:
		return &Systemd{Logger: logger}
	case platform.Darwin:
		return &Launchd{LogDir: logDir, Logger: logger}
	default:
		return None{}
	}
}

// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"os/exec"
)

// Runner executes a host service-management tool and returns its
// combined output. The systemd and launchd managers take a Runner so
// tests can exercise them without a live init system.
type Runner interface {
	// Run executes name with args and returns combined stdout/stderr.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// Look resolves a tool name to an executable path, like
	// exec.LookPath.
	Look(file string) (string, error)
}

// ExecRunner is the production Runner: real subprocesses via os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (ExecRunner) Look(file string) (string, error) {
	return exec.LookPath(file)
}

// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

// Package service abstracts host init systems behind one capability set.
// A Definition describes the node process platform-agnostically; each
// Manager variant (systemd, launchd, none, memory) translates it into
// the host's native unit format and drives the host's own supervisor.
// All native-format knowledge lives here so the bootstrap orchestrator
// stays platform-agnostic.
package service

import (
	"context"
	"fmt"
)

// Definition is a platform-agnostic description of a long-running
// supervised process. It is translated into a systemd unit or a launchd
// property list by the corresponding Manager.
type Definition struct {
	// Name is the service name without any platform suffix
	// (e.g. "hypercopy-node").
	Name string

	// ExecPath is the absolute path of the binary to supervise.
	ExecPath string

	// Args are appended to ExecPath in exactly this order.
	Args []string

	// WorkingDir is the process working directory.
	WorkingDir string

	// RestartSec is the delay in seconds between automatic restarts.
	RestartSec int

	// LimitNOFILE and LimitNPROC bound file descriptors and processes.
	// Zero means the platform default.
	LimitNOFILE int
	LimitNPROC  int

	// Env carries environment variables, in order. Each entry is
	// "KEY=value".
	Env []string
}

// Validate checks the definition is complete enough to install.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("service definition missing name")
	}
	if d.ExecPath == "" {
		return fmt.Errorf("service definition %q missing exec path", d.Name)
	}
	return nil
}

// Status is the observed state of a managed service.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusUnknown Status = "unknown"
)

// ErrorKind classifies a service-management failure.
type ErrorKind string

const (
	// PermissionDenied: the operation needs privileges this process
	// does not hold.
	PermissionDenied ErrorKind = "permission-denied"

	// ToolUnavailable: the host's service-management tool (systemctl,
	// launchctl) is not present.
	ToolUnavailable ErrorKind = "tool-unavailable"

	// OtherError: everything else.
	OtherError ErrorKind = "other"
)

// ServiceError reports a failed service-management operation. Callers
// branch on Kind; Err carries the underlying cause for logs.
type ServiceError struct {
	Kind ErrorKind
	Op   string // "install", "enable", "start", "stop", "status"
	Name string // service name
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s: %s: %s: %v", e.Name, e.Op, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Manager is the capability set every init-system variant implements.
// Operations are sequential and short-lived; the context bounds each
// underlying tool invocation.
type Manager interface {
	// Install writes or records the native unit description. Idempotent:
	// re-installing a definition with the same name overwrites it.
	Install(ctx context.Context, def Definition) error

	// Enable registers the service for start-on-boot where the host has
	// that concept; a successful no-op elsewhere.
	Enable(ctx context.Context, name string) error

	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error

	// Status reports the observed service state. Never returns an error:
	// an unobservable service is StatusUnknown.
	Status(ctx context.Context, name string) Status
}

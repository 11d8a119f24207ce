// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Systemd manages services through systemctl and unit files under
// UnitDir. Install, Enable, Start, and Stop all require root on a
// standard host; failures surface as ServiceError so the caller can
// downgrade to manual-control artifacts instead of aborting.
type Systemd struct {
	// UnitDir is where unit files are written.
	// Default: /etc/systemd/system.
	UnitDir string

	// Runner executes systemctl. Default: ExecRunner.
	Runner Runner

	Logger *slog.Logger
}

func (s *Systemd) unitDir() string {
	if s.UnitDir != "" {
		return s.UnitDir
	}
	return "/etc/systemd/system"
}

func (s *Systemd) runner() Runner {
	if s.Runner != nil {
		return s.Runner
	}
	return ExecRunner{}
}

func (s *Systemd) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// unitName appends the .service suffix systemd expects.
func unitName(name string) string {
	return name + ".service"
}

// classify maps an underlying failure to a ServiceError kind.
func classify(op, name string, err error) *ServiceError {
	kind := OtherError
	if errors.Is(err, fs.ErrPermission) {
		kind = PermissionDenied
	}
	return &ServiceError{Kind: kind, Op: op, Name: name, Err: err}
}

// UnitText renders the definition as a systemd unit. Args keep exactly
// the order supplied in the definition.
func UnitText(def Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Unit]\n")
	fmt.Fprintf(&b, "Description=%s (managed by hypercopy-bootstrap)\n", def.Name)
	fmt.Fprintf(&b, "After=network-online.target\n")
	fmt.Fprintf(&b, "Wants=network-online.target\n")
	fmt.Fprintf(&b, "\n[Service]\n")
	fmt.Fprintf(&b, "Type=simple\n")
	fmt.Fprintf(&b, "ExecStart=%s\n", execLine(def))
	if def.WorkingDir != "" {
		fmt.Fprintf(&b, "WorkingDirectory=%s\n", def.WorkingDir)
	}
	fmt.Fprintf(&b, "Restart=always\n")
	restartSec := def.RestartSec
	if restartSec <= 0 {
		restartSec = 5
	}
	fmt.Fprintf(&b, "RestartSec=%d\n", restartSec)
	if def.LimitNOFILE > 0 {
		fmt.Fprintf(&b, "LimitNOFILE=%d\n", def.LimitNOFILE)
	}
	if def.LimitNPROC > 0 {
		fmt.Fprintf(&b, "LimitNPROC=%d\n", def.LimitNPROC)
	}
	for _, env := range def.Env {
		fmt.Fprintf(&b, "Environment=%s\n", env)
	}
	fmt.Fprintf(&b, "\n[Install]\n")
	fmt.Fprintf(&b, "WantedBy=multi-user.target\n")
	return b.String()
}

// execLine joins the exec path and args, quoting arguments that contain
// whitespace the way systemd expects.
func execLine(def Definition) string {
	parts := []string{def.ExecPath}
	for _, arg := range def.Args {
		if strings.ContainsAny(arg, " \t") {
			parts = append(parts, `"`+arg+`"`)
		} else {
			parts = append(parts, arg)
		}
	}
	return strings.Join(parts, " ")
}

// Install writes the unit file and reloads the systemd daemon.
func (s *Systemd) Install(ctx context.Context, def Definition) error {
	if err := def.Validate(); err != nil {
		return &ServiceError{Kind: OtherError, Op: "install", Name: def.Name, Err: err}
	}
	if _, err := s.runner().Look("systemctl"); err != nil {
		return &ServiceError{Kind: ToolUnavailable, Op: "install", Name: def.Name, Err: err}
	}

	path := filepath.Join(s.unitDir(), unitName(def.Name))
	if err := os.WriteFile(path, []byte(UnitText(def)), 0o644); err != nil {
		return classify("install", def.Name, err)
	}
	if out, err := s.runner().Run(ctx, "systemctl", "daemon-reload"); err != nil {
		return classify("install", def.Name, fmt.Errorf("daemon-reload: %w (%s)", err, strings.TrimSpace(string(out))))
	}
	s.logger().Info("systemd unit installed", slog.String("unit", unitName(def.Name)), slog.String("path", path))
	return nil
}

// Enable registers the unit for start on boot.
func (s *Systemd) Enable(ctx context.Context, name string) error {
	return s.systemctl(ctx, "enable", name)
}

// Start starts the unit.
func (s *Systemd) Start(ctx context.Context, name string) error {
	return s.systemctl(ctx, "start", name)
}

// Stop stops the unit.
func (s *Systemd) Stop(ctx context.Context, name string) error {
	return s.systemctl(ctx, "stop", name)
}

func (s *Systemd) systemctl(ctx context.Context, verb, name string) error {
	if _, err := s.runner().Look("systemctl"); err != nil {
		return &ServiceError{Kind: ToolUnavailable, Op: verb, Name: name, Err: err}
	}
	if out, err := s.runner().Run(ctx, "systemctl", verb, unitName(name)); err != nil {
		return classify(verb, name, fmt.Errorf("systemctl %s: %w (%s)", verb, err, strings.TrimSpace(string(out))))
	}
	s.logger().Info("systemctl "+verb, slog.String("unit", unitName(name)))
	return nil
}

// Status queries the unit's active state. systemctl is-active exits
// non-zero for inactive units, so the exit code alone does not
// distinguish "stopped" from "unobservable"; the printed state does.
func (s *Systemd) Status(ctx context.Context, name string) Status {
	if _, err := s.runner().Look("systemctl"); err != nil {
		return StatusUnknown
	}
	out, _ := s.runner().Run(ctx, "systemctl", "is-active", unitName(name))
	switch strings.TrimSpace(string(out)) {
	case "active", "activating":
		return StatusRunning
	case "inactive", "failed", "deactivating":
		return StatusStopped
	default:
		return StatusUnknown
	}
}

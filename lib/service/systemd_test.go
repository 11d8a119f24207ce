// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner simulates systemctl/launchctl. It tracks loaded state well
// enough for install-start-status sequences.
type fakeRunner struct {
	calls   [][]string
	active  map[string]bool
	lookErr error
	runErr  error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{active: make(map[string]bool)}
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.runErr != nil {
		return nil, f.runErr
	}
	if name == "systemctl" && len(args) >= 2 {
		switch args[0] {
		case "start":
			f.active[args[1]] = true
		case "stop":
			f.active[args[1]] = false
		case "is-active":
			if f.active[args[1]] {
				return []byte("active\n"), nil
			}
			return []byte("inactive\n"), fmt.Errorf("exit status 3")
		}
	}
	if name == "launchctl" && len(args) >= 1 {
		switch args[0] {
		case "load":
			f.active[args[len(args)-1]] = true
		case "unload":
			f.active[args[len(args)-1]] = false
		case "list":
			label := args[len(args)-1]
			loaded := false
			for path, on := range f.active {
				if on && strings.Contains(path, label) {
					loaded = true
				}
			}
			if !loaded {
				return nil, fmt.Errorf("exit status 113")
			}
		}
	}
	return nil, nil
}

func (f *fakeRunner) Look(file string) (string, error) {
	if f.lookErr != nil {
		return "", f.lookErr
	}
	return "/usr/bin/" + file, nil
}

func testDefinition(dir string) Definition {
	return Definition{
		Name:        "hypercopy-node",
		ExecPath:    "/home/trader/hl-visor",
		Args:        []string{"run-non-validator", "--serve-info", "--chain", "Mainnet"},
		WorkingDir:  dir,
		RestartSec:  10,
		LimitNOFILE: 1048576,
		LimitNPROC:  8192,
		Env:         []string{"HOME=/home/trader"},
	}
}

func TestUnitText(t *testing.T) {
	text := UnitText(testDefinition("/home/trader"))

	wantLines := []string{
		"Type=simple",
		"ExecStart=/home/trader/hl-visor run-non-validator --serve-info --chain Mainnet",
		"WorkingDirectory=/home/trader",
		"Restart=always",
		"RestartSec=10",
		"LimitNOFILE=1048576",
		"LimitNPROC=8192",
		"Environment=HOME=/home/trader",
		"WantedBy=multi-user.target",
	}
	for _, line := range wantLines {
		if !strings.Contains(text, line+"\n") {
			t.Errorf("unit text missing line %q:\n%s", line, text)
		}
	}
}

func TestUnitText_ArgOrderPreserved(t *testing.T) {
	def := Definition{
		Name:     "ordered",
		ExecPath: "/bin/node",
		Args:     []string{"--b", "--a", "--c"},
	}
	text := UnitText(def)
	if !strings.Contains(text, "ExecStart=/bin/node --b --a --c\n") {
		t.Errorf("args were reordered:\n%s", text)
	}
}

func TestUnitText_QuotesArgsWithSpaces(t *testing.T) {
	def := Definition{
		Name:     "quoted",
		ExecPath: "/bin/node",
		Args:     []string{"--data-dir", "/home/t/hl data"},
	}
	text := UnitText(def)
	if !strings.Contains(text, `ExecStart=/bin/node --data-dir "/home/t/hl data"`) {
		t.Errorf("arg with spaces not quoted:\n%s", text)
	}
}

func TestSystemd_InstallStartStatus(t *testing.T) {
	runner := newFakeRunner()
	s := &Systemd{UnitDir: t.TempDir(), Runner: runner}
	def := testDefinition("/home/trader")
	ctx := context.Background()

	if err := s.Install(ctx, def); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	unitPath := filepath.Join(s.UnitDir, "hypercopy-node.service")
	data, err := os.ReadFile(unitPath)
	if err != nil {
		t.Fatalf("unit file not written: %v", err)
	}
	if string(data) != UnitText(def) {
		t.Error("installed unit differs from rendered definition")
	}

	if err := s.Enable(ctx, def.Name); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	if err := s.Start(ctx, def.Name); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := s.Status(ctx, def.Name); got != StatusRunning {
		t.Errorf("Status after start = %q, want %q", got, StatusRunning)
	}
	if err := s.Stop(ctx, def.Name); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if got := s.Status(ctx, def.Name); got != StatusStopped {
		t.Errorf("Status after stop = %q, want %q", got, StatusStopped)
	}
}

func TestSystemd_InstallIsIdempotent(t *testing.T) {
	s := &Systemd{UnitDir: t.TempDir(), Runner: newFakeRunner()}
	def := testDefinition("/home/trader")
	ctx := context.Background()

	if err := s.Install(ctx, def); err != nil {
		t.Fatalf("first install: %v", err)
	}
	def.RestartSec = 30
	if err := s.Install(ctx, def); err != nil {
		t.Fatalf("re-install: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(s.UnitDir, "hypercopy-node.service"))
	if !strings.Contains(string(data), "RestartSec=30\n") {
		t.Error("re-install did not overwrite the prior definition")
	}
}

func TestSystemd_ToolUnavailable(t *testing.T) {
	runner := newFakeRunner()
	runner.lookErr = fmt.Errorf("not found")
	s := &Systemd{UnitDir: t.TempDir(), Runner: runner}

	err := s.Install(context.Background(), testDefinition("/"))
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error type = %T, want *ServiceError", err)
	}
	if svcErr.Kind != ToolUnavailable {
		t.Errorf("kind = %q, want %q", svcErr.Kind, ToolUnavailable)
	}
	if got := s.Status(context.Background(), "hypercopy-node"); got != StatusUnknown {
		t.Errorf("Status without systemctl = %q, want %q", got, StatusUnknown)
	}
}

func TestSystemd_PermissionDenied(t *testing.T) {
	s := &Systemd{UnitDir: t.TempDir(), Runner: newFakeRunner()}

	// Make the unit directory unwritable. Root bypasses mode bits, so
	// skip there rather than assert behavior the kernel won't enforce.
	if os.Geteuid() == 0 {
		t.Skip("mode bits not enforced for root")
	}
	if err := os.Chmod(s.UnitDir, 0o500); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(s.UnitDir, 0o700)

	err := s.Install(context.Background(), testDefinition("/"))
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error type = %T, want *ServiceError", err)
	}
	if svcErr.Kind != PermissionDenied {
		t.Errorf("kind = %q, want %q", svcErr.Kind, PermissionDenied)
	}
}

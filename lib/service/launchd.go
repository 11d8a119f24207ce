// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// launchdLabelPrefix namespaces agent labels in the user's launchd
// domain.
const launchdLabelPrefix = "trading.hypercopy."

// Launchd manages services as user-level launchd agents. No elevated
// privileges required: plists live under the user's LaunchAgents
// directory and stdout/stderr are redirected to fixed paths under the
// installation root's logs directory.
type Launchd struct {
	// AgentsDir is where agent plists are written.
	// Default: ~/Library/LaunchAgents.
	AgentsDir string

	// LogDir receives <name>.out.log and <name>.err.log redirections.
	LogDir string

	// Runner executes launchctl. Default: ExecRunner.
	Runner Runner

	Logger *slog.Logger
}

func (l *Launchd) agentsDir() (string, error) {
	if l.AgentsDir != "" {
		return l.AgentsDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents"), nil
}

func (l *Launchd) runner() Runner {
	if l.Runner != nil {
		return l.Runner
	}
	return ExecRunner{}
}

func (l *Launchd) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Label returns the launchd label for a service name.
func Label(name string) string {
	return launchdLabelPrefix + name
}

func plistPath(agentsDir, name string) string {
	return filepath.Join(agentsDir, Label(name)+".plist")
}

// PlistText renders the definition as a launchd property list. RunAtLoad
// and KeepAlive make launchd both start the agent at login and restart
// it when it exits, matching systemd's Restart=always.
func PlistText(def Definition, logDir string) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<!DOCTYPE plist PUBLIC \"-//Apple//DTD PLIST 1.0//EN\" \"http://www.apple.com/DTDs/PropertyList-1.0.dtd\">\n")
	b.WriteString("<plist version=\"1.0\">\n<dict>\n")
	fmt.Fprintf(&b, "\t<key>Label</key>\n\t<string>%s</string>\n", Label(def.Name))
	b.WriteString("\t<key>ProgramArguments</key>\n\t<array>\n")
	fmt.Fprintf(&b, "\t\t<string>%s</string>\n", def.ExecPath)
	for _, arg := range def.Args {
		fmt.Fprintf(&b, "\t\t<string>%s</string>\n", arg)
	}
	b.WriteString("\t</array>\n")
	if def.WorkingDir != "" {
		fmt.Fprintf(&b, "\t<key>WorkingDirectory</key>\n\t<string>%s</string>\n", def.WorkingDir)
	}
	b.WriteString("\t<key>RunAtLoad</key>\n\t<true/>\n")
	b.WriteString("\t<key>KeepAlive</key>\n\t<true/>\n")
	fmt.Fprintf(&b, "\t<key>StandardOutPath</key>\n\t<string>%s</string>\n", filepath.Join(logDir, def.Name+".out.log"))
	fmt.Fprintf(&b, "\t<key>StandardErrorPath</key>\n\t<string>%s</string>\n", filepath.Join(logDir, def.Name+".err.log"))
	if len(def.Env) > 0 {
		b.WriteString("\t<key>EnvironmentVariables</key>\n\t<dict>\n")
		for _, env := range def.Env {
			key, value, _ := strings.Cut(env, "=")
			fmt.Fprintf(&b, "\t\t<key>%s</key>\n\t\t<string>%s</string>\n", key, value)
		}
		b.WriteString("\t</dict>\n")
	}
	b.WriteString("</dict>\n</plist>\n")
	return b.String()
}

// Install writes the agent plist. Launchd picks the file up on load;
// re-installing the same name overwrites the previous definition.
func (l *Launchd) Install(ctx context.Context, def Definition) error {
	if err := def.Validate(); err != nil {
		return &ServiceError{Kind: OtherError, Op: "install", Name: def.Name, Err: err}
	}
	dir, err := l.agentsDir()
	if err != nil {
		return &ServiceError{Kind: OtherError, Op: "install", Name: def.Name, Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return classify("install", def.Name, err)
	}
	path := plistPath(dir, def.Name)
	if err := os.WriteFile(path, []byte(PlistText(def, l.LogDir)), 0o644); err != nil {
		return classify("install", def.Name, err)
	}
	l.logger().Info("launchd agent installed", slog.String("label", Label(def.Name)), slog.String("path", path))
	return nil
}

// Enable is a no-op: RunAtLoad in the plist already covers start-on-login,
// which is launchd's equivalent of boot registration for user agents.
func (l *Launchd) Enable(ctx context.Context, name string) error {
	return nil
}

// Start loads the agent; -w clears any disabled flag left by a previous
// unload.
func (l *Launchd) Start(ctx context.Context, name string) error {
	return l.launchctl(ctx, "load", name)
}

// Stop unloads the agent.
func (l *Launchd) Stop(ctx context.Context, name string) error {
	return l.launchctl(ctx, "unload", name)
}

func (l *Launchd) launchctl(ctx context.Context, verb, name string) error {
	if _, err := l.runner().Look("launchctl"); err != nil {
		return &ServiceError{Kind: ToolUnavailable, Op: verb, Name: name, Err: err}
	}
	dir, err := l.agentsDir()
	if err != nil {
		return &ServiceError{Kind: OtherError, Op: verb, Name: name, Err: err}
	}
	if out, err := l.runner().Run(ctx, "launchctl", verb, "-w", plistPath(dir, name)); err != nil {
		return classify(verb, name, fmt.Errorf("launchctl %s: %w (%s)", verb, err, strings.TrimSpace(string(out))))
	}
	l.logger().Info("launchctl "+verb, slog.String("label", Label(name)))
	return nil
}

// Status asks launchctl whether the agent is loaded. `launchctl list
// <label>` exits zero only for loaded jobs.
func (l *Launchd) Status(ctx context.Context, name string) Status {
	if _, err := l.runner().Look("launchctl"); err != nil {
		return StatusUnknown
	}
	if _, err := l.runner().Run(ctx, "launchctl", "list", Label(name)); err != nil {
		return StatusStopped
	}
	return StatusRunning
}

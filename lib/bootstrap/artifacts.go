// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hypercopy-trading/hypercopy/lib/config"
	"github.com/hypercopy-trading/hypercopy/lib/hostinfo"
	"github.com/hypercopy-trading/hypercopy/lib/platform"
	"github.com/hypercopy-trading/hypercopy/lib/provision"
	"github.com/hypercopy-trading/hypercopy/lib/service"
)

// Artifacts lists the files one bootstrap run materializes under the
// install root. The set is identical in shape across both final modes
// so downstream tooling never special-cases which mode was chosen.
type Artifacts struct {
	VisorConfig  string `json:"visor_config"`
	StartScript  string `json:"start_script"`
	StopScript   string `json:"stop_script"`
	StatusScript string `json:"status_script"`
	LogsDir      string `json:"logs_dir"`
	Manifest     string `json:"manifest"`
}

// manifest is the install.json record a run leaves behind for
// downstream tooling and the next upgrade.
type manifest struct {
	RunID       string                 `json:"run_id"`
	GeneratedAt string                 `json:"generated_at"`
	Chain       string                 `json:"chain"`
	Platform    string                 `json:"platform"`
	FinalMode   provision.Mode         `json:"final_mode"`
	APIBaseURL  string                 `json:"api_base_url"`
	Host        hostinfo.Facts         `json:"host"`
	Binary      *provision.Outcome     `json:"binary,omitempty"`
	Diags       []provision.Diagnostic `json:"diagnostics,omitempty"`
}

// writeArtifacts materializes the full artifact set. Called in every
// run that gets past platform resolution, regardless of final mode.
func writeArtifacts(req Request, profile platform.Profile, def service.Definition, result *Result) (Artifacts, error) {
	root := req.InstallRoot
	a := Artifacts{
		VisorConfig:  filepath.Join(root, "visor.json"),
		StartScript:  filepath.Join(root, "node-start.sh"),
		StopScript:   filepath.Join(root, "node-stop.sh"),
		StatusScript: filepath.Join(root, "node-status.sh"),
		LogsDir:      filepath.Join(root, "logs"),
		Manifest:     filepath.Join(root, "install.json"),
	}

	if err := os.MkdirAll(a.LogsDir, 0o755); err != nil {
		return a, err
	}
	if err := config.WriteVisorConfig(a.VisorConfig, req.Chain); err != nil {
		return a, err
	}

	scripts := map[string]string{
		a.StartScript:  startScript(result.FinalMode, profile, def),
		a.StopScript:   stopScript(result.FinalMode, profile, def),
		a.StatusScript: statusScript(result.FinalMode, profile, def, result.Plan.APIBaseURL),
	}
	for path, content := range scripts {
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			return a, err
		}
	}

	m := manifest{
		RunID:       result.RunID,
		GeneratedAt: manifestTimestamp(),
		Chain:       string(req.Chain),
		Platform:    profile.String(),
		FinalMode:   result.FinalMode,
		APIBaseURL:  result.Plan.APIBaseURL,
		Host:        result.Host,
		Binary:      result.Outcome,
		Diags:       result.Diags,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return a, err
	}
	if err := os.WriteFile(a.Manifest, append(data, '\n'), 0o644); err != nil {
		return a, err
	}
	return a, nil
}

const scriptHeader = "#!/bin/sh\n# Generated by hypercopy-bootstrap. Regenerated on every run; do not edit.\nset -eu\n\n"

// startScript returns the start helper for the final mode. Script
// content is derived, never hand-authored: service-managed installs go
// through the init system, unmanaged full-local installs run the
// binary directly, fallback installs explain themselves.
func startScript(mode provision.Mode, profile platform.Profile, def service.Definition) string {
	if mode == provision.ModeFallbackPublicAPI {
		return scriptHeader +
			"echo 'public-api-fallback mode: no local node to start'\n" +
			"echo 'market data comes from the public API host'\n"
	}
	switch profile.OS {
	case platform.Linux:
		return scriptHeader + fmt.Sprintf("exec systemctl start %s.service\n", def.Name)
	case platform.Darwin:
		return scriptHeader + fmt.Sprintf("exec launchctl load -w \"$HOME/Library/LaunchAgents/%s.plist\"\n", service.Label(def.Name))
	}
	// No init system: run the node in the foreground.
	return scriptHeader + fmt.Sprintf("cd %q\nexec %q %s\n", def.WorkingDir, def.ExecPath, strings.Join(def.Args, " "))
}

func stopScript(mode provision.Mode, profile platform.Profile, def service.Definition) string {
	if mode == provision.ModeFallbackPublicAPI {
		return scriptHeader + "echo 'public-api-fallback mode: no local node to stop'\n"
	}
	switch profile.OS {
	case platform.Linux:
		return scriptHeader + fmt.Sprintf("exec systemctl stop %s.service\n", def.Name)
	case platform.Darwin:
		return scriptHeader + fmt.Sprintf("exec launchctl unload \"$HOME/Library/LaunchAgents/%s.plist\"\n", service.Label(def.Name))
	}
	return scriptHeader + fmt.Sprintf("exec pkill -f %q\n", def.ExecPath)
}

// statusScript probes whichever info endpoint the final mode depends
// on, so one command answers "is my data source up" in both modes.
func statusScript(mode provision.Mode, profile platform.Profile, def service.Definition, apiBaseURL string) string {
	probe := func(base, query string) string {
		return fmt.Sprintf("curl -sf -X POST %s/info -H 'Content-Type: application/json' -d '{\"type\":\"%s\"}' >/dev/null\n", base, query)
	}
	if mode == provision.ModeFallbackPublicAPI {
		return scriptHeader +
			fmt.Sprintf("echo 'mode: public-api-fallback (%s)'\n", apiBaseURL) +
			probe(apiBaseURL, "meta") +
			"echo 'public API reachable'\n"
	}
	var unit string
	switch profile.OS {
	case platform.Linux:
		unit = fmt.Sprintf("systemctl status %s.service --no-pager || true\n", def.Name)
	case platform.Darwin:
		unit = fmt.Sprintf("launchctl list %s || true\n", service.Label(def.Name))
	}
	return scriptHeader +
		"echo 'mode: full-local'\n" +
		unit +
		probe("http://localhost:3001", "exchangeStatus") +
		"echo 'local node info endpoint reachable'\n"
}

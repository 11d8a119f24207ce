// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

// Package bootstrap sequences platform resolution, binary provisioning,
// service installation, and artifact generation into one run. A run
// always terminates in exactly one of two end states: full-local with
// an installable node service, or public-API fallback with no service
// but a working status path. Partial failures downgrade the mode; they
// never leave the install root half-configured.
//
// One run owns the install root exclusively. Callers serialize runs
// against the same root (the CLI takes a flock around Run); the
// orchestrator itself assumes the precondition.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hypercopy-trading/hypercopy/lib/chain"
	"github.com/hypercopy-trading/hypercopy/lib/hostinfo"
	"github.com/hypercopy-trading/hypercopy/lib/platform"
	"github.com/hypercopy-trading/hypercopy/lib/provision"
	"github.com/hypercopy-trading/hypercopy/lib/service"
)

// ServiceName is the name the node service is installed under.
const ServiceName = "hypercopy-node"

// minNodeDiskGB is the free-space floor for running a local node. The
// node's chain data grows past this quickly; below it a full-local
// install will stall within days.
const minNodeDiskGB = 200

// Request is the input to one bootstrap run. Every ambient value (raw
// platform strings, chain, overrides) is explicit here; the
// orchestrator reads nothing from the process environment.
type Request struct {
	RawOS   string
	RawArch string
	Chain   chain.Chain

	// AllowArm64LocalNode overrides the ARM64 fallback policy. The
	// interactive confirmation that produces it lives in the CLI.
	AllowArm64LocalNode bool

	// InstallRoot is the directory that receives the binary, config
	// record, helper scripts, and logs.
	InstallRoot string

	// Verify enables detached-signature verification of the binary.
	Verify bool
}

// Result is the outcome of one bootstrap run.
type Result struct {
	// RunID identifies the run in logs and the install manifest.
	RunID string

	Profile   platform.Profile
	Plan      provision.Plan
	FinalMode provision.Mode

	// Host is the machine inventory captured at run time.
	Host hostinfo.Facts

	// Outcome is the provisioning result. Nil when the plan never
	// called for a binary.
	Outcome *provision.Outcome

	// ServiceInstalled and ServiceEnabled record how far service
	// registration got. Both false in fallback mode or when the init
	// system refused us.
	ServiceInstalled bool
	ServiceEnabled   bool

	Artifacts Artifacts

	// Diags is the ordered diagnostic trail for the whole run:
	// provisioning findings first, then service-management findings.
	Diags []provision.Diagnostic
}

// Downgraded reports whether the run planned full-local but ended in
// fallback.
func (r *Result) Downgraded() bool {
	return r.Plan.Mode == provision.ModeFullLocal && r.FinalMode == provision.ModeFallbackPublicAPI
}

// Orchestrator runs bootstraps. Zero value usable; fields override
// defaults.
type Orchestrator struct {
	// Provisioner fetches and validates the node binary.
	Provisioner *provision.Provisioner

	// ManagerFor picks the service manager for a resolved platform.
	// Injectable so tests can substitute an in-memory manager.
	// Default: service.ForPlatform.
	ManagerFor func(profile platform.Profile, logDir string) service.Manager

	Logger *slog.Logger

	// NewRunID is a test hook. Default: uuid.NewString.
	NewRunID func() string

	// HostFacts is a test hook. Default: hostinfo.Probe.
	HostFacts func(installRoot string) hostinfo.Facts
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Orchestrator) provisioner() *provision.Provisioner {
	if o.Provisioner != nil {
		return o.Provisioner
	}
	return &provision.Provisioner{Logger: o.Logger}
}

func (o *Orchestrator) managerFor(profile platform.Profile, logDir string) service.Manager {
	if o.ManagerFor != nil {
		return o.ManagerFor(profile, logDir)
	}
	return service.ForPlatform(profile, logDir, o.logger())
}

func (o *Orchestrator) hostFacts(installRoot string) hostinfo.Facts {
	if o.HostFacts != nil {
		return o.HostFacts(installRoot)
	}
	return hostinfo.Probe(installRoot)
}

func (o *Orchestrator) runID() string {
	if o.NewRunID != nil {
		return o.NewRunID()
	}
	return uuid.NewString()
}

// Run executes one bootstrap. The only terminal error is an unsupported
// platform (or an install root that cannot be created at all); every
// other failure is absorbed into the result as a mode downgrade or a
// diagnostic.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{RunID: o.runID()}
	log := o.logger().With(slog.String("run_id", result.RunID))

	profile, err := platform.Resolve(req.RawOS, req.RawArch)
	if err != nil {
		return nil, err
	}
	result.Profile = profile
	log.Info("platform resolved", slog.String("platform", profile.String()))

	if err := os.MkdirAll(req.InstallRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating install root: %w", err)
	}

	result.Host = o.hostFacts(req.InstallRoot)

	result.Plan = provision.BuildPlan(profile, req.Chain, req.AllowArm64LocalNode)
	result.FinalMode = result.Plan.Mode
	log.Info("provisioning plan built",
		slog.String("mode", string(result.Plan.Mode)), slog.String("chain", string(req.Chain)))

	// A local node fills disk fast. Warn up front rather than letting
	// the service die on a full filesystem weeks later.
	if result.Plan.Mode == provision.ModeFullLocal && result.Host.DiskFreeGB > 0 && result.Host.DiskFreeGB < minNodeDiskGB {
		result.Diags = append(result.Diags, provision.Diagnostic{
			Kind:     "disk-space-low",
			Severity: provision.SeverityWarning,
			Message: fmt.Sprintf("install root has %d GB free; a local node wants at least %d GB for chain data",
				result.Host.DiskFreeGB, minNodeDiskGB),
		})
		log.Warn("low disk space for local node",
			slog.Uint64("free_gb", result.Host.DiskFreeGB), slog.Int("want_gb", minNodeDiskGB))
	}

	if result.Plan.Mode == provision.ModeFullLocal {
		p := *o.provisioner()
		p.Verify = req.Verify
		outcome := p.Provision(ctx, result.Plan, filepath.Join(req.InstallRoot, "hl-visor"))
		result.Outcome = &outcome
		result.Diags = append(result.Diags, outcome.Diags...)

		// Mode downgrade is one-directional: once fallback, never back.
		if !outcome.Fetched || !outcome.Compatible {
			result.FinalMode = provision.ModeFallbackPublicAPI
			log.Warn("local node unavailable, downgrading to public API fallback",
				slog.Bool("fetched", outcome.Fetched), slog.Bool("compatible", outcome.Compatible))
		}
	}

	def := nodeDefinition(req, result)
	if result.FinalMode == provision.ModeFullLocal {
		o.installService(ctx, req, profile, def, result, log)
	}

	artifacts, err := writeArtifacts(req, profile, def, result)
	if err != nil {
		return nil, fmt.Errorf("writing artifacts: %w", err)
	}
	result.Artifacts = artifacts

	log.Info("bootstrap complete",
		slog.String("final_mode", string(result.FinalMode)),
		slog.Bool("service_installed", result.ServiceInstalled))
	return result, nil
}

// nodeDefinition builds the service definition for the node process.
// Built in both modes: fallback runs still derive helper script content
// from it.
func nodeDefinition(req Request, result *Result) service.Definition {
	binaryPath := filepath.Join(req.InstallRoot, "hl-visor")
	home, _ := os.UserHomeDir()
	return service.Definition{
		Name:        ServiceName,
		ExecPath:    binaryPath,
		Args:        []string{"run-non-validator", "--serve-info"},
		WorkingDir:  req.InstallRoot,
		RestartSec:  10,
		LimitNOFILE: 1048576,
		LimitNPROC:  8192,
		Env:         []string{"HOME=" + home},
	}
}

// installService drives install+enable on the host's init system.
// Service-management failures are non-fatal: the run continues in
// full-local mode with manual start/stop artifacts only.
func (o *Orchestrator) installService(ctx context.Context, req Request, profile platform.Profile, def service.Definition, result *Result, log *slog.Logger) {
	mgr := o.managerFor(profile, filepath.Join(req.InstallRoot, "logs"))

	if err := mgr.Install(ctx, def); err != nil {
		result.Diags = append(result.Diags, serviceDiag("install", err))
		log.Warn("service install failed, falling back to manual control", slog.Any("error", err))
		return
	}
	result.ServiceInstalled = true

	if err := mgr.Enable(ctx, def.Name); err != nil {
		result.Diags = append(result.Diags, serviceDiag("enable", err))
		log.Warn("service enable failed, start it manually after boot", slog.Any("error", err))
		return
	}
	result.ServiceEnabled = true
}

// serviceDiag wraps a service error as a warning diagnostic. Service
// management is best-effort; only provisioning failures change mode.
func serviceDiag(op string, err error) provision.Diagnostic {
	return provision.Diagnostic{
		Kind:     provision.DiagKind("service-" + op + "-failed"),
		Severity: provision.SeverityWarning,
		Message:  fmt.Sprintf("service not auto-managed (%v); use the generated start/stop scripts", err),
	}
}

// manifestTimestamp is split out for test stability.
var manifestTimestamp = func() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

// Package provision plans and executes hl-visor binary provisioning:
// download, smoke test, and optional detached-signature verification.
// Every failure mode is reported as a structured Diagnostic in the
// Outcome; Provision never fails past its boundary. Deciding what a
// failed outcome means for the run is the orchestrator's job.
package provision

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/blake3"
)

// Outcome is the structured result of one provisioning attempt.
type Outcome struct {
	// BinaryPath is where the binary was written. Empty if the fetch
	// never produced a file.
	BinaryPath string `json:"binary_path,omitempty"`

	// Fetched is true once the binary is on disk and executable.
	Fetched bool `json:"fetched"`

	// Compatible is true when the smoke test ran the binary
	// successfully on this host.
	Compatible bool `json:"compatible"`

	// Verified is true when the detached signature checked out against
	// the distribution public key.
	Verified bool `json:"verified"`

	// Digest is the BLAKE3 hex digest of the fetched binary content.
	Digest string `json:"digest,omitempty"`

	// Version is the version string the smoke test reported, if any.
	Version string `json:"version,omitempty"`

	// Diags is the ordered list of findings, fatal and otherwise.
	Diags []Diagnostic `json:"diags,omitempty"`
}

// CommandFunc runs a command and returns its combined output. Injectable
// so tests can provision without executing real binaries.
type CommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Provisioner downloads and validates a node binary per a Plan. The zero
// value is usable; fields override defaults.
type Provisioner struct {
	// HTTPClient is used for binary, signature, and key fetches.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// FetchTimeout bounds the binary download. Default 5m.
	FetchTimeout time.Duration

	// SmokeTimeout bounds the smoke-test invocation. Default 30s.
	SmokeTimeout time.Duration

	// SmokeArgs are the arguments for the smoke-test invocation.
	// Default: --version.
	SmokeArgs []string

	// MinVersion, when set, is the known-good version floor. A reported
	// version below it (or unparsable smoke output) produces a warning
	// diagnostic, never a failure: version drift is advisory.
	MinVersion string

	// Verify enables detached-signature verification via gpg.
	Verify bool

	// GPGPath is the gpg executable. Default "gpg".
	GPGPath string

	// Logger receives progress events. Default slog.Default().
	Logger *slog.Logger

	// Command and LookPath are test hooks for subprocess execution.
	Command  CommandFunc
	LookPath func(file string) (string, error)
}

func (p *Provisioner) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Provisioner) httpClient() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

func (p *Provisioner) command() CommandFunc {
	if p.Command != nil {
		return p.Command
	}
	return runCommand
}

func (p *Provisioner) lookPath() func(string) (string, error) {
	if p.LookPath != nil {
		return p.LookPath
	}
	return exec.LookPath
}

func (p *Provisioner) fetchTimeout() time.Duration {
	if p.FetchTimeout > 0 {
		return p.FetchTimeout
	}
	return 5 * time.Minute
}

func (p *Provisioner) smokeTimeout() time.Duration {
	if p.SmokeTimeout > 0 {
		return p.SmokeTimeout
	}
	return 30 * time.Second
}

func (p *Provisioner) smokeArgs() []string {
	if len(p.SmokeArgs) > 0 {
		return p.SmokeArgs
	}
	return []string{"--version"}
}

func (p *Provisioner) gpgPath() string {
	if p.GPGPath != "" {
		return p.GPGPath
	}
	return "gpg"
}

// Provision fetches the binary named by plan to destPath, marks it
// executable, smoke-tests it, and optionally verifies its detached
// signature. The plan must be a full-local plan; fallback plans have
// nothing to provision.
func (p *Provisioner) Provision(ctx context.Context, plan Plan, destPath string) Outcome {
	var out Outcome
	log := p.logger().With(slog.String("chain", string(plan.Chain)), slog.String("dest", destPath))

	digest, err := p.fetch(ctx, plan.BinaryURL, destPath)
	if err != nil {
		out.Diags = append(out.Diags, errorDiag(DiagFetchFailed, "downloading %s: %v", plan.BinaryURL, err))
		log.Error("binary fetch failed", slog.String("url", plan.BinaryURL), slog.Any("error", err))
		return out
	}
	out.BinaryPath = destPath
	out.Fetched = true
	out.Digest = digest
	log.Info("binary fetched", slog.String("digest", digest))

	p.smokeTest(ctx, &out, log)
	if !out.Compatible {
		return out
	}

	if p.Verify {
		p.verifySignature(ctx, plan, &out, log)
	} else if plan.SignatureURL != "" {
		out.Diags = append(out.Diags, warnDiag(DiagSignatureUnverified, "signature verification disabled"))
	}
	return out
}

// fetch downloads url to destPath with mode 0755, decompressing
// transparently when the URL names a gzip archive. Returns the BLAKE3
// hex digest of the written content.
func (p *Provisioner) fetch(ctx context.Context, url, destPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.fetchTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if strings.HasSuffix(url, ".gz") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("opening gzip stream: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return "", err
	}
	hasher := blake3.New()
	if _, err := io.Copy(io.MultiWriter(f, hasher), body); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// versionPattern matches the first version-looking token in smoke-test
// output (e.g. "hl-visor 0.4.1" or "v1.2.3-rc1").
var versionPattern = regexp.MustCompile(`v?\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z.-]+)?`)

// smokeTest runs the fetched binary once under a bounded timeout. A
// non-zero exit or timeout marks the binary incompatible; the one most
// likely cause on this decision path is an architecture mismatch, and
// the diagnostic says so without guessing further.
func (p *Provisioner) smokeTest(ctx context.Context, out *Outcome, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, p.smokeTimeout())
	defer cancel()

	output, err := p.command()(ctx, out.BinaryPath, p.smokeArgs()...)
	if err != nil {
		cause := "it exited with an error"
		if ctx.Err() == context.DeadlineExceeded {
			cause = "it did not respond within the timeout"
		}
		out.Diags = append(out.Diags, errorDiag(DiagIncompatible,
			"smoke test invoked the binary and %s; the most likely cause is an architecture mismatch with this host", cause))
		log.Warn("smoke test failed", slog.Any("error", err))
		return
	}
	out.Compatible = true

	version := versionPattern.FindString(string(output))
	if version == "" {
		out.Diags = append(out.Diags, warnDiag(DiagVersionUnknown, "smoke test output carried no recognizable version"))
		return
	}
	out.Version = version
	log.Info("smoke test passed", slog.String("version", version))
	if p.MinVersion == "" {
		return
	}
	have, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		out.Diags = append(out.Diags, warnDiag(DiagVersionUnknown, "cannot parse reported version %q: %v", version, err))
		return
	}
	floor, err := semver.NewVersion(p.MinVersion)
	if err != nil {
		out.Diags = append(out.Diags, warnDiag(DiagVersionUnknown, "invalid configured version floor %q: %v", p.MinVersion, err))
		return
	}
	if have.LessThan(floor) {
		out.Diags = append(out.Diags, warnDiag(DiagVersionUnknown, "binary reports %s, below known-good floor %s", version, p.MinVersion))
	}
}

// verifySignature checks the binary against its detached signature using
// gpg in a throwaway keyring. Every failure on this path is a warning:
// public-key trust management is outside this system's control, so
// verification is defense-in-depth rather than a hard gate.
func (p *Provisioner) verifySignature(ctx context.Context, plan Plan, out *Outcome, log *slog.Logger) {
	gpg, err := p.lookPath()(p.gpgPath())
	if err != nil {
		out.Diags = append(out.Diags, warnDiag(DiagSignatureUnverified, "gpg not found on this host; skipping signature verification"))
		log.Warn("gpg unavailable, signature unverified")
		return
	}

	workDir, err := os.MkdirTemp("", "hypercopy-verify-")
	if err != nil {
		out.Diags = append(out.Diags, warnDiag(DiagSignatureUnverified, "creating verification workspace: %v", err))
		return
	}
	defer os.RemoveAll(workDir)

	keyPath := filepath.Join(workDir, "pub_key.asc")
	sigPath := filepath.Join(workDir, "hl-visor.asc")
	if err := p.fetchSmall(ctx, plan.PublicKeyURL, keyPath); err != nil {
		out.Diags = append(out.Diags, warnDiag(DiagSignatureUnverified, "fetching public key: %v", err))
		return
	}
	if err := p.fetchSmall(ctx, plan.SignatureURL, sigPath); err != nil {
		out.Diags = append(out.Diags, warnDiag(DiagSignatureUnverified, "fetching detached signature: %v", err))
		return
	}

	// Isolated keyring: never touches, and is never influenced by, the
	// user's own gpg configuration.
	if _, err := p.command()(ctx, gpg, "--homedir", workDir, "--import", keyPath); err != nil {
		out.Diags = append(out.Diags, warnDiag(DiagSignatureUnverified, "importing public key: %v", err))
		return
	}
	if _, err := p.command()(ctx, gpg, "--homedir", workDir, "--verify", sigPath, out.BinaryPath); err != nil {
		out.Diags = append(out.Diags, warnDiag(DiagSignatureUnverified, "signature did not verify: %v", err))
		log.Warn("signature verification failed", slog.Any("error", err))
		return
	}
	out.Verified = true
	log.Info("signature verified")
}

// fetchSmall downloads a small auxiliary file (key, signature) with a
// plain write, no digesting.
func (p *Provisioner) fetchSmall(ctx context.Context, url, destPath string) error {
	ctx, cancel := context.WithTimeout(ctx, p.fetchTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, data, 0o644)
}

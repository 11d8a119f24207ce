// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

// Hypercopy-bootstrap prepares a machine to run the trading bot. It
// resolves the host platform, decides between a full local Hyperliquid
// node and the public-API fallback, downloads and validates the node
// binary, registers it with the host init system, and writes the
// install manifest plus helper scripts under the install root.
//
// The command is idempotent: rerunning it against the same install
// root replaces the binary, service definition, and artifacts in
// place. Concurrent runs against one root are rejected via a lock
// file.
//
// Exit codes: 0 on success (including a clean public-API fallback),
// 1 on runtime failure, 2 on an unsupported platform.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/hypercopy-trading/hypercopy/lib/bootstrap"
	"github.com/hypercopy-trading/hypercopy/lib/chain"
	"github.com/hypercopy-trading/hypercopy/lib/platform"
	"github.com/hypercopy-trading/hypercopy/lib/process"
	"github.com/hypercopy-trading/hypercopy/lib/provision"
	"github.com/hypercopy-trading/hypercopy/lib/version"
)

func main() {
	if err := run(); err != nil {
		var unsupported *platform.UnsupportedPlatformError
		if errors.As(err, &unsupported) {
			process.Fatal(err, process.ExitUnsupported)
		}
		process.Fatal(err, process.ExitError)
	}
}

func defaultInstallRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/var/lib/hypercopy"
	}
	return filepath.Join(home, ".hypercopy")
}

func run() error {
	var (
		installRoot string
		allowArm64  bool
		assumeYes   bool
		noVerify    bool
		showVersion bool
	)

	flags := pflag.NewFlagSet("hypercopy-bootstrap", pflag.ContinueOnError)
	flags.StringVar(&installRoot, "install-root", defaultInstallRoot(), "directory for the node binary, config, scripts, and logs")
	flags.BoolVar(&allowArm64, "allow-arm64-node", false, "run a local node on ARM64 despite the lack of official binaries")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "answer yes to interactive prompts")
	flags.BoolVar(&noVerify, "no-verify", false, "skip PGP signature verification of the node binary")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: hypercopy-bootstrap [flags] [Mainnet|Testnet]\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("hypercopy-bootstrap %s\n", version.Info())
		return nil
	}

	c := chain.Mainnet
	if args := flags.Args(); len(args) > 0 {
		if len(args) > 1 {
			return fmt.Errorf("expected at most one chain argument, got %d", len(args))
		}
		parsed, err := chain.Parse(args[0])
		if err != nil {
			return err
		}
		c = parsed
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ARM64 hosts can opt into a local node interactively when the
	// flag was not given. Non-interactive runs keep the safe default.
	if runtime.GOARCH == "arm64" && !allowArm64 {
		allowArm64 = confirmArm64(assumeYes)
	}

	release, err := bootstrap.AcquireLock(installRoot)
	if err != nil {
		return err
	}
	defer release()

	o := &bootstrap.Orchestrator{
		Provisioner: &provision.Provisioner{Logger: logger},
		Logger:      logger,
	}
	result, err := o.Run(ctx, bootstrap.Request{
		RawOS:               runtime.GOOS,
		RawArch:             runtime.GOARCH,
		Chain:               c,
		AllowArm64LocalNode: allowArm64,
		InstallRoot:         installRoot,
		Verify:              !noVerify,
	})
	if err != nil {
		return err
	}

	printSummary(result)
	return nil
}

// confirmArm64 asks the operator whether to attempt a local node on
// ARM64. Only prompts on a real terminal; piped input answers no.
func confirmArm64(assumeYes bool) bool {
	if assumeYes {
		return true
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Fprint(os.Stderr, "This is an ARM64 host; official node binaries target x86_64.\nAttempt a local node anyway? [y/N] ")
	var answer string
	fmt.Fscanln(os.Stdin, &answer)
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// printSummary writes the human-facing epilogue to stdout. Everything
// else went to the structured log on stderr.
func printSummary(result *bootstrap.Result) {
	fmt.Printf("bootstrap complete: run %s\n", result.RunID)
	fmt.Printf("  platform:   %s\n", result.Profile)
	fmt.Printf("  mode:       %s", result.FinalMode)
	if result.Downgraded() {
		fmt.Printf(" (downgraded from %s)", result.Plan.Mode)
	}
	fmt.Println()
	if result.Outcome != nil && result.Outcome.Fetched {
		fmt.Printf("  binary:     %s (%s)\n", result.Outcome.BinaryPath, result.Outcome.Version)
	}
	switch {
	case result.ServiceEnabled:
		fmt.Printf("  service:    %s installed and enabled\n", bootstrap.ServiceName)
	case result.ServiceInstalled:
		fmt.Printf("  service:    %s installed (enable it manually)\n", bootstrap.ServiceName)
	default:
		fmt.Printf("  service:    none; use %s\n", result.Artifacts.StartScript)
	}
	fmt.Printf("  manifest:   %s\n", result.Artifacts.Manifest)
	for _, d := range result.Diags {
		fmt.Printf("  %s\n", d)
	}
}

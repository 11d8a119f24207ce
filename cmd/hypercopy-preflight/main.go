// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

// Hypercopy-preflight gates bot startup on its runtime dependencies.
// It validates the bot configuration, pings the Redis cache, and
// probes whichever market-data source the configuration selects (the
// local node's info endpoint, the public API, or both). The bot's
// supervisor runs it as an ExecStartPre step so a half-broken
// environment fails loudly before any order is placed.
//
// Exit codes: 0 when the environment is ready or merely degraded
// (optional dependencies down), 1 when a required dependency failed.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hypercopy-trading/hypercopy/lib/config"
	"github.com/hypercopy-trading/hypercopy/lib/gate"
	"github.com/hypercopy-trading/hypercopy/lib/process"
	"github.com/hypercopy-trading/hypercopy/lib/version"
)

func main() {
	ready, err := run()
	if err != nil {
		process.Fatal(err, process.ExitError)
	}
	if !ready {
		os.Exit(process.ExitError)
	}
}

func run() (ready bool, err error) {
	var (
		configPath  string
		timeout     time.Duration
		retries     int
		delay       time.Duration
		jsonOutput  bool
		showVersion bool
	)

	flags := pflag.NewFlagSet("hypercopy-preflight", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "c", os.Getenv("HYPERCOPY_CONFIG"), "bot configuration file (default $HYPERCOPY_CONFIG)")
	flags.DurationVar(&timeout, "timeout", 5*time.Second, "per-attempt probe timeout")
	flags.IntVar(&retries, "retries", 3, "attempts per check before it fails")
	flags.DurationVar(&delay, "delay", time.Second, "pause between attempts")
	flags.BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}

	if showVersion {
		fmt.Printf("hypercopy-preflight %s\n", version.Info())
		return true, nil
	}
	if configPath == "" {
		return false, fmt.Errorf("--config or HYPERCOPY_CONFIG is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g := &gate.Gate{
		AttemptTimeout: timeout,
		MaxRetries:     retries,
		RetryDelay:     delay,
		Logger:         logger,
	}
	report := g.Run(ctx, buildChecks(configPath))

	if jsonOutput {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return false, err
		}
		fmt.Println(string(data))
	} else {
		printReport(report)
	}
	return report.Overall != gate.Failed, nil
}

// buildChecks derives the check list from the configuration. A config
// that fails to load still produces a one-check list so the report
// names the reason instead of the command erroring out.
func buildChecks(configPath string) []gate.Check {
	checks := []gate.Check{gate.ConfigCheck(configPath)}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		// ConfigCheck reports the same failure with full context.
		return checks
	}

	checks = append(checks, gate.CacheCheck(cfg.RedisURL))

	// With fallback permitted the public API is the guaranteed data
	// source and the local node is best-effort. Without it the local
	// node carries the run.
	if cfg.FallbackToPublicAPI {
		checks = append(checks,
			gate.LocalNodeCheck(cfg.Node.InfoURL, false),
			gate.PublicAPICheck(cfg.Chain, true),
		)
	} else {
		checks = append(checks, gate.LocalNodeCheck(cfg.Node.InfoURL, true))
	}
	return checks
}

func printReport(report gate.Report) {
	for _, check := range report.Checks {
		marker := "ok"
		switch check.Status {
		case gate.CheckFailed:
			marker = "FAIL"
		case gate.CheckSkipped:
			marker = "skip"
		}
		line := fmt.Sprintf("%-4s %s", marker, check.Name)
		if check.Attempts > 1 {
			line += fmt.Sprintf(" (%d attempts)", check.Attempts)
		}
		if check.Error != "" {
			line += ": " + check.Error
		}
		fmt.Println(line)
	}
	fmt.Printf("overall: %s\n", report.Overall)
}

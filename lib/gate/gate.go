// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

// Package gate runs the bot's startup dependency checklist. Checks run
// strictly in order, one at a time, each with bounded retries and a
// per-attempt timeout: failure diagnostics stay attributable to one
// dependency, which matters more here than the latency a parallel pass
// would save. A failed required check fails the gate and skips the
// rest; a failed optional check degrades it.
package gate

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

// Check is one startup dependency.
type Check struct {
	// Name identifies the dependency in the report ("config", "cache",
	// "node").
	Name string

	// Required marks checks the bot cannot run without. Exhausting
	// retries on a required check fails the whole gate.
	Required bool

	// Probe tests the dependency once. It must respect the context
	// deadline; the gate enforces one per attempt.
	Probe func(ctx context.Context) error
}

// Overall is the gate verdict.
type Overall string

const (
	// Ready: every check passed.
	Ready Overall = "ready"

	// Degraded: every required check passed but at least one optional
	// check did not. The bot continues with reduced capability.
	Degraded Overall = "degraded"

	// Failed: a required check exhausted its retries. The bot must not
	// start.
	Failed Overall = "failed"
)

// CheckStatus is the outcome of one check.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckSkipped CheckStatus = "skipped"
)

// CheckResult is the recorded outcome of one check.
type CheckResult struct {
	Name     string      `json:"name"`
	Required bool        `json:"required"`
	Status   CheckStatus `json:"status"`
	Attempts int         `json:"attempts"`
	Error    string      `json:"error,omitempty"`
}

// Report is the readiness verdict for one startup attempt. It is
// consumed immediately by the caller and never persisted.
type Report struct {
	Overall Overall       `json:"overall"`
	Checks  []CheckResult `json:"checks"`
}

// Result returns the recorded outcome for a check name, if present.
func (r *Report) Result(name string) (CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}

// Gate runs dependency checks. The zero value is usable; fields
// override defaults.
type Gate struct {
	// AttemptTimeout bounds each probe attempt. Default 5s.
	AttemptTimeout time.Duration

	// MaxRetries is the number of attempts per check. Default 3.
	MaxRetries int

	// RetryDelay is the fixed pause between attempts. Default 1s.
	RetryDelay time.Duration

	// Clock schedules retry delays. Injectable for deterministic
	// tests. Default: the wall clock.
	Clock clock.Clock

	Logger *slog.Logger
}

func (g *Gate) attemptTimeout() time.Duration {
	if g.AttemptTimeout > 0 {
		return g.AttemptTimeout
	}
	return 5 * time.Second
}

func (g *Gate) maxRetries() int {
	if g.MaxRetries > 0 {
		return g.MaxRetries
	}
	return 3
}

func (g *Gate) retryDelay() time.Duration {
	if g.RetryDelay > 0 {
		return g.RetryDelay
	}
	return time.Second
}

func (g *Gate) clock() clock.Clock {
	if g.Clock != nil {
		return g.Clock
	}
	return clock.New()
}

func (g *Gate) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// Run executes the checks in the order supplied and returns the
// readiness report. A required check that exhausts its retries
// short-circuits: remaining checks are recorded as skipped, never
// attempted.
func (g *Gate) Run(ctx context.Context, checks []Check) Report {
	report := Report{Overall: Ready}
	log := g.logger()

	for i, check := range checks {
		result := g.runCheck(ctx, check)
		report.Checks = append(report.Checks, result)

		if result.Status != CheckFailed {
			continue
		}
		if check.Required {
			report.Overall = Failed
			log.Error("required dependency unavailable, aborting startup",
				slog.String("check", check.Name), slog.String("error", result.Error))
			for _, rest := range checks[i+1:] {
				report.Checks = append(report.Checks, CheckResult{
					Name:     rest.Name,
					Required: rest.Required,
					Status:   CheckSkipped,
				})
			}
			return report
		}
		if report.Overall == Ready {
			report.Overall = Degraded
		}
		log.Warn("optional dependency unavailable, continuing degraded",
			slog.String("check", check.Name), slog.String("error", result.Error))
	}
	return report
}

// runCheck attempts one check up to maxRetries times with a fixed delay
// between attempts.
func (g *Gate) runCheck(ctx context.Context, check Check) CheckResult {
	result := CheckResult{Name: check.Name, Required: check.Required}
	log := g.logger().With(slog.String("check", check.Name))

	for attempt := 1; attempt <= g.maxRetries(); attempt++ {
		result.Attempts = attempt

		attemptCtx, cancel := context.WithTimeout(ctx, g.attemptTimeout())
		err := check.Probe(attemptCtx)
		cancel()

		if err == nil {
			result.Status = CheckPassed
			log.Info("dependency check passed", slog.Int("attempts", attempt))
			return result
		}
		result.Error = err.Error()
		log.Warn("dependency check attempt failed",
			slog.Int("attempt", attempt), slog.Int("max", g.maxRetries()), slog.Any("error", err))

		if attempt < g.maxRetries() {
			select {
			case <-ctx.Done():
				result.Status = CheckFailed
				result.Error = ctx.Err().Error()
				return result
			case <-g.clock().After(g.retryDelay()):
			}
		}
	}
	result.Status = CheckFailed
	return result
}

// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package gate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func passing(name string, required bool) Check {
	return Check{Name: name, Required: required, Probe: func(ctx context.Context) error { return nil }}
}

func failing(name string, required bool) Check {
	return Check{Name: name, Required: required, Probe: func(ctx context.Context) error {
		return fmt.Errorf("%s unavailable", name)
	}}
}

// immediateGate retries without delay so tests run instantly.
func immediateGate() *Gate {
	return &Gate{RetryDelay: time.Nanosecond, AttemptTimeout: time.Second}
}

func TestRun_AllPass(t *testing.T) {
	g := immediateGate()
	report := g.Run(context.Background(), []Check{
		passing("config", true),
		passing("cache", false),
		passing("node", false),
	})

	if report.Overall != Ready {
		t.Errorf("overall = %q, want %q", report.Overall, Ready)
	}
	for _, c := range report.Checks {
		if c.Status != CheckPassed {
			t.Errorf("check %s status = %q, want passed", c.Name, c.Status)
		}
	}
}

func TestRun_RequiredFailureShortCircuits(t *testing.T) {
	cacheAttempted := false
	nodeAttempted := false
	checks := []Check{
		failing("config", true),
		{Name: "cache", Probe: func(ctx context.Context) error { cacheAttempted = true; return nil }},
		{Name: "node", Probe: func(ctx context.Context) error { nodeAttempted = true; return nil }},
	}

	g := immediateGate()
	report := g.Run(context.Background(), checks)

	if report.Overall != Failed {
		t.Fatalf("overall = %q, want %q", report.Overall, Failed)
	}
	if cacheAttempted || nodeAttempted {
		t.Error("checks after a failed required check were attempted")
	}

	configResult, _ := report.Result("config")
	if configResult.Status != CheckFailed {
		t.Errorf("config status = %q, want failed", configResult.Status)
	}
	if configResult.Attempts != 3 {
		t.Errorf("config attempts = %d, want the full 3 retries", configResult.Attempts)
	}
	for _, name := range []string{"cache", "node"} {
		r, ok := report.Result(name)
		if !ok {
			t.Fatalf("report missing %s", name)
		}
		if r.Status != CheckSkipped {
			t.Errorf("%s status = %q, want skipped", name, r.Status)
		}
	}
}

func TestRun_OptionalFailureDegrades(t *testing.T) {
	g := immediateGate()
	report := g.Run(context.Background(), []Check{
		passing("config", true),
		passing("cache", false),
		failing("node", false),
	})

	if report.Overall != Degraded {
		t.Fatalf("overall = %q, want %q", report.Overall, Degraded)
	}
	for _, name := range []string{"config", "cache"} {
		r, _ := report.Result(name)
		if r.Status != CheckPassed {
			t.Errorf("%s status = %q, want passed", name, r.Status)
		}
	}
	nodeResult, _ := report.Result("node")
	if nodeResult.Status != CheckFailed {
		t.Errorf("node status = %q, want failed", nodeResult.Status)
	}
	if nodeResult.Error == "" {
		t.Error("failed check result carries no error")
	}
}

func TestRun_MultipleOptionalFailuresStayDegraded(t *testing.T) {
	g := immediateGate()
	report := g.Run(context.Background(), []Check{
		passing("config", true),
		failing("cache", false),
		failing("node", false),
	})
	if report.Overall != Degraded {
		t.Errorf("overall = %q, want %q", report.Overall, Degraded)
	}
}

func TestRun_SucceedsOnRetry(t *testing.T) {
	attempts := 0
	check := Check{Name: "flaky", Required: true, Probe: func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("not yet")
		}
		return nil
	}}

	g := immediateGate()
	report := g.Run(context.Background(), []Check{check})

	if report.Overall != Ready {
		t.Fatalf("overall = %q, want %q", report.Overall, Ready)
	}
	r, _ := report.Result("flaky")
	if r.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", r.Attempts)
	}
}

func TestRun_RetryDelayUsesClock(t *testing.T) {
	mock := clock.NewMock()
	g := &Gate{
		RetryDelay:     10 * time.Second,
		AttemptTimeout: time.Second,
		MaxRetries:     2,
		Clock:          mock,
	}

	done := make(chan Report, 1)
	go func() {
		done <- g.Run(context.Background(), []Check{failing("node", false)})
	}()

	// The gate is parked on the mock clock between attempts; advancing
	// it is the only way the second attempt can run.
	for i := 0; i < 100; i++ {
		mock.Add(time.Second)
		select {
		case report := <-done:
			r, _ := report.Result("node")
			if r.Attempts != 2 {
				t.Errorf("attempts = %d, want 2", r.Attempts)
			}
			return
		default:
			time.Sleep(time.Millisecond)
		}
	}
	t.Fatal("gate never finished against the mock clock")
}

func TestRun_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	check := Check{Name: "node", Required: false, Probe: func(ctx context.Context) error {
		attempts++
		cancel()
		return fmt.Errorf("down")
	}}

	g := &Gate{RetryDelay: time.Hour, AttemptTimeout: time.Second}
	report := g.Run(ctx, []Check{check})

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 after cancellation", attempts)
	}
	r, _ := report.Result("node")
	if r.Status != CheckFailed {
		t.Errorf("status = %q, want failed", r.Status)
	}
}

func TestConfigCheck(t *testing.T) {
	good := filepath.Join(t.TempDir(), "good.yaml")
	os.WriteFile(good, []byte("chain: Mainnet\n"), 0o644)
	if err := ConfigCheck(good).Probe(context.Background()); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("chain: Devnet\n"), 0o644)
	if err := ConfigCheck(bad).Probe(context.Background()); err == nil {
		t.Error("invalid config accepted")
	}

	check := ConfigCheck(good)
	if !check.Required {
		t.Error("config check must be required")
	}
}

func TestLocalNodeCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	check := LocalNodeCheck(server.URL, false)
	if check.Required {
		t.Error("node check should be optional here")
	}
	if err := check.Probe(context.Background()); err != nil {
		t.Errorf("probe failed against live endpoint: %v", err)
	}
}

func TestCacheCheck_InvalidURL(t *testing.T) {
	check := CacheCheck("not-a-redis-url")
	if err := check.Probe(context.Background()); err == nil {
		t.Error("invalid redis URL accepted")
	}
}

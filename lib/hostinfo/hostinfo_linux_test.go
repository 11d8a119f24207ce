// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package hostinfo

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", path, err)
	}
}

func TestReadCPUModel(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "cpuinfo")
	writeFile(t, path, `processor	: 0
vendor_id	: GenuineIntel
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
processor	: 1
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
`)
	got := readCPUModel(path)
	want := "Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz"
	if got != want {
		t.Errorf("readCPUModel = %q, want %q", got, want)
	}
}

func TestReadCPUModelMissingFile(t *testing.T) {
	if got := readCPUModel(filepath.Join(t.TempDir(), "nope")); got != "" {
		t.Errorf("readCPUModel on missing file = %q, want empty", got)
	}
}

func TestReadCPUModelNoModelLine(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "cpuinfo")
	writeFile(t, path, "processor\t: 0\nBogoMIPS\t: 48.00\n")
	if got := readCPUModel(path); got != "" {
		t.Errorf("readCPUModel without model name = %q, want empty", got)
	}
}

func TestReadMemTotalMB(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "meminfo")
	writeFile(t, path, `MemTotal:       65536000 kB
MemFree:        12345678 kB
MemAvailable:   23456789 kB
`)
	got := readMemTotalMB(path)
	if want := uint64(64000); got != want {
		t.Errorf("readMemTotalMB = %d, want %d", got, want)
	}
}

func TestReadMemTotalMBMissingFile(t *testing.T) {
	if got := readMemTotalMB(filepath.Join(t.TempDir(), "nope")); got != 0 {
		t.Errorf("readMemTotalMB on missing file = %d, want 0", got)
	}
}

func TestProbeNeverFails(t *testing.T) {
	facts := Probe(t.TempDir())
	if facts.OS == "" || facts.Arch == "" {
		t.Errorf("Probe left OS/Arch empty: %+v", facts)
	}
	if facts.LogicalCores < 1 {
		t.Errorf("LogicalCores = %d, want >= 1", facts.LogicalCores)
	}
	// A tmpdir on any real filesystem has measurable free space.
	if facts.DiskFreeGB == 0 {
		t.Logf("DiskFreeGB reported 0; acceptable only on an overfull disk")
	}
}

func TestDiskFreeGBBadPath(t *testing.T) {
	if got := diskFreeGB(filepath.Join(t.TempDir(), "missing", "deeper")); got != 0 {
		t.Errorf("diskFreeGB on missing path = %d, want 0", got)
	}
}

// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostinfo probes the machine a bootstrap run targets and
// produces static inventory data for the install manifest. A local
// Hyperliquid node is resource-hungry (it replays and serves chain
// state from disk), so the facts gathered here drive the low-resource
// warnings in the bootstrap report and give support a snapshot of the
// host without shelling into it.
package hostinfo

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// Facts is the static host inventory recorded in install.json.
type Facts struct {
	Hostname      string `json:"hostname,omitempty"`
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	CPUModel      string `json:"cpu_model,omitempty"`
	LogicalCores  int    `json:"logical_cores"`
	MemoryTotalMB uint64 `json:"memory_total_mb,omitempty"`

	// DiskFreeGB is the free space on the filesystem holding the
	// install root, where the node keeps its chain data.
	DiskFreeGB uint64 `json:"disk_free_gb"`
}

// Probe collects host facts for the given install root.
//
// Probe never returns an error. Missing or unreadable sources produce
// zero-valued fields rather than failures; a locked-down container
// with no /proc and no statfs permission is still a valid host that
// should report what it can.
func Probe(installRoot string) Facts {
	facts := Facts{
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		LogicalCores: runtime.NumCPU(),
	}
	facts.Hostname, _ = os.Hostname()
	facts.CPUModel = cpuModel()
	facts.MemoryTotalMB = memoryTotalMB()
	facts.DiskFreeGB = diskFreeGB(installRoot)
	return facts
}

// diskFreeGB returns the space available to unprivileged writes on the
// filesystem containing path, in whole gigabytes.
func diskFreeGB(path string) uint64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0
	}
	return stat.Bavail * uint64(stat.Bsize) / (1 << 30)
}

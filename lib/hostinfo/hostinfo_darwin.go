// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package hostinfo

import "golang.org/x/sys/unix"

func cpuModel() string {
	model, err := unix.Sysctl("machdep.cpu.brand_string")
	if err != nil {
		return ""
	}
	return model
}

func memoryTotalMB() uint64 {
	bytes, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0
	}
	return bytes / (1 << 20)
}

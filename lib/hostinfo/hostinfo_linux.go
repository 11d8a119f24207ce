// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package hostinfo

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

func cpuModel() string {
	return readCPUModel("/proc/cpuinfo")
}

func memoryTotalMB() uint64 {
	return readMemTotalMB("/proc/meminfo")
}

// readCPUModel extracts the first "model name" line from /proc/cpuinfo.
// ARM cpuinfo files carry no model name; those hosts report the
// processor implementer via the empty string.
func readCPUModel(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "model name") {
			if _, value, found := strings.Cut(line, ":"); found {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

// readMemTotalMB parses the MemTotal line of /proc/meminfo. The value
// is in kB per procfs convention.
func readMemTotalMB(path string) uint64 {
	file, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "MemTotal:" {
			kb, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return 0
			}
			return kb / 1024
		}
	}
	return 0
}

// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

// Package platform resolves raw host OS and architecture strings to a
// supported platform profile. Resolution is a pure table lookup: any
// spelling outside the fixed table is a terminal error, never a guess.
package platform

import (
	"fmt"
	"runtime"
)

// OS is a supported operating system, named by its GOOS value.
type OS string

const (
	Linux  OS = "linux"
	Darwin OS = "darwin"
)

// Arch is a supported CPU architecture, named by its GOARCH value.
type Arch string

const (
	AMD64 Arch = "amd64"
	ARM64 Arch = "arm64"
)

// Profile is the resolved host platform. Immutable; computed once per
// bootstrap run.
type Profile struct {
	OS   OS
	Arch Arch
}

func (p Profile) String() string {
	return string(p.OS) + "/" + string(p.Arch)
}

// UnsupportedPlatformError reports an OS/architecture combination outside
// the supported set. It carries the raw input strings for diagnostics.
type UnsupportedPlatformError struct {
	RawOS   string
	RawArch string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform: os=%q arch=%q (supported: linux/darwin on amd64/arm64)", e.RawOS, e.RawArch)
}

// osTable maps accepted OS spellings to the canonical OS value. Both the
// Go runtime spellings and the uname spellings are accepted; matching is
// case-sensitive and exact.
var osTable = map[string]OS{
	"linux":  Linux,
	"Linux":  Linux,
	"darwin": Darwin,
	"Darwin": Darwin,
}

// archTable maps accepted architecture spellings to the canonical Arch
// value. x86_64 and aarch64 are the uname spellings.
var archTable = map[string]Arch{
	"amd64":   AMD64,
	"x86_64":  AMD64,
	"arm64":   ARM64,
	"aarch64": ARM64,
}

// Resolve maps raw OS and architecture strings to a Profile. Any input
// outside the accepted tables returns *UnsupportedPlatformError.
func Resolve(rawOS, rawArch string) (Profile, error) {
	os, ok := osTable[rawOS]
	if !ok {
		return Profile{}, &UnsupportedPlatformError{RawOS: rawOS, RawArch: rawArch}
	}
	arch, ok := archTable[rawArch]
	if !ok {
		return Profile{}, &UnsupportedPlatformError{RawOS: rawOS, RawArch: rawArch}
	}
	return Profile{OS: os, Arch: arch}, nil
}

// Current resolves the platform the process is running on.
func Current() (Profile, error) {
	return Resolve(runtime.GOOS, runtime.GOARCH)
}

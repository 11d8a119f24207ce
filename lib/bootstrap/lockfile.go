// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// AcquireLock takes an exclusive, non-blocking flock on
// <root>/.bootstrap.lock and returns a release function. Two bootstrap
// runs against one install root are out of contract; the lock turns
// that mistake into an immediate error instead of a corrupted root.
func AcquireLock(installRoot string) (release func(), err error) {
	if err := os.MkdirAll(installRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating install root: %w", err)
	}
	path := filepath.Join(installRoot, ".bootstrap.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("install root %s is locked by another bootstrap run: %w", installRoot, err)
	}
	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}

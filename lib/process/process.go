// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for Hypercopy
// CLIs. Raw stderr writes are legitimate only before the structured
// logger exists or after an unrecoverable error in main(); both live
// here so everything else goes through slog.
package process

import (
	"fmt"
	"os"
)

// Exit codes shared by the Hypercopy binaries. Scripts key off these,
// so they are part of the CLI contract.
const (
	// ExitOK covers success, including a run that ends cleanly in
	// public-API fallback mode.
	ExitOK = 0

	// ExitError is any unrecoverable runtime failure.
	ExitError = 1

	// ExitUnsupported means the host platform cannot run Hypercopy at
	// all. Distinct so install automation can tell "wrong machine"
	// from "transient failure".
	ExitUnsupported = 2
)

// Fatal writes "error: err" to stderr and exits with the given code.
// Use it in main() for errors from run() where the structured logger
// may not be initialized.
func Fatal(err error, code int) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(code)
}

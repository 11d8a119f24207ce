// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package provision

import "fmt"

// DiagKind classifies a provisioning diagnostic. The orchestrator decides
// mode transitions from these kinds and the Outcome booleans, never from
// tool output text.
type DiagKind string

const (
	// DiagFetchFailed: the binary could not be downloaded. Fatal to
	// full-local mode.
	DiagFetchFailed DiagKind = "fetch-failed"

	// DiagIncompatible: the binary failed its smoke test. Fatal to
	// full-local mode.
	DiagIncompatible DiagKind = "binary-incompatible"

	// DiagSignatureUnverified: signature verification was skipped or
	// failed. Never fatal; verification is defense-in-depth.
	DiagSignatureUnverified DiagKind = "signature-unverified"

	// DiagVersionUnknown: the smoke test output carried no parseable
	// version, or the version is below the known-good floor. Never fatal.
	DiagVersionUnknown DiagKind = "version-unknown"
)

// Severity is the weight of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is one structured provisioning finding: a machine-readable
// kind plus a human-readable message.
type Diagnostic struct {
	Kind     DiagKind `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Kind, d.Message)
}

// errorDiag builds an error-severity diagnostic.
func errorDiag(kind DiagKind, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

// warnDiag builds a warning-severity diagnostic.
func warnDiag(kind DiagKind, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

// HasFatal reports whether any diagnostic in the slice is error-severity.
func HasFatal(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

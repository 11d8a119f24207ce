// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"github.com/hypercopy-trading/hypercopy/lib/chain"
	"github.com/hypercopy-trading/hypercopy/lib/platform"
)

// Mode is the operating mode a bootstrap run ends in.
type Mode string

const (
	// ModeFullLocal runs a local hl-visor node and serves market data
	// from its info endpoint.
	ModeFullLocal Mode = "full-local"

	// ModeFallbackPublicAPI serves market data from the chain's public
	// API host. No local node, no service registration.
	ModeFallbackPublicAPI Mode = "public-api-fallback"
)

// Plan is the provisioning decision for one platform/chain combination.
// Derived deterministically; it carries no filesystem or network state.
type Plan struct {
	Mode  Mode
	Chain chain.Chain

	// Binary distribution endpoints. Empty in fallback mode.
	BinaryURL    string
	SignatureURL string
	PublicKeyURL string

	// APIBaseURL is the chain's public API host, set in both modes:
	// fallback mode queries it for market data, full-local mode keeps
	// it for degraded operation if the node later dies.
	APIBaseURL string
}

// BuildPlan decides whether to attempt a full local-node install for the
// given platform and chain. ARM64 hosts plan for public-API fallback
// unless allowArm64LocalNode is set: Hyperliquid publishes x86_64
// binaries, and an ARM64 host can only run them under emulation. The
// flag is a caller-supplied decision (typically an interactive
// confirmation); BuildPlan itself never prompts.
func BuildPlan(profile platform.Profile, c chain.Chain, allowArm64LocalNode bool) Plan {
	if profile.Arch == platform.ARM64 && !allowArm64LocalNode {
		return Plan{
			Mode:       ModeFallbackPublicAPI,
			Chain:      c,
			APIBaseURL: c.APIBaseURL(),
		}
	}
	return Plan{
		Mode:         ModeFullLocal,
		Chain:        c,
		BinaryURL:    c.BinaryURL(),
		SignatureURL: c.SignatureURL(),
		PublicKeyURL: chain.PublicKeyURL(),
		APIBaseURL:   c.APIBaseURL(),
	}
}

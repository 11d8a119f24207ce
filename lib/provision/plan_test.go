// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"testing"

	"github.com/hypercopy-trading/hypercopy/lib/chain"
	"github.com/hypercopy-trading/hypercopy/lib/platform"
)

func TestBuildPlan_Arm64DefaultsToFallback(t *testing.T) {
	for _, c := range []chain.Chain{chain.Mainnet, chain.Testnet} {
		for _, os := range []platform.OS{platform.Linux, platform.Darwin} {
			profile := platform.Profile{OS: os, Arch: platform.ARM64}
			plan := BuildPlan(profile, c, false)

			if plan.Mode != ModeFallbackPublicAPI {
				t.Errorf("%s %s: mode = %q, want %q", profile, c, plan.Mode, ModeFallbackPublicAPI)
			}
			if plan.BinaryURL != "" || plan.SignatureURL != "" {
				t.Errorf("%s %s: fallback plan carries binary URLs: %q %q", profile, c, plan.BinaryURL, plan.SignatureURL)
			}
			if plan.APIBaseURL != c.APIBaseURL() {
				t.Errorf("%s %s: API base = %q, want %q", profile, c, plan.APIBaseURL, c.APIBaseURL())
			}
		}
	}
}

func TestBuildPlan_Arm64Override(t *testing.T) {
	profile := platform.Profile{OS: platform.Darwin, Arch: platform.ARM64}
	plan := BuildPlan(profile, chain.Mainnet, true)

	if plan.Mode != ModeFullLocal {
		t.Fatalf("mode = %q, want %q", plan.Mode, ModeFullLocal)
	}
	if plan.BinaryURL == "" || plan.SignatureURL == "" || plan.PublicKeyURL == "" {
		t.Errorf("full-local plan missing URLs: %+v", plan)
	}
}

func TestBuildPlan_FullLocalURLs(t *testing.T) {
	profile := platform.Profile{OS: platform.Linux, Arch: platform.AMD64}

	tests := []struct {
		chain         chain.Chain
		wantBinaryURL string
		wantAPIBase   string
	}{
		{chain.Mainnet, "https://binaries.hyperliquid.xyz/Mainnet/hl-visor", "https://api.hyperliquid.xyz"},
		{chain.Testnet, "https://binaries.hyperliquid-testnet.xyz/Testnet/hl-visor", "https://api.hyperliquid-testnet.xyz"},
	}

	for _, tt := range tests {
		plan := BuildPlan(profile, tt.chain, false)
		if plan.Mode != ModeFullLocal {
			t.Errorf("%s: mode = %q, want %q", tt.chain, plan.Mode, ModeFullLocal)
		}
		if plan.BinaryURL != tt.wantBinaryURL {
			t.Errorf("%s: binary URL = %q, want %q", tt.chain, plan.BinaryURL, tt.wantBinaryURL)
		}
		if plan.SignatureURL != tt.wantBinaryURL+".asc" {
			t.Errorf("%s: signature URL = %q, want %q", tt.chain, plan.SignatureURL, tt.wantBinaryURL+".asc")
		}
		if plan.APIBaseURL != tt.wantAPIBase {
			t.Errorf("%s: API base = %q, want %q", tt.chain, plan.APIBaseURL, tt.wantAPIBase)
		}
	}
}

// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

// Package chain defines the Hyperliquid network targets and the static
// endpoint mapping for each. Mainnet and Testnet differ only by host
// name; path shapes are identical across chains.
package chain

import "fmt"

// Chain is a Hyperliquid network target.
type Chain string

const (
	Mainnet Chain = "Mainnet"
	Testnet Chain = "Testnet"
)

// Parse validates a chain name. The empty string defaults to Mainnet.
func Parse(s string) (Chain, error) {
	switch s {
	case "":
		return Mainnet, nil
	case string(Mainnet):
		return Mainnet, nil
	case string(Testnet):
		return Testnet, nil
	}
	return "", fmt.Errorf("unknown chain %q (must be Mainnet or Testnet)", s)
}

// Valid reports whether c is a known chain.
func (c Chain) Valid() bool {
	return c == Mainnet || c == Testnet
}

// APIBaseURL returns the public API host for the chain.
func (c Chain) APIBaseURL() string {
	if c == Testnet {
		return "https://api.hyperliquid-testnet.xyz"
	}
	return "https://api.hyperliquid.xyz"
}

// binaryHost returns the binary distribution host for the chain.
func (c Chain) binaryHost() string {
	if c == Testnet {
		return "https://binaries.hyperliquid-testnet.xyz"
	}
	return "https://binaries.hyperliquid.xyz"
}

// BinaryURL returns the hl-visor binary distribution URL for the chain.
func (c Chain) BinaryURL() string {
	return c.binaryHost() + "/" + string(c) + "/hl-visor"
}

// SignatureURL returns the detached GPG signature URL for the chain's
// hl-visor binary.
func (c Chain) SignatureURL() string {
	return c.BinaryURL() + ".asc"
}

// PublicKeyURL returns the URL of the GPG public key the binaries are
// signed with. One key signs both chains' binaries.
func PublicKeyURL() string {
	return "https://binaries.hyperliquid.xyz/pub_key.asc"
}

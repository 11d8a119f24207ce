// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/hypercopy-trading/hypercopy/lib/chain"
)

// VisorConfig mirrors the visor.json file hl-visor reads from its
// working directory to pick the chain.
type VisorConfig struct {
	Chain chain.Chain `json:"chain"`
}

// WriteVisorConfig writes visor.json for the given chain.
func WriteVisorConfig(path string, c chain.Chain) error {
	data, err := json.MarshalIndent(VisorConfig{Chain: c}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadVisorConfig reads visor.json. Comments and trailing commas are
// tolerated: operators annotate this file by hand, and a stray comment
// must not take the node selection down.
func ReadVisorConfig(path string) (VisorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return VisorConfig{}, fmt.Errorf("reading visor config: %w", err)
	}
	var v VisorConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &v); err != nil {
		return VisorConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if !v.Chain.Valid() {
		return VisorConfig{}, fmt.Errorf("%s: invalid chain %q", path, v.Chain)
	}
	return v, nil
}

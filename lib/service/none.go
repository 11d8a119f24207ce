// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package service

import "context"

// None is the Manager used when the host has no supported init system
// or when the run ends in public-API fallback mode. Every mutation is a
// successful no-op so the orchestrator's control flow needs no separate
// branch to skip service management; Status is always unknown because
// nothing is observed.
type None struct{}

func (None) Install(ctx context.Context, def Definition) error { return nil }
func (None) Enable(ctx context.Context, name string) error     { return nil }
func (None) Start(ctx context.Context, name string) error      { return nil }
func (None) Stop(ctx context.Context, name string) error       { return nil }
func (None) Status(ctx context.Context, name string) Status    { return StatusUnknown }

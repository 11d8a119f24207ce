// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

package service

import "context"

// Memory is an in-process Manager for tests: it records definitions and
// lifecycle transitions without touching any init system.
type Memory struct {
	// Installed maps service name to the most recently installed
	// definition.
	Installed map[string]Definition

	// Enabled and Started record which names have been through each
	// transition.
	Enabled map[string]bool
	Started map[string]bool

	// FailWith, when set, is returned from every mutating operation.
	// Lets orchestrator tests simulate a broken init system.
	FailWith *ServiceError
}

// NewMemory returns an empty in-memory manager.
func NewMemory() *Memory {
	return &Memory{
		Installed: make(map[string]Definition),
		Enabled:   make(map[string]bool),
		Started:   make(map[string]bool),
	}
}

func (m *Memory) Install(ctx context.Context, def Definition) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	if err := def.Validate(); err != nil {
		return &ServiceError{Kind: OtherError, Op: "install", Name: def.Name, Err: err}
	}
	m.Installed[def.Name] = def
	return nil
}

func (m *Memory) Enable(ctx context.Context, name string) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Enabled[name] = true
	return nil
}

func (m *Memory) Start(ctx context.Context, name string) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Started[name] = true
	return nil
}

func (m *Memory) Stop(ctx context.Context, name string) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Started[name] = false
	return nil
}

func (m *Memory) Status(ctx context.Context, name string) Status {
	if _, ok := m.Installed[name]; !ok {
		return StatusUnknown
	}
	if m.Started[name] {
		return StatusRunning
	}
	return StatusStopped
}

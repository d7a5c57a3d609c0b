// NetSentry - AI-Assisted Network Intrusion Detection
// Copyright 2026 NetSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/netsentry/netsentry

// Package services wraps long-running components as suture services.
// Wrappers depend on small interfaces rather than concrete types so they
// stay testable with fakes.
package services

import (
	"context"
)

// ContextRunner is any component whose main loop runs until its context
// is canceled. The hub, pipeline, and feed bridge all satisfy it.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService adapts a ContextRunner to suture.Service.
type RunnerService struct {
	name   string
	runner ContextRunner
}

// NewRunnerService names and wraps a runner for supervision.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{name: name, runner: runner}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String names the service in supervision logs.
func (s *RunnerService) String() string {
	return s.name
}

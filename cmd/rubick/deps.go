// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gclm/rubick/internal/observability"
	"github.com/gclm/rubick/internal/plugin/convert"
	"github.com/gclm/rubick/internal/plugin/installer"
)

// ObservabilityServer is the subset of observability.Server the daemon uses.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
	Registry() prometheus.Registerer
}

// Deps holds injectable dependencies. Nil fields use the defaults.
type Deps struct {
	// Runner executes npm.
	// Default: installer.ExecRunner
	Runner installer.Runner

	// ObservabilityServerFactory creates the daemon's metrics server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker) ObservabilityServer
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, ready)
		}
	}
	return &out
}

// newInstaller builds the installer for cfg.
func (a *app) newInstaller(ctx context.Context) (*installer.Installer, error) {
	var opts []installer.Option
	if a.cfg.Registry != "" {
		opts = append(opts, installer.WithRegistry(a.cfg.Registry))
	}
	if a.cfg.CDNURL != "" {
		opts = append(opts, installer.WithCDN(a.cfg.CDNURL))
	}
	if a.deps.Runner != nil {
		opts = append(opts, installer.WithRunner(a.deps.Runner))
	}
	return installer.New(ctx, a.cfg.PluginsDir, opts...)
}

// newConverter builds the converter for cfg.
func (a *app) newConverter() (*convert.Converter, error) {
	var opts []convert.Option
	if a.cfg.TempDir != "" {
		opts = append(opts, convert.WithTempRoot(a.cfg.TempDir))
	}
	return convert.New(a.cfg.PluginsDir, opts...)
}

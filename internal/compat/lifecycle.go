// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package compat

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"

	"github.com/gclm/rubick/internal/hostapi"
	"github.com/gclm/rubick/internal/plugin"
	"github.com/gclm/rubick/pkg/errutil"
)

// PackageExt is the file extension of foreign packages.
const PackageExt = ".upx"

// companionManifest returns <dir>/<name without .upx>/plugin.json for a
// package at <dir>/<name>.
func companionManifest(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), PackageExt)
	return filepath.Join(filepath.Dir(path), base, plugin.ForeignManifestFile)
}

// InstallPlugin installs the foreign package at path. The manifest is read
// from the unpacked directory next to it and handed to the host as is; the
// host validates the package itself. Failures are logged and reported as
// false.
func (f *Facade) InstallPlugin(ctx context.Context, path string) bool {
	err := f.installPlugin(ctx, path)
	if err != nil {
		errutil.LogError(f.logger, "install plugin failed", err)
		return false
	}
	return true
}

func (f *Facade) installPlugin(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return oops.Code(plugin.CodeLayoutIO).With("path", path).Wrap(err)
	}

	manifestPath := companionManifest(path)
	data, err := os.ReadFile(manifestPath) //nolint:gosec // manifest sits next to the user-chosen package
	if err != nil {
		return oops.Code(plugin.CodeManifestInvalid).With("path", manifestPath).Wrap(err)
	}
	config, err := plugin.ParseManifest(data)
	if err != nil {
		return oops.With("path", manifestPath).Wrap(err)
	}

	return f.native.InstallPlugin(ctx, hostapi.PluginInstall{
		Path:   path,
		Config: config,
	})
}

// UninstallPlugin removes an installed plugin.
func (f *Facade) UninstallPlugin(ctx context.Context, name string) bool {
	if err := f.native.UninstallPlugin(ctx, name); err != nil {
		errutil.LogError(f.logger, "uninstall plugin failed", oops.With("plugin", name).Wrap(err))
		return false
	}
	return true
}

// TogglePlugin enables or disables an installed plugin.
func (f *Facade) TogglePlugin(ctx context.Context, name string, enabled bool) bool {
	if err := f.native.TogglePlugin(ctx, name, enabled); err != nil {
		errutil.LogError(f.logger, "toggle plugin failed", oops.With("plugin", name).Wrap(err))
		return false
	}
	return true
}

// GetInstalledPlugins lists installed plugins, nil when the host fails.
func (f *Facade) GetInstalledPlugins(ctx context.Context) []hostapi.PluginInfo {
	infos, err := f.native.GetInstalledPlugins(ctx)
	if err != nil {
		errutil.LogError(f.logger, "list plugins failed", err)
		return nil
	}
	return infos
}

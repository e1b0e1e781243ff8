// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package compat_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gclm/rubick/internal/compat"
	"github.com/gclm/rubick/internal/hostapi"
	"github.com/gclm/rubick/internal/hostapi/hostapitest"
	"github.com/gclm/rubick/internal/plugin/archive/archivetest"
	"github.com/gclm/rubick/internal/plugin/convert"
)

// newConvertingFacade returns a Facade whose lifecycle calls are served
// by a converter installing into root.
func newConvertingFacade(t *testing.T) (*compat.Facade, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "plugins")
	c, err := convert.New(root, convert.WithTempRoot(filepath.Join(t.TempDir(), "tmp")))
	require.NoError(t, err)

	host := hostapitest.NewHost()
	c.Register(host.Mux)
	client := hostapi.NewClient(host.Mux)
	f, err := compat.New(client, client.DB())
	require.NoError(t, err)
	return f, root
}

// writePackage writes demo.upx and its unpacked manifest into a new dir.
func writePackage(t *testing.T, withManifest bool) string {
	t.Helper()
	dir := t.TempDir()
	pkg := filepath.Join(dir, "demo"+compat.PackageExt)
	buf := archivetest.Upx(t, map[string]string{"plugin.json": archivetest.DemoManifest, "index.html": "<html></html>"})
	require.NoError(t, os.WriteFile(pkg, buf, 0o600))
	if withManifest {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "demo"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "demo", "plugin.json"), []byte(archivetest.DemoManifest), 0o600))
	}
	return pkg
}

func TestLifecycle_InstallToggleUninstall(t *testing.T) {
	ctx := context.Background()
	f, root := newConvertingFacade(t)

	require.True(t, f.InstallPlugin(ctx, writePackage(t, true)))
	assert.FileExists(t, filepath.Join(root, "node_modules", "demo", "index.html"))

	infos := f.GetInstalledPlugins(ctx)
	require.Len(t, infos, 1)
	assert.Equal(t, "demo", infos[0].Name)
	assert.True(t, infos[0].Enabled)

	require.True(t, f.TogglePlugin(ctx, "demo", false))
	infos = f.GetInstalledPlugins(ctx)
	require.Len(t, infos, 1)
	assert.False(t, infos[0].Enabled)

	require.True(t, f.UninstallPlugin(ctx, "demo"))
	assert.Empty(t, f.GetInstalledPlugins(ctx))
	assert.NoDirExists(t, filepath.Join(root, "node_modules", "demo"))
}

func TestLifecycle_InstallFailuresReportFalse(t *testing.T) {
	ctx := context.Background()
	f, root := newConvertingFacade(t)

	assert.False(t, f.InstallPlugin(ctx, filepath.Join(t.TempDir(), "missing.upx")), "package missing")
	assert.False(t, f.InstallPlugin(ctx, writePackage(t, false)), "companion manifest missing")
	assert.NoDirExists(t, filepath.Join(root, "node_modules", "demo"))
}

func TestLifecycle_InstallPassesCompanionManifestThrough(t *testing.T) {
	ctx := context.Background()
	f, host := newFacade(t)

	dir := t.TempDir()
	pkg := filepath.Join(dir, "loose"+compat.PackageExt)
	require.NoError(t, os.WriteFile(pkg, []byte("package"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "loose"), 0o750))
	descriptor := `{"name":"loose","features":[{"code":"c","cmds":["k",{"type":"files","label":"drop"}]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loose", "plugin.json"), []byte(descriptor), 0o600))

	require.True(t, f.InstallPlugin(ctx, pkg), "no version, description or explain")

	call, ok := host.LastCall(hostapi.MsgInstallPlugin)
	require.True(t, ok)
	var in hostapi.PluginInstall
	require.NoError(t, json.Unmarshal(call.Data, &in))
	assert.Equal(t, pkg, in.Path)
	require.NotNil(t, in.Config)
	assert.Equal(t, "loose", in.Config.Name)
	require.Len(t, in.Config.Features, 1)
	require.Len(t, in.Config.Features[0].Cmds, 2)
	assert.Equal(t, "drop", in.Config.Features[0].Cmds[1].Label)
	assert.True(t, in.Config.Features[0].Cmds[1].IsMatcher())
}

func TestLifecycle_HostFailureReportsFalse(t *testing.T) {
	ctx := context.Background()
	f, host := newFacade(t)
	host.Fail(hostapi.MsgTogglePlugin, errors.New("unknown plugin"))
	host.Fail(hostapi.MsgGetInstalledPlugins, errors.New("host busy"))

	assert.False(t, f.TogglePlugin(ctx, "demo", true))
	assert.Nil(t, f.GetInstalledPlugins(ctx))
	assert.True(t, f.UninstallPlugin(ctx, "demo"), "host answers with no error")
}

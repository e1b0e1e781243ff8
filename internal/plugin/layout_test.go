// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package plugin_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gclm/rubick/internal/plugin"
	"github.com/gclm/rubick/pkg/errutil"
)

// writePlugin creates node_modules/<name>/package.json with the given content.
func writePlugin(t *testing.T, l plugin.Layout, name, manifest string) string {
	t.Helper()
	dir := l.PluginDir(name)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(manifest), 0o600))
	return dir
}

func TestLayout_Paths(t *testing.T) {
	l := plugin.NewLayout("/data/plugins")

	assert.Equal(t, filepath.Join("/data/plugins", "package.json"), l.RootManifest())
	assert.Equal(t, filepath.Join("/data/plugins", "node_modules"), l.ModulesDir())
	assert.Equal(t, filepath.Join("/data/plugins", "node_modules", "demo"), l.PluginDir("demo"))
	assert.Equal(t, filepath.Join("/data/plugins", "cache"), l.CacheDir())
}

func TestLayout_EnsureSeedsRootManifest(t *testing.T) {
	l := plugin.NewLayout(filepath.Join(t.TempDir(), "nested", "plugins"))

	require.NoError(t, l.Ensure())

	data, err := os.ReadFile(l.RootManifest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"dependencies":{}}`, string(data))
}

func TestLayout_EnsureKeepsExistingManifest(t *testing.T) {
	l := plugin.NewLayout(t.TempDir())
	existing := `{"dependencies":{"demo":"^1.0.0"}}`
	require.NoError(t, os.WriteFile(l.RootManifest(), []byte(existing), 0o600))

	require.NoError(t, l.Ensure())

	data, err := os.ReadFile(l.RootManifest())
	require.NoError(t, err)
	assert.JSONEq(t, existing, string(data))
}

func TestLayout_EnsureRootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	err := plugin.NewLayout(file).Ensure()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, plugin.CodeConfigurationInvalid)
}

func TestLayout_Dependencies(t *testing.T) {
	l := plugin.NewLayout(t.TempDir())
	require.NoError(t, os.WriteFile(l.RootManifest(),
		[]byte(`{"dependencies":{"zeta":"^2.0.0","alpha":"1.0.0","@acme/tool":"~0.3.1"}}`), 0o600))

	deps, err := l.Dependencies()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"zeta": "^2.0.0", "alpha": "1.0.0", "@acme/tool": "~0.3.1"}, deps)

	names, err := l.DependencyNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"@acme/tool", "alpha", "zeta"}, names)
}

func TestLayout_DependenciesMissingManifest(t *testing.T) {
	_, err := plugin.NewLayout(t.TempDir()).Dependencies()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, plugin.CodeLayoutIO)
}

func TestLayout_DependenciesInvalidJSON(t *testing.T) {
	l := plugin.NewLayout(t.TempDir())
	require.NoError(t, os.WriteFile(l.RootManifest(), []byte(`{"dependencies":`), 0o600))

	_, err := l.Dependencies()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, plugin.CodeLayoutIO)
}

func TestWriteManifest_RoundTripsThroughReadManifest(t *testing.T) {
	l := plugin.NewLayout(t.TempDir())
	dir := l.PluginDir("demo")
	require.NoError(t, os.MkdirAll(dir, 0o750))

	m := &plugin.Manifest{
		Name:     "demo",
		Version:  "1.0.0",
		Preload:  plugin.DefaultPreload,
		Type:     plugin.TypeConverted,
		Features: []plugin.Feature{{Code: "c", Explain: "e", Cmds: []plugin.FeatureCmd{plugin.Keyword("c")}}},
	}
	require.NoError(t, plugin.WriteManifest(dir, m))

	got, err := l.ReadManifest("demo")
	require.NoError(t, err)
	assert.Equal(t, m, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestLayout_RemovePlugin(t *testing.T) {
	l := plugin.NewLayout(t.TempDir())
	dir := writePlugin(t, l, "demo", `{"name":"demo"}`)

	require.NoError(t, l.RemovePlugin("demo"))
	assert.NoDirExists(t, dir)

	require.NoError(t, l.RemovePlugin("demo"), "removing twice is not an error")
}

func TestLayout_RemovePluginRejectsEscapes(t *testing.T) {
	l := plugin.NewLayout(t.TempDir())

	for _, name := range []string{"", "../outside", "/abs"} {
		err := l.RemovePlugin(name)
		require.Error(t, err, name)
		assert.ErrorIs(t, err, plugin.ErrInvalidName)
	}
}

func TestLayout_Discover(t *testing.T) {
	l := plugin.NewLayout(t.TempDir())
	writePlugin(t, l, "zeta", `{"name":"zeta","version":"1.0.0"}`)
	writePlugin(t, l, "alpha", `{"name":"alpha","version":"1.0.0","pluginType":"ui"}`)
	writePlugin(t, l, "@acme/tool", `{"name":"@acme/tool","version":"0.1.0"}`)
	writePlugin(t, l, "broken", `{"name":`)
	require.NoError(t, os.MkdirAll(filepath.Join(l.ModulesDir(), "empty"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(l.ModulesDir(), ".bin"), 0o750))

	found, err := l.Discover(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(found))
	for _, p := range found {
		names = append(names, p.Manifest.Name)
	}
	assert.Equal(t, []string{"@acme/tool", "alpha", "zeta"}, names)
	assert.Equal(t, l.PluginDir("alpha"), found[1].Dir)
}

const mixedCmdsManifest = `{
  "name": "clip",
  "version": "1.0.0",
  "description": "clipboard colors",
  "features": [{
    "code": "hex",
    "explain": "colors",
    "cmds": ["color", {"type": "regex", "label": "hex color", "match": "/^#[0-9a-f]{6}$/i"}]
  }]
}`

func TestLayout_DiscoverKeepsMatcherCmds(t *testing.T) {
	l := plugin.NewLayout(t.TempDir())
	writePlugin(t, l, "clip", mixedCmdsManifest)

	found, err := l.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)

	cmds := found[0].Manifest.Features[0].Cmds
	require.Len(t, cmds, 2)
	assert.Equal(t, plugin.Keyword("color"), cmds[0])
	assert.False(t, cmds[0].IsMatcher())
	assert.True(t, cmds[1].IsMatcher())
	assert.Equal(t, "hex color", cmds[1].Label)
	assert.JSONEq(t, `{"type":"regex","label":"hex color","match":"/^#[0-9a-f]{6}$/i"}`, string(cmds[1].Matcher))
}

func TestWriteManifest_PreservesMatcherCmds(t *testing.T) {
	l := plugin.NewLayout(t.TempDir())
	dir := writePlugin(t, l, "clip", mixedCmdsManifest)

	m, err := l.ReadManifest("clip")
	require.NoError(t, err)
	require.NoError(t, plugin.WriteManifest(dir, m))

	data, err := os.ReadFile(filepath.Join(dir, plugin.ManifestFile))
	require.NoError(t, err)
	assert.JSONEq(t, mixedCmdsManifest, string(data))
}

func TestLayout_DiscoverWithoutModulesDir(t *testing.T) {
	found, err := plugin.NewLayout(t.TempDir()).Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestLayout_DiscoverCancelled(t *testing.T) {
	l := plugin.NewLayout(t.TempDir())
	writePlugin(t, l, "demo", `{"name":"demo"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Discover(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLayout_DiscoverType(t *testing.T) {
	l := plugin.NewLayout(t.TempDir())
	writePlugin(t, l, "native", `{"name":"native"}`)
	writePlugin(t, l, "foreign", `{"name":"foreign","type":"utools"}`)

	converted, err := l.DiscoverType(context.Background(), plugin.TypeConverted)
	require.NoError(t, err)
	require.Len(t, converted, 1)
	assert.Equal(t, "foreign", converted[0].Name)

	native, err := l.DiscoverType(context.Background(), plugin.TypeNative)
	require.NoError(t, err)
	require.Len(t, native, 1)
	assert.Equal(t, "native", native[0].Name)
}

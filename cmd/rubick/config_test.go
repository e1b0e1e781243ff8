// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gclm/rubick/internal/plugin"
	"github.com/gclm/rubick/pkg/errutil"
)

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	registerConfigFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")

	cfg, err := loadConfig(parseFlags(t), "", false)
	require.NoError(t, err)

	assert.Equal(t, "/data/rubick/plugins", cfg.PluginsDir)
	assert.Empty(t, cfg.Registry)
	assert.Equal(t, defaultLogFormat, cfg.LogFormat)
	assert.Equal(t, defaultMetricsAddr, cfg.MetricsAddr)
	assert.Equal(t, defaultUpgradeSchedule, cfg.UpgradeSchedule)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
plugins-dir: /srv/plugins
registry: https://registry.example.com/
log-format: json
upgrade-match: "rubick-*"
`)

	cfg, err := loadConfig(parseFlags(t), path, true)
	require.NoError(t, err)

	assert.Equal(t, "/srv/plugins", cfg.PluginsDir)
	assert.Equal(t, "https://registry.example.com/", cfg.Registry)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "rubick-*", cfg.UpgradeMatch)
	assert.Equal(t, defaultUpgradeSchedule, cfg.UpgradeSchedule, "unset keys keep flag defaults")
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "plugins-dir: /srv/plugins\nlog-format: json\n")

	cfg, err := loadConfig(parseFlags(t, "--plugins-dir", "/tmp/p"), path, true)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/p", cfg.PluginsDir)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_MissingDefaultFileIsSkipped(t *testing.T) {
	_, err := loadConfig(parseFlags(t, "--plugins-dir", "/p"), filepath.Join(t.TempDir(), "none.yaml"), false)
	assert.NoError(t, err)
}

func TestLoadConfig_MissingExplicitFileFails(t *testing.T) {
	_, err := loadConfig(parseFlags(t, "--plugins-dir", "/p"), filepath.Join(t.TempDir(), "none.yaml"), true)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, plugin.CodeConfigurationInvalid)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"empty plugins dir", []string{"--plugins-dir", ""}},
		{"unknown log format", []string{"--log-format", "xml"}},
		{"unknown log level", []string{"--log-level", "loud"}},
		{"registry not http", []string{"--registry", "ftp://mirror"}},
		{"cdn without host", []string{"--cdn-url", "https://"}},
		{"bad schedule", []string{"--upgrade-schedule", "every tuesday"}},
		{"bad match glob", []string{"--upgrade-match", "[rubick"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--plugins-dir", "/p"}, tt.args...)
			_, err := loadConfig(parseFlags(t, args...), "", false)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, plugin.CodeConfigurationInvalid)
		})
	}
}

func TestLoadConfig_EmptyScheduleDisablesUpgrades(t *testing.T) {
	cfg, err := loadConfig(parseFlags(t, "--plugins-dir", "/p", "--upgrade-schedule", ""), "", false)
	require.NoError(t, err)
	assert.Empty(t, cfg.UpgradeSchedule)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package main

import (
	"errors"
	"io/fs"
	"net/url"
	"os"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/gclm/rubick/internal/logging"
	"github.com/gclm/rubick/internal/plugin"
	"github.com/gclm/rubick/internal/plugin/installer"
	"github.com/gclm/rubick/internal/xdg"
)

// Config is the merged configuration: flag defaults, then the YAML file,
// then flags set on the command line.
type Config struct {
	PluginsDir      string `koanf:"plugins-dir"`
	Registry        string `koanf:"registry"`
	CDNURL          string `koanf:"cdn-url"`
	TempDir         string `koanf:"temp-dir"`
	LogFormat       string `koanf:"log-format"`
	LogLevel        string `koanf:"log-level"`
	MetricsAddr     string `koanf:"metrics-addr"`
	UpgradeSchedule string `koanf:"upgrade-schedule"`
	UpgradeMatch    string `koanf:"upgrade-match"`
}

// Default values for configuration flags.
const (
	defaultLogFormat       = logging.FormatText
	defaultLogLevel        = "info"
	defaultMetricsAddr     = "127.0.0.1:9107"
	defaultUpgradeSchedule = "@every 6h"
)

// registerConfigFlags declares every configuration key as a flag.
func registerConfigFlags(flags *pflag.FlagSet) {
	pluginsDir, err := xdg.PluginsDir()
	if err != nil {
		pluginsDir = ""
	}

	flags.String("plugins-dir", pluginsDir, "plugin install root")
	flags.String("registry", "", "npm registry URL (default: "+installer.DefaultRegistry+")")
	flags.String("cdn-url", "", "CDN base URL for plugin metadata")
	flags.String("temp-dir", "", "scratch directory for package conversion (default: OS temp dir)")
	flags.String("log-format", defaultLogFormat, "log format (json or text)")
	flags.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("metrics-addr", defaultMetricsAddr, "daemon metrics/health HTTP address (empty = disabled)")
	flags.String("upgrade-schedule", defaultUpgradeSchedule, "daemon upgrade cron schedule (empty = disabled)")
	flags.String("upgrade-match", "", "glob selecting plugins the daemon upgrades (empty = all)")
}

// loadConfig merges the config file at path with flags. A missing file is
// skipped unless explicit is set.
func loadConfig(flags *pflag.FlagSet, path string, explicit bool) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil || explicit:
			if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
				return nil, oops.Code(plugin.CodeConfigurationInvalid).With("path", path).Wrap(err)
			}
		case !errors.Is(statErr, fs.ErrNotExist):
			return nil, oops.Code(plugin.CodeConfigurationInvalid).With("path", path).Wrap(statErr)
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Code(plugin.CodeConfigurationInvalid).Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code(plugin.CodeConfigurationInvalid).Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field before any component is built.
func (c *Config) Validate() error {
	invalid := oops.Code(plugin.CodeConfigurationInvalid)

	if c.PluginsDir == "" {
		return invalid.Errorf("plugins-dir is required")
	}
	if err := logging.ValidateFormat(c.LogFormat); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for _, kv := range [][2]string{{"registry", c.Registry}, {"cdn-url", c.CDNURL}} {
		key, raw := kv[0], kv[1]
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid.With(key, raw).Errorf("%s must be an http(s) URL", key)
		}
	}
	if c.UpgradeSchedule != "" {
		if _, err := cron.ParseStandard(c.UpgradeSchedule); err != nil {
			return invalid.With("upgrade-schedule", c.UpgradeSchedule).Wrap(err)
		}
	}
	if _, err := plugin.MatchNames(c.UpgradeMatch, nil); err != nil {
		return err
	}
	return nil
}

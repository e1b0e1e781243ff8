// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gclm/rubick/internal/logging"
	"github.com/gclm/rubick/internal/xdg"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	cfg        *Config
	deps       *Deps
}

// NewRootCmd creates the root command. deps may be nil.
func NewRootCmd(deps *Deps) *cobra.Command {
	a := &app{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "rubick",
		Short: "Rubick plugin manager",
		Long: `Rubick installs, converts and upgrades launcher plugins.

Native plugins are npm packages kept in a private install root. Foreign
.upx packages are converted into the same root.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file path (default: XDG_CONFIG_HOME/rubick/config.yaml)")
	registerConfigFlags(cmd.PersistentFlags())

	cmd.AddCommand(newPluginCmd(a))
	cmd.AddCommand(newConvertCmd(a))
	cmd.AddCommand(newConvertedCmd(a))
	cmd.AddCommand(newDaemonCmd(a))

	return cmd
}

// load resolves the configuration and installs the default logger.
func (a *app) load(cmd *cobra.Command) error {
	path, explicit := a.configPath, a.configPath != ""
	if !explicit {
		if p, err := xdg.ConfigFile(); err == nil {
			path = p
		}
	}

	cfg, err := loadConfig(cmd.Flags(), path, explicit)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logging.SetDefault("rubick", version, cfg.LogFormat, level)
	return nil
}

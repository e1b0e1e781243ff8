// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gclm/rubick/internal/plugin"
	"github.com/gclm/rubick/internal/plugin/installer"
)

// newPluginCmd groups the native plugin commands.
func newPluginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage native plugins in the install root",
	}

	cmd.AddCommand(
		newPluginInstallCmd(a),
		newPluginUninstallCmd(a),
		newPluginUpdateCmd(a),
		newPluginUpgradeCmd(a),
		newPluginListCmd(a),
		newPluginInfoCmd(a),
		newPluginDevCmd(a),
		newPluginWatchCmd(a),
	)
	return cmd
}

func newPluginInstallCmd(a *app) *cobra.Command {
	var dev bool
	cmd := &cobra.Command{
		Use:   "install <name>...",
		Short: "Install plugins from the registry, or link local packages with --dev",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.newInstaller(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to create installer: %w", err)
			}
			if err := inst.Install(cmd.Context(), args, installer.InstallOptions{IsDev: dev}); err != nil {
				return fmt.Errorf("install failed: %w", err)
			}
			cmd.Printf("installed %d plugin(s)\n", len(args))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dev, "dev", false, "link local packages instead of fetching")
	return cmd
}

func newPluginUninstallCmd(a *app) *cobra.Command {
	var dev bool
	cmd := &cobra.Command{
		Use:   "uninstall <name>...",
		Short: "Uninstall plugins; names not installed are ignored",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.newInstaller(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to create installer: %w", err)
			}
			if err := inst.Uninstall(cmd.Context(), args, installer.InstallOptions{IsDev: dev}); err != nil {
				return fmt.Errorf("uninstall failed: %w", err)
			}
			cmd.Printf("uninstalled %d plugin(s)\n", len(args))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dev, "dev", false, "delete plugin directories instead of calling npm")
	return cmd
}

func newPluginUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <name>...",
		Short: "Re-install plugins at their latest version",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.newInstaller(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to create installer: %w", err)
			}
			if err := inst.Update(cmd.Context(), args...); err != nil {
				return fmt.Errorf("update failed: %w", err)
			}
			cmd.Printf("updated %d plugin(s)\n", len(args))
			return nil
		},
	}
}

func newPluginUpgradeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <name>",
		Short: "Upgrade a plugin when the registry has a newer version",
		Long: `Upgrade compares the pinned version with the registry's latest and
re-installs when the latest is newer. Lookup failures are logged at debug
level and leave the plugin unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.newInstaller(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to create installer: %w", err)
			}
			inst.Upgrade(cmd.Context(), args[0])

			deps, err := inst.Layout().Dependencies()
			if err != nil {
				return fmt.Errorf("failed to read dependencies: %w", err)
			}
			if v, ok := deps[args[0]]; ok {
				cmd.Printf("%s %s\n", args[0], v)
			}
			return nil
		},
	}
}

func newPluginListCmd(a *app) *cobra.Command {
	var match, output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plugins declared in the install root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			layout := plugin.NewLayout(a.cfg.PluginsDir)
			if err := layout.Ensure(); err != nil {
				return fmt.Errorf("failed to prepare plugin root: %w", err)
			}
			deps, err := layout.Dependencies()
			if err != nil {
				return fmt.Errorf("failed to read dependencies: %w", err)
			}
			names, err := layout.DependencyNames()
			if err != nil {
				return fmt.Errorf("failed to read dependencies: %w", err)
			}

			rows := make([]pluginRow, 0, len(names))
			for _, name := range names {
				row := pluginRow{Name: name, Version: deps[name], Type: plugin.TypeNative, Enabled: true}
				if m, err := layout.ReadManifest(name); err == nil {
					row = rowFromManifest(m)
				}
				rows = append(rows, row)
			}
			rows, err = filterRows(match, rows)
			if err != nil {
				return fmt.Errorf("invalid --match: %w", err)
			}
			return writeRows(cmd.OutOrStdout(), output, rows)
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "glob filtering plugin names")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text, json or yaml)")
	return cmd
}

func newPluginInfoCmd(a *app) *cobra.Command {
	var path, output string
	cmd := &cobra.Command{
		Use:   "info <name>",
		Short: "Show the plugin.json metadata of a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == outputText {
				output = outputJSON
			}
			if err := validateOutput(output); err != nil {
				return err
			}
			inst, err := a.newInstaller(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to create installer: %w", err)
			}
			m, err := inst.AdapterInfo(cmd.Context(), args[0], path)
			if err != nil {
				return fmt.Errorf("failed to read plugin info: %w", err)
			}
			return encode(cmd.OutOrStdout(), output, m)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "read plugin.json from this file")
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format (json or yaml)")
	return cmd
}

func newPluginDevCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dev <source-dir> <name>",
		Short: "Copy a local plugin tree into the install root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.newInstaller(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to create installer: %w", err)
			}
			if err := inst.DevInstall(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("dev install failed: %w", err)
			}
			cmd.Printf("copied %s to %s\n", args[0], inst.Layout().PluginDir(args[1]))
			return nil
		},
	}
}

func newPluginWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <source-dir> <name>",
		Short: "Copy a local plugin tree on every change until interrupted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.newInstaller(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to create installer: %w", err)
			}
			err = inst.WatchDev(cmd.Context(), args[0], args[1], func(copyErr error) {
				if copyErr == nil {
					cmd.Printf("synced %s\n", args[1])
				}
			})
			if err != nil {
				return fmt.Errorf("watch failed: %w", err)
			}
			return nil
		},
	}
}

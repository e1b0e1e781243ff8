// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "convert <file.upx>",
		Short: "Convert a foreign plugin package into a native plugin",
		Long: `Convert unpacks a foreign .upx package, maps its plugin.json onto a
native manifest and installs it into the plugin root. A plugin with the same
name is replaced. The conversion result is printed as JSON or YAML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == outputText {
				output = outputJSON
			}
			if err := validateOutput(output); err != nil {
				return err
			}
			c, err := a.newConverter()
			if err != nil {
				return fmt.Errorf("failed to create converter: %w", err)
			}

			res := c.ConvertFile(cmd.Context(), args[0])
			if err := encode(cmd.OutOrStdout(), output, res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("conversion failed: %w", errors.New(res.Error))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format (json or yaml)")
	return cmd
}

// newConvertedCmd groups the commands managing converted plugins.
func newConvertedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "converted",
		Short: "Manage converted plugins",
	}

	var match, output string
	list := &cobra.Command{
		Use:   "list",
		Short: "List converted plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			c, err := a.newConverter()
			if err != nil {
				return fmt.Errorf("failed to create converter: %w", err)
			}
			manifests, err := c.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list converted plugins: %w", err)
			}

			rows := make([]pluginRow, 0, len(manifests))
			for _, m := range manifests {
				rows = append(rows, rowFromManifest(m))
			}
			rows, err = filterRows(match, rows)
			if err != nil {
				return fmt.Errorf("invalid --match: %w", err)
			}
			return writeRows(cmd.OutOrStdout(), output, rows)
		},
	}
	list.Flags().StringVar(&match, "match", "", "glob filtering plugin names")
	list.Flags().StringVarP(&output, "output", "o", outputText, "output format (text, json or yaml)")

	remove := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a converted plugin; removing an absent plugin succeeds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newConverter()
			if err != nil {
				return fmt.Errorf("failed to create converter: %w", err)
			}
			if err := c.Remove(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("remove failed: %w", err)
			}
			cmd.Printf("removed %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, remove, newToggleCmd(a, "enable", true), newToggleCmd(a, "disable", false))
	return cmd
}

func newToggleCmd(a *app, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: fmt.Sprintf("Mark a converted plugin as %sd", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newConverter()
			if err != nil {
				return fmt.Errorf("failed to create converter: %w", err)
			}
			if err := c.SetEnabled(cmd.Context(), args[0], enabled); err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}
			cmd.Printf("%sd %s\n", use, args[0])
			return nil
		},
	}
}

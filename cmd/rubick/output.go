// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/gclm/rubick/internal/plugin"
)

// Output formats for list and info commands.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// pluginRow is one line of a plugin listing.
type pluginRow struct {
	Name        string      `json:"name" yaml:"name"`
	Version     string      `json:"version" yaml:"version"`
	Type        plugin.Type `json:"type" yaml:"type"`
	Enabled     bool        `json:"enabled" yaml:"enabled"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
}

func rowFromManifest(m *plugin.Manifest) pluginRow {
	return pluginRow{
		Name:        m.Name,
		Version:     m.Version,
		Type:        m.PluginType(),
		Enabled:     !m.Disabled,
		Description: m.Description,
	}
}

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// encode writes v as JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}

// writeRows renders rows in format.
func writeRows(w io.Writer, format string, rows []pluginRow) error {
	if format != outputText {
		if rows == nil {
			rows = []pluginRow{}
		}
		return encode(w, format, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tTYPE\tENABLED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", r.Name, r.Version, r.Type, r.Enabled)
	}
	return tw.Flush()
}

// filterRows keeps the rows whose name matches pattern.
func filterRows(pattern string, rows []pluginRow) ([]pluginRow, error) {
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	keep, err := plugin.MatchNames(pattern, names)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(keep))
	for _, n := range keep {
		set[n] = true
	}
	out := make([]pluginRow, 0, len(keep))
	for _, r := range rows {
		if set[r.Name] {
			out = append(out, r)
		}
	}
	return out, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package plugin

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/oops"
)

// Installed is a plugin found below node_modules.
type Installed struct {
	Manifest *Manifest
	Dir      string
}

// Discover finds every plugin directory with a readable package.json below
// node_modules. Scoped packages (@scope/name) are descended into. Directories
// with a missing or unparsable manifest are logged and skipped.
func (l Layout) Discover(ctx context.Context) ([]*Installed, error) {
	dirs, err := l.pluginDirs()
	if err != nil {
		return nil, err
	}

	var found []*Installed
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, oops.With("operation", "discover").Wrap(err)
		}

		manifestPath := filepath.Join(dir, ManifestFile)
		data, err := os.ReadFile(manifestPath) //nolint:gosec // manifestPath is constructed from ReadDir entries
		if err != nil {
			slog.Warn("skipping plugin without manifest",
				"dir", dir,
				"error", err)
			continue
		}

		manifest, err := ParseManifest(data)
		if err != nil {
			slog.Warn("skipping plugin with invalid manifest",
				"dir", dir,
				"error", err)
			continue
		}

		found = append(found, &Installed{Manifest: manifest, Dir: dir})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Manifest.Name < found[j].Manifest.Name
	})
	return found, nil
}

// DiscoverType returns the discovered plugins carrying the given origin tag.
func (l Layout) DiscoverType(ctx context.Context, t Type) ([]*Manifest, error) {
	all, err := l.Discover(ctx)
	if err != nil {
		return nil, err
	}

	var out []*Manifest
	for _, p := range all {
		if p.Manifest.PluginType() == t {
			out = append(out, p.Manifest)
		}
	}
	return out, nil
}

func (l Layout) pluginDirs() ([]string, error) {
	entries, err := os.ReadDir(l.ModulesDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, oops.Code(CodeLayoutIO).With("path", l.ModulesDir()).Wrap(err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(l.ModulesDir(), entry.Name())

		if !strings.HasPrefix(entry.Name(), "@") {
			dirs = append(dirs, dir)
			continue
		}

		scoped, err := os.ReadDir(dir)
		if err != nil {
			slog.Warn("skipping unreadable scope directory", "dir", dir, "error", err)
			continue
		}
		for _, s := range scoped {
			if s.IsDir() {
				dirs = append(dirs, filepath.Join(dir, s.Name()))
			}
		}
	}
	return dirs, nil
}

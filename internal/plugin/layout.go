// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/oops"
	"github.com/tidwall/gjson"
)

// seedRootManifest is written to a fresh install root.
const seedRootManifest = `{"dependencies":{}}`

// Layout resolves paths inside a shared plugin install root:
//
//	<root>/package.json                      dependency list
//	<root>/node_modules/<name>/package.json  plugin manifest + assets
//	<root>/cache                             package manager cache
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// RootManifest returns the path of the root package.json.
func (l Layout) RootManifest() string {
	return filepath.Join(l.Root, ManifestFile)
}

// ModulesDir returns the directory holding installed plugins.
func (l Layout) ModulesDir() string {
	return filepath.Join(l.Root, "node_modules")
}

// PluginDir returns the directory of the named plugin.
func (l Layout) PluginDir(name string) string {
	return filepath.Join(l.ModulesDir(), name)
}

// CacheDir returns the package manager cache directory.
func (l Layout) CacheDir() string {
	return filepath.Join(l.Root, "cache")
}

// Ensure creates the root and seeds package.json when it does not exist yet.
func (l Layout) Ensure() error {
	if err := os.MkdirAll(l.Root, 0o750); err != nil {
		return oops.Code(CodeConfigurationInvalid).With("path", l.Root).Hint("create install root").Wrap(err)
	}

	_, err := os.Stat(l.RootManifest())
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return oops.Code(CodeConfigurationInvalid).With("path", l.RootManifest()).Wrap(err)
	}

	if err := os.WriteFile(l.RootManifest(), []byte(seedRootManifest), 0o600); err != nil {
		return oops.Code(CodeConfigurationInvalid).With("path", l.RootManifest()).Hint("seed package.json").Wrap(err)
	}
	return nil
}

// Dependencies returns the dependency map of the root package.json, name to
// version range as the package manager recorded it.
func (l Layout) Dependencies() (map[string]string, error) {
	data, err := os.ReadFile(l.RootManifest())
	if err != nil {
		return nil, oops.Code(CodeLayoutIO).With("path", l.RootManifest()).Wrap(err)
	}
	if !gjson.ValidBytes(data) {
		return nil, oops.Code(CodeLayoutIO).With("path", l.RootManifest()).Errorf("root package.json is not valid JSON")
	}

	deps := make(map[string]string)
	gjson.GetBytes(data, "dependencies").ForEach(func(key, value gjson.Result) bool {
		deps[key.String()] = value.String()
		return true
	})
	return deps, nil
}

// DependencyNames returns the sorted dependency names of the root package.json.
func (l Layout) DependencyNames() ([]string, error) {
	deps, err := l.Dependencies()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ReadManifest reads the package.json of an installed plugin.
func (l Layout) ReadManifest(name string) (*Manifest, error) {
	path := filepath.Join(l.PluginDir(name), ManifestFile)
	data, err := os.ReadFile(path) //nolint:gosec // path is below the install root
	if err != nil {
		return nil, oops.Code(CodeLayoutIO).With("plugin", name).With("path", path).Wrap(err)
	}
	return ParseManifest(data)
}

// WriteManifest writes m as dir/package.json in one piece: the content goes to
// a sibling temp file that is renamed over the target.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return oops.Code(CodeLayoutIO).With("plugin", m.Name).Wrap(err)
	}
	return WriteFileAtomic(filepath.Join(dir, ManifestFile), data)
}

// WriteFileAtomic replaces path with data via a temp file and rename.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return oops.Code(CodeLayoutIO).With("path", path).Wrap(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return oops.Code(CodeLayoutIO).With("path", path).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return oops.Code(CodeLayoutIO).With("path", path).Wrap(err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // manifests are world-readable like npm writes them
		_ = os.Remove(tmpName)
		return oops.Code(CodeLayoutIO).With("path", path).Wrap(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return oops.Code(CodeLayoutIO).With("path", path).Wrap(err)
	}
	return nil
}

// RemovePlugin deletes a plugin directory. A directory that is already gone
// counts as removed.
func (l Layout) RemovePlugin(name string) error {
	if name == "" || !filepath.IsLocal(name) {
		return oops.Code(CodeLayoutIO).With("plugin", name).Wrap(ErrInvalidName)
	}
	dir := l.PluginDir(name)
	if err := os.RemoveAll(dir); err != nil {
		return oops.Code(CodeLayoutIO).With("plugin", name).With("path", dir).Wrap(err)
	}
	return nil
}

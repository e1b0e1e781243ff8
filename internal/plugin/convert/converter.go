// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

// Package convert turns foreign plugin packages into native plugins.
//
// A package is a gzip stream wrapping an asar container whose root holds
// plugin.json and flat asset files. Conversion writes the package to a temp
// file, decompresses it, unpacks the container, maps plugin.json onto the
// native manifest and installs the result below node_modules of the shared
// plugin root. Every temp artifact is removed before Convert returns.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/gclm/rubick/internal/plugin"
	"github.com/gclm/rubick/internal/plugin/archive"
)

var tracer = otel.Tracer("rubick/convert")

// DefaultTempDirName is created below the OS temp directory.
const DefaultTempDirName = "rubick-temp"

// Converter converts foreign packages into one plugin root.
type Converter struct {
	layout   plugin.Layout
	tempRoot string
	maxSize  int64
	now      func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithTempRoot sets the directory for temp artifacts.
func WithTempRoot(dir string) Option {
	return func(c *Converter) { c.tempRoot = dir }
}

// WithMaxExtractSize bounds decompressed and extracted bytes.
func WithMaxExtractSize(n int64) Option {
	return func(c *Converter) { c.maxSize = n }
}

// WithClock sets the time source for convertTime and temp names.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// New creates a Converter writing into pluginsRoot.
func New(pluginsRoot string, opts ...Option) (*Converter, error) {
	if pluginsRoot == "" {
		return nil, oops.Code(plugin.CodeConfigurationInvalid).Errorf("plugin root is required")
	}

	c := &Converter{
		layout:   plugin.NewLayout(pluginsRoot),
		tempRoot: filepath.Join(os.TempDir(), DefaultTempDirName),
		maxSize:  archive.DefaultMaxSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tempRoot == "" || c.maxSize <= 0 {
		return nil, oops.Code(plugin.CodeConfigurationInvalid).
			With("temp_root", c.tempRoot).
			With("max_size", c.maxSize).
			Errorf("invalid converter options")
	}
	return c, nil
}

// Layout returns the plugin root layout.
func (c *Converter) Layout() plugin.Layout {
	return c.layout
}

// job holds the temp artifacts of one conversion.
type job struct {
	id         string
	upxPath    string
	asarPath   string
	extractDir string
	removed    map[string]bool
}

func (c *Converter) newJob() *job {
	id := newTempID(c.now())
	base := filepath.Join(c.tempRoot, "temp-"+id)
	return &job{
		id:         id,
		upxPath:    base + ".upx",
		asarPath:   base + ".asar",
		extractDir: base,
		removed:    make(map[string]bool),
	}
}

// remove deletes the given artifacts once each.
func (j *job) remove(paths ...string) error {
	var err error
	for _, p := range paths {
		if j.removed[p] {
			continue
		}
		j.removed[p] = true
		err = multierr.Append(err, os.RemoveAll(p))
	}
	return err
}

// Convert runs the pipeline on buf. Failures are reported in the Result,
// never as a panic.
func (c *Converter) Convert(ctx context.Context, buf []byte) (res Result) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "convert.package",
		trace.WithAttributes(attribute.Int("package.size", len(buf))),
	)
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = stageError(StageInstall, oops.Code(plugin.CodeArchiveInvalid).Errorf("conversion panicked: %v", r))
			res = failed[*plugin.Manifest](err)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		plugin.RecordOperation(plugin.ComponentConverter, "convert", start, err)
	}()

	var m *plugin.Manifest
	m, err = c.convert(ctx, buf)
	if err != nil {
		slog.Warn("conversion failed", "error", err)
		return failed[*plugin.Manifest](err)
	}
	slog.Info("plugin converted",
		"plugin", m.Name,
		"version", m.Version)
	return ok(m)
}

func (c *Converter) convert(ctx context.Context, buf []byte) (_ *plugin.Manifest, err error) {
	if len(buf) == 0 {
		return nil, stageError(StageWrite, oops.Code(plugin.CodeArchiveInvalid).Errorf("empty package"))
	}
	if err := os.MkdirAll(c.tempRoot, 0o750); err != nil {
		return nil, stageError(StageWrite, oops.Code(plugin.CodeArchiveInvalid).With("path", c.tempRoot).Wrap(err))
	}

	j := c.newJob()
	defer func() {
		if cerr := j.remove(j.upxPath, j.asarPath, j.extractDir); cerr != nil {
			slog.Warn("temp cleanup failed", "path", j.extractDir, "error", cerr)
		}
	}()

	if err := writeNew(j.upxPath, buf); err != nil {
		return nil, stageError(StageWrite, err)
	}
	if err := archive.DecompressFile(j.upxPath, j.asarPath, c.maxSize); err != nil {
		return nil, stageError(StageDecompress, err)
	}
	if err := archive.ExtractFile(j.asarPath, j.extractDir, c.maxSize); err != nil {
		return nil, stageError(StageExtract, err)
	}
	if err := j.remove(j.upxPath, j.asarPath); err != nil {
		slog.Warn("temp cleanup failed", "path", j.upxPath, "error", err)
	}

	files, err := readTopLevel(j.extractDir)
	if err != nil {
		return nil, stageError(StageRead, err)
	}

	raw, found := files[plugin.ForeignManifestFile]
	if !found {
		return nil, stageError(StageManifest, oops.Code(plugin.CodeManifestInvalid).
			Errorf("package has no %s", plugin.ForeignManifestFile))
	}
	foreign, err := plugin.ParseForeignManifest(raw)
	if err != nil {
		return nil, stageError(StageManifest, err)
	}
	m := foreign.ToNative(c.now())

	if err := ctx.Err(); err != nil {
		return nil, stageError(StageInstall, err)
	}
	if err := c.install(j, m, files); err != nil {
		return nil, stageError(StageInstall, err)
	}
	return m, nil
}

func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600) //nolint:gosec // temp path we chose
	if err != nil {
		return oops.Code(plugin.CodeArchiveInvalid).With("path", path).Wrap(err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return oops.Code(plugin.CodeArchiveInvalid).With("path", path).Wrap(err)
	}
	return oops.Code(plugin.CodeArchiveInvalid).With("path", path).Wrap(f.Close())
}

// readTopLevel loads the regular files directly below dir. Subdirectories
// are not carried over.
func readTopLevel(dir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, oops.Code(plugin.CodeArchiveInvalid).With("path", dir).Wrap(err)
	}

	files := make(map[string][]byte, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			slog.Debug("skipping nested package entry", "path", e.Name())
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name())) //nolint:gosec // entries of our extraction dir
		if err != nil {
			return nil, oops.Code(plugin.CodeArchiveInvalid).With("path", e.Name()).Wrap(err)
		}
		files[e.Name()] = data
	}
	return files, nil
}

// install stages the plugin next to its final directory and swaps it in, so
// a reader never sees a half-written plugin and a same-named plugin is
// replaced as a whole.
func (c *Converter) install(j *job, m *plugin.Manifest, files map[string][]byte) error {
	unlock := plugin.LockRoot(c.layout.Root)
	defer unlock()

	if err := os.MkdirAll(c.layout.ModulesDir(), 0o750); err != nil {
		return oops.Code(plugin.CodeLayoutIO).With("path", c.layout.ModulesDir()).Wrap(err)
	}

	staging := filepath.Join(c.layout.ModulesDir(), ".staging-"+j.id)
	if err := os.Mkdir(staging, 0o750); err != nil {
		return oops.Code(plugin.CodeLayoutIO).With("path", staging).Wrap(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	if err := plugin.WriteManifest(staging, m); err != nil {
		return err
	}
	for name, data := range files {
		if name == plugin.ManifestFile {
			slog.Debug("package ships its own package.json, keeping the converted one",
				"plugin", m.Name)
			continue
		}
		if err := os.WriteFile(filepath.Join(staging, name), data, 0o644); err != nil { //nolint:gosec // plugin assets are world-readable
			return oops.Code(plugin.CodeLayoutIO).With("plugin", m.Name).With("path", name).Wrap(err)
		}
	}

	dest := c.layout.PluginDir(m.Name)
	if err := os.RemoveAll(dest); err != nil {
		return oops.Code(plugin.CodeLayoutIO).With("plugin", m.Name).With("path", dest).Wrap(err)
	}
	if err := os.Rename(staging, dest); err != nil {
		return oops.Code(plugin.CodeLayoutIO).With("plugin", m.Name).With("path", dest).Wrap(err)
	}
	committed = true
	return nil
}

// ConvertFile converts the package stored at path.
func (c *Converter) ConvertFile(ctx context.Context, path string) Result {
	buf, err := os.ReadFile(path) //nolint:gosec // path supplied by the user
	if err != nil {
		return failed[*plugin.Manifest](stageError(StageWrite, oops.Code(plugin.CodeArchiveInvalid).With("path", path).Wrap(err)))
	}
	return c.Convert(ctx, buf)
}

// List returns the manifests of converted plugins.
func (c *Converter) List(ctx context.Context) ([]*plugin.Manifest, error) {
	return c.layout.DiscoverType(ctx, plugin.TypeConverted)
}

// Remove deletes a plugin directory. An absent plugin counts as removed.
func (c *Converter) Remove(_ context.Context, name string) (err error) {
	start := time.Now()
	defer func() { plugin.RecordOperation(plugin.ComponentConverter, "remove", start, err) }()

	unlock := plugin.LockRoot(c.layout.Root)
	defer unlock()

	if err := c.layout.RemovePlugin(name); err != nil {
		return err
	}
	slog.Info("plugin removed", "plugin", name)
	return nil
}

// ErrNotInstalled is returned when a named plugin has no directory.
var ErrNotInstalled = errors.New("plugin is not installed")

func notInstalled(name string) error {
	return oops.Code(plugin.CodeLayoutIO).With("plugin", name).Wrap(fmt.Errorf("%w: %s", ErrNotInstalled, name))
}

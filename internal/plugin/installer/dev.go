// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package installer

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/oops"

	"github.com/gclm/rubick/internal/plugin"
)

// devDebounce collapses bursts of file events into one copy.
const devDebounce = 200 * time.Millisecond

// DevInstall copies the tree at sourcePath file by file into
// node_modules/<pluginName>. An interrupted copy leaves the files written so
// far in place.
func (i *Installer) DevInstall(ctx context.Context, sourcePath, pluginName string) (err error) {
	start := time.Now()
	defer func() { plugin.RecordOperation(plugin.ComponentInstaller, "dev_install", start, err) }()

	if pluginName == "" || !filepath.IsLocal(pluginName) {
		return oops.Code(plugin.CodeConfigurationInvalid).With("plugin", pluginName).Wrap(plugin.ErrInvalidName)
	}

	unlock := plugin.LockRoot(i.config.BaseDir)
	defer unlock()

	dest := i.layout.PluginDir(pluginName)
	if err := copyTree(ctx, sourcePath, dest); err != nil {
		return oops.With("operation", "dev_install").With("plugin", pluginName).Wrap(err)
	}
	slog.Info("dev plugin copied",
		"plugin", pluginName,
		"path", sourcePath)
	return nil
}

func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return oops.Code(plugin.CodeLayoutIO).With("path", path).Wrap(err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return oops.Code(plugin.CodeLayoutIO).With("path", path).Wrap(err)
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			if err := os.MkdirAll(target, 0o750); err != nil {
				return oops.Code(plugin.CodeLayoutIO).With("path", target).Wrap(err)
			}
			return nil
		case !d.Type().IsRegular():
			slog.Debug("skipping non-regular file", "path", path)
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // src is walked below the dev source tree
	if err != nil {
		return oops.Code(plugin.CodeLayoutIO).With("path", src).Wrap(err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return oops.Code(plugin.CodeLayoutIO).With("path", src).Wrap(err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec // dst is below the install root
	if err != nil {
		return oops.Code(plugin.CodeLayoutIO).With("path", dst).Wrap(err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return oops.Code(plugin.CodeLayoutIO).With("path", dst).Wrap(err)
	}
	if err := out.Close(); err != nil {
		return oops.Code(plugin.CodeLayoutIO).With("path", dst).Wrap(err)
	}
	return nil
}

// WatchDev runs DevInstall once and again after every change below
// sourcePath until ctx is done. onCopy, if set, receives the outcome of each
// copy.
func (i *Installer) WatchDev(ctx context.Context, sourcePath, pluginName string, onCopy func(error)) error {
	report := func(err error) {
		if err != nil {
			slog.Warn("dev copy failed", "plugin", pluginName, "error", err)
		}
		if onCopy != nil {
			onCopy(err)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return oops.Code(plugin.CodeConfigurationInvalid).With("path", sourcePath).Wrap(err)
	}
	defer func() { _ = w.Close() }()

	if err := addTree(w, sourcePath); err != nil {
		return err
	}

	report(i.DevInstall(ctx, sourcePath, pluginName))

	timer := time.NewTimer(devDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						slog.Warn("cannot watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			timer.Reset(devDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("dev watcher error", "path", sourcePath, "error", err)
		case <-timer.C:
			report(i.DevInstall(ctx, sourcePath, pluginName))
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return oops.Code(plugin.CodeConfigurationInvalid).With("path", path).Wrap(err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return oops.Code(plugin.CodeConfigurationInvalid).With("path", path).Wrap(err)
		}
		return nil
	})
}

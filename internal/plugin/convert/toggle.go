// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package convert

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
	"github.com/tidwall/sjson"

	"github.com/gclm/rubick/internal/plugin"
)

// SetEnabled sets or clears the disabled flag in a plugin's package.json.
// The rest of the manifest is left byte for byte as it was.
func (c *Converter) SetEnabled(_ context.Context, name string, enabled bool) (err error) {
	start := time.Now()
	defer func() { plugin.RecordOperation(plugin.ComponentConverter, "toggle", start, err) }()

	if err := plugin.ValidateName(name); err != nil {
		return err
	}

	unlock := plugin.LockRoot(c.layout.Root)
	defer unlock()

	path := filepath.Join(c.layout.PluginDir(name), plugin.ManifestFile)
	data, err := os.ReadFile(path) //nolint:gosec // path is below the plugin root
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return notInstalled(name)
		}
		return oops.Code(plugin.CodeLayoutIO).With("plugin", name).With("path", path).Wrap(err)
	}

	if enabled {
		data, err = sjson.DeleteBytes(data, "disabled")
	} else {
		data, err = sjson.SetBytes(data, "disabled", true)
	}
	if err != nil {
		return oops.Code(plugin.CodeManifestInvalid).With("plugin", name).Wrap(err)
	}

	if err := plugin.WriteFileAtomic(path, data); err != nil {
		return err
	}
	slog.Info("plugin toggled",
		"plugin", name,
		"enabled", enabled)
	return nil
}

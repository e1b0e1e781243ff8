// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package installer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/gclm/rubick/internal/plugin"
)

const adapterInfoRetries = 3

// AdapterInfo resolves the descriptor of a plugin: explicitPath if given and
// present, else node_modules/<name>/plugin.json, else <cdn>/<name>/plugin.json.
// The CDN answer is unauthenticated metadata and is never executed.
func (i *Installer) AdapterInfo(ctx context.Context, name, explicitPath string) (*plugin.Manifest, error) {
	local := explicitPath
	if local == "" {
		local = filepath.Join(i.layout.PluginDir(name), plugin.ForeignManifestFile)
	}

	data, err := os.ReadFile(local) //nolint:gosec // descriptor path chosen by the caller or below the install root
	switch {
	case err == nil:
		m, err := plugin.ParseManifest(data)
		if err != nil {
			return nil, oops.With("plugin", name).With("path", local).Wrap(err)
		}
		return m, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, oops.Code(plugin.CodeLayoutIO).With("plugin", name).With("path", local).Wrap(err)
	}

	data, err = i.fetchAdapterInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	m, err := plugin.ParseManifest(data)
	if err != nil {
		return nil, oops.With("plugin", name).With("source", "cdn").Wrap(err)
	}
	return m, nil
}

// fetchAdapterInfo gets plugin.json from the CDN, retrying transport errors
// and server errors with exponential backoff.
func (i *Installer) fetchAdapterInfo(ctx context.Context, name string) ([]byte, error) {
	url := strings.TrimRight(i.cdn, "/") + "/" + name + "/" + plugin.ForeignManifestFile
	errb := oops.Code(plugin.CodeRegistryLookupFailed).With("plugin", name).With("url", url)

	var body []byte
	backoff := retry.WithMaxRetries(adapterInfoRetries, retry.NewExponential(i.retryMin))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := i.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			return retry.RetryableError(errb.With("status", resp.StatusCode).Errorf("cdn answered %s", resp.Status))
		case resp.StatusCode != http.StatusOK:
			return errb.With("status", resp.StatusCode).Errorf("cdn answered %s", resp.Status)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return err
	})
	if err != nil {
		return nil, errb.Wrap(err)
	}
	return body, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package installer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"github.com/tidwall/gjson"

	"github.com/gclm/rubick/internal/plugin"
)

// resolveRegistry picks the persisted override, then the option, then the
// default mirror. A failed lookup of the persisted document is ignored.
func (i *Installer) resolveRegistry(ctx context.Context) string {
	if i.configReader != nil {
		doc, err := i.configReader.Get(ctx, ConfigDocID)
		switch {
		case err != nil:
			slog.Debug("registry override unavailable", "error", err)
		case doc != nil:
			if data, err := json.Marshal(doc); err == nil {
				if r := gjson.GetBytes(data, "data.register").String(); r != "" {
					return r
				}
			}
		}
	}
	if i.registryOpt != "" {
		return i.registryOpt
	}
	return DefaultRegistry
}

// Upgrade re-installs name when the registry publishes a version strictly
// newer than the pinned one. Every failure is logged and swallowed.
func (i *Installer) Upgrade(ctx context.Context, name string) {
	start := time.Now()
	err := i.upgrade(ctx, name)
	plugin.RecordOperation(plugin.ComponentInstaller, "upgrade", start, err)
	if err != nil {
		slog.Debug("upgrade skipped",
			"plugin", name,
			"error", err)
	}
}

func (i *Installer) upgrade(ctx context.Context, name string) error {
	deps, err := i.layout.Dependencies()
	if err != nil {
		return err
	}
	pinnedRange, ok := deps[name]
	if !ok {
		return oops.With("plugin", name).Errorf("plugin is not installed")
	}
	pinned, err := semver.NewVersion(strings.TrimLeft(pinnedRange, "^~"))
	if err != nil {
		return oops.With("plugin", name).With("version", pinnedRange).Wrap(err)
	}

	latestRaw, err := i.LatestVersion(ctx, name)
	if err != nil {
		return err
	}
	latest, err := semver.NewVersion(latestRaw)
	if err != nil {
		return oops.With("plugin", name).With("version", latestRaw).Wrap(err)
	}

	if !latest.GreaterThan(pinned) {
		return nil
	}

	slog.Info("upgrading plugin",
		"plugin", name,
		"from", pinned.String(),
		"to", latest.String())

	unlock := plugin.LockRoot(i.config.BaseDir)
	defer unlock()
	return i.install(ctx, []string{name})
}

// LatestVersion returns the dist-tags.latest version published for name.
// Results are cached for the session and concurrent lookups of one name
// share a request.
func (i *Installer) LatestVersion(ctx context.Context, name string) (string, error) {
	if v, ok := i.versions.Get(name); ok {
		return v, nil
	}

	v, err, _ := i.lookups.Do(name, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(ctx, upgradeTimeout)
		defer cancel()

		latest, err := i.fetchLatest(lookupCtx, name)
		if err != nil {
			return "", err
		}
		i.versions.Add(name, latest)
		return latest, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (i *Installer) fetchLatest(ctx context.Context, name string) (string, error) {
	url := strings.TrimRight(i.config.RegistryURL, "/") + "/" + strings.ReplaceAll(name, "/", "%2f")
	errb := oops.Code(plugin.CodeRegistryLookupFailed).With("plugin", name).With("registry", i.config.RegistryURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errb.Wrap(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := i.http.Do(req)
	if err != nil {
		return "", errb.Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", errb.With("status", resp.StatusCode).Errorf("registry answered %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", errb.Wrap(err)
	}
	latest := gjson.GetBytes(body, "dist-tags.latest")
	if latest.Type != gjson.String || latest.String() == "" {
		return "", errb.Errorf("registry document has no dist-tags.latest")
	}
	return latest.String(), nil
}

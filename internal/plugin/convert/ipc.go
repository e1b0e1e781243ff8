// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package convert

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/gclm/rubick/internal/hostapi"
	"github.com/gclm/rubick/internal/plugin"
)

// Message types served by Register in addition to the hostapi lifecycle
// messages.
const (
	MsgConvert     = "utools:convert"
	MsgLoadPlugins = "utools:loadPlugins"
	MsgRemove      = "utools:removePlugin"
)

type convertRequest struct {
	Buffer []byte `json:"buffer"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type toggleRequest struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Register binds the converter to its message types on m. The utools:*
// handlers always answer with a Response; the lifecycle handlers report
// failures as errors.
func (c *Converter) Register(m *hostapi.Mux) {
	hostapi.HandleFunc(m, MsgConvert, func(ctx context.Context, in convertRequest) (Result, error) {
		return c.Convert(ctx, in.Buffer), nil
	})

	hostapi.HandleFunc(m, MsgLoadPlugins, func(ctx context.Context, _ struct{}) (Response[[]*plugin.Manifest], error) {
		list, err := c.List(ctx)
		if err != nil {
			return failed[[]*plugin.Manifest](err), nil
		}
		return ok(list), nil
	})

	hostapi.HandleFunc(m, MsgRemove, func(ctx context.Context, in nameRequest) (Response[string], error) {
		if err := c.Remove(ctx, in.Name); err != nil {
			return failed[string](err), nil
		}
		return ok(in.Name), nil
	})

	hostapi.HandleFunc(m, hostapi.MsgInstallPlugin, func(ctx context.Context, in hostapi.PluginInstall) (*hostapi.PluginInfo, error) {
		res := c.ConvertFile(ctx, in.Path)
		if !res.Success {
			return nil, oops.With("operation", hostapi.MsgInstallPlugin).With("path", in.Path).Wrap(errors.New(res.Error))
		}
		info := hostapi.InfoFromManifest(res.Data)
		return &info, nil
	})

	hostapi.HandleFunc(m, hostapi.MsgUninstallPlugin, func(ctx context.Context, in nameRequest) (bool, error) {
		if err := c.Remove(ctx, in.Name); err != nil {
			return false, err
		}
		return true, nil
	})

	hostapi.HandleFunc(m, hostapi.MsgTogglePlugin, func(ctx context.Context, in toggleRequest) (bool, error) {
		if err := c.SetEnabled(ctx, in.Name, in.Enabled); err != nil {
			return false, err
		}
		return true, nil
	})

	hostapi.HandleFunc(m, hostapi.MsgGetInstalledPlugins, func(ctx context.Context, _ struct{}) ([]hostapi.PluginInfo, error) {
		installed, err := c.layout.Discover(ctx)
		if err != nil {
			return nil, err
		}
		infos := make([]hostapi.PluginInfo, 0, len(installed))
		for _, p := range installed {
			infos = append(infos, hostapi.InfoFromManifest(p.Manifest))
		}
		return infos, nil
	})
}

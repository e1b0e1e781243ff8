// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package hostapi

import (
	"context"

	"github.com/gclm/rubick/internal/plugin"
)

// Point is a screen coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is a screen area.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Display describes one monitor.
type Display struct {
	ID          int64   `json:"id"`
	Bounds      Rect    `json:"bounds"`
	WorkArea    Rect    `json:"workArea"`
	ScaleFactor float64 `json:"scaleFactor"`
}

// DialogOptions configures the open and save dialogs.
type DialogOptions struct {
	Title       string   `json:"title,omitempty"`
	DefaultPath string   `json:"defaultPath,omitempty"`
	ButtonLabel string   `json:"buttonLabel,omitempty"`
	Properties  []string `json:"properties,omitempty"`
}

// SubInput configures the search bar sub input of a running plugin.
type SubInput struct {
	Placeholder string `json:"placeholder"`
	IsFocus     bool   `json:"isFocus"`
}

// PluginInstall asks the host to install a foreign package from a local
// path. Config is the manifest shipped next to the package.
type PluginInstall struct {
	Path   string           `json:"path"`
	Config *plugin.Manifest `json:"config,omitempty"`
}

// PluginInfo describes one installed plugin.
type PluginInfo struct {
	Name        string      `json:"name"`
	PluginName  string      `json:"pluginName,omitempty"`
	Version     string      `json:"version"`
	Description string      `json:"description"`
	Type        plugin.Type `json:"type"`
	Enabled     bool        `json:"enabled"`
}

// InfoFromManifest builds the PluginInfo of an installed manifest.
func InfoFromManifest(m *plugin.Manifest) PluginInfo {
	return PluginInfo{
		Name:        m.Name,
		PluginName:  m.PluginName,
		Version:     m.Version,
		Description: m.Description,
		Type:        m.PluginType(),
		Enabled:     !m.Disabled,
	}
}

// Clipboard operations.
type Clipboard interface {
	CopyText(ctx context.Context, text string) (bool, error)
	CopyImage(ctx context.Context, image string) (bool, error)
	CopyFile(ctx context.Context, files []string) (bool, error)
	GetCopyedFiles(ctx context.Context) ([]string, error)
}

// Shell operations. Methods without a context are fire-and-forget.
type Shell interface {
	ShowNotification(body, clickFeatureCode string)
	ShellBeep()
	ShellOpenPath(ctx context.Context, path string) error
	ShellShowItemInFolder(path string)
	ShellOpenExternal(ctx context.Context, url string) error
	SimulateKeyboardTap(key string, modifiers ...string)
}

// Window controls the main window and the plugin view.
type Window interface {
	HideMainWindow(ctx context.Context) (bool, error)
	ShowMainWindow(ctx context.Context) (bool, error)
	SetExpendHeight(ctx context.Context, height int) error
	SetSubInput(ctx context.Context, in SubInput) (bool, error)
	RemoveSubInput(ctx context.Context) (bool, error)
	SetSubInputValue(ctx context.Context, text string) (bool, error)
	SubInputBlur(ctx context.Context) (bool, error)
	ShowOpenDialog(ctx context.Context, opts DialogOptions) ([]string, error)
	ShowSaveDialog(ctx context.Context, opts DialogOptions) (string, error)
	Redirect(ctx context.Context, label string, payload any) error
	OutPlugin(ctx context.Context) error
	CreateBrowserWindow(ctx context.Context, url string, options map[string]any) (int, error)
}

// Screen queries.
type Screen interface {
	GetCursorScreenPoint(ctx context.Context) (Point, error)
	GetDisplayNearestPoint(ctx context.Context, p Point) (*Display, error)
	ScreenCapture(ctx context.Context) (string, error)
	IsDarkColors(ctx context.Context) (bool, error)
}

// System information.
type System interface {
	IsMacOS() bool
	IsWindows() bool
	IsLinux() bool
	GetPath(ctx context.Context, name string) (string, error)
	GetFileIcon(ctx context.Context, path string) (string, error)
	GetLocalID(ctx context.Context) (string, error)
}

// Features manages the dynamic features of the calling plugin.
type Features interface {
	GetFeatures(ctx context.Context, codes ...string) ([]plugin.Feature, error)
	SetFeature(ctx context.Context, f plugin.Feature) (bool, error)
	RemoveFeature(ctx context.Context, code string) (bool, error)
}

// Lifecycle installs and manages plugins on the host.
type Lifecycle interface {
	InstallPlugin(ctx context.Context, in PluginInstall) error
	UninstallPlugin(ctx context.Context, name string) error
	TogglePlugin(ctx context.Context, name string, enabled bool) error
	GetInstalledPlugins(ctx context.Context) ([]PluginInfo, error)
}

// KeyValueStore is the simplified single-value store layered on the
// document store.
type KeyValueStore interface {
	SetItem(ctx context.Context, key string, value any) error
	GetItem(ctx context.Context, key string) (any, error)
	RemoveItem(ctx context.Context, key string) error
}

// Native is the full host surface available to a plugin.
type Native interface {
	Clipboard
	Shell
	Window
	Screen
	System
	Features
	Lifecycle
	DB() DocumentStore
	DBStorage() KeyValueStore
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package hostapi

import (
	"context"
	"runtime"

	"github.com/samber/oops"

	"github.com/gclm/rubick/internal/plugin"
)

// Client implements Native over a Channel.
type Client struct {
	ch   Channel
	db   DocumentStore
	kv   *KVStore
	goos string
}

var _ Native = (*Client)(nil)

// NewClient creates a Client sending on ch.
func NewClient(ch Channel) *Client {
	db := channelStore{ch: ch}
	return &Client{ch: ch, db: db, kv: NewKVStore(db), goos: runtime.GOOS}
}

// call sends a synchronous request and decodes the answer into out.
func call(ctx context.Context, ch Channel, msgType string, data, out any) error {
	raw, err := ch.SendSync(ctx, Request{Type: msgType, Data: data})
	if err != nil {
		return err
	}
	if err := decodeInto(raw, out); err != nil {
		return oops.Code(CodeHostCallFailed).With("operation", msgType).Hint("decode response").Wrap(err)
	}
	return nil
}

func oopsStore(op, id string) oops.OopsErrorBuilder {
	return oops.Code(CodeStoreOperationFailed).With("operation", op).With("id", id)
}

func (c *Client) callErr(ctx context.Context, msgType string, data, out any) error {
	if err := call(ctx, c.ch, msgType, data, out); err != nil {
		return oops.With("operation", msgType).Wrap(err)
	}
	return nil
}

func (c *Client) callBool(ctx context.Context, msgType string, data any) (bool, error) {
	var ok bool
	err := c.callErr(ctx, msgType, data, &ok)
	return ok, err
}

// CopyText copies text to the clipboard.
func (c *Client) CopyText(ctx context.Context, text string) (bool, error) {
	return c.callBool(ctx, MsgCopyText, text)
}

// CopyImage copies an image (path or data URL) to the clipboard.
func (c *Client) CopyImage(ctx context.Context, image string) (bool, error) {
	return c.callBool(ctx, MsgCopyImage, image)
}

// CopyFile copies file references to the clipboard.
func (c *Client) CopyFile(ctx context.Context, files []string) (bool, error) {
	return c.callBool(ctx, MsgCopyFile, files)
}

// GetCopyedFiles returns the file paths currently on the clipboard.
func (c *Client) GetCopyedFiles(ctx context.Context) ([]string, error) {
	var files []string
	err := c.callErr(ctx, MsgGetCopyFiles, nil, &files)
	return files, err
}

// ShowNotification shows a system notification. Clicking it enters the
// feature clickFeatureCode when that is not empty.
func (c *Client) ShowNotification(body, clickFeatureCode string) {
	c.ch.Send(Request{Type: MsgShowNotification, Data: notification{Body: body, ClickFeatureCode: clickFeatureCode}})
}

type notification struct {
	Body             string `json:"body"`
	ClickFeatureCode string `json:"clickFeatureCode,omitempty"`
}

// ShellBeep plays the system beep.
func (c *Client) ShellBeep() {
	c.ch.Send(Request{Type: MsgShellBeep})
}

// ShellOpenPath opens a file with its default application.
func (c *Client) ShellOpenPath(ctx context.Context, path string) error {
	return c.callErr(ctx, MsgShellOpenPath, map[string]string{"path": path}, nil)
}

// ShellShowItemInFolder reveals a file in the file manager.
func (c *Client) ShellShowItemInFolder(path string) {
	c.ch.Send(Request{Type: MsgShellShowItemInFolder, Data: map[string]string{"path": path}})
}

// ShellOpenExternal opens a URL in the default browser.
func (c *Client) ShellOpenExternal(ctx context.Context, url string) error {
	return c.callErr(ctx, MsgShellOpenExternal, map[string]string{"url": url}, nil)
}

// SimulateKeyboardTap sends a key press with optional modifiers.
func (c *Client) SimulateKeyboardTap(key string, modifiers ...string) {
	c.ch.Send(Request{Type: MsgSimulateKeyboardTap, Data: map[string]any{"key": key, "modifier": modifiers}})
}

// HideMainWindow hides the launcher window.
func (c *Client) HideMainWindow(ctx context.Context) (bool, error) {
	return c.callBool(ctx, MsgHideMainWindow, nil)
}

// ShowMainWindow shows the launcher window.
func (c *Client) ShowMainWindow(ctx context.Context) (bool, error) {
	return c.callBool(ctx, MsgShowMainWindow, nil)
}

// SetExpendHeight resizes the plugin view.
func (c *Client) SetExpendHeight(ctx context.Context, height int) error {
	return c.callErr(ctx, MsgSetExpendHeight, height, nil)
}

// SetSubInput shows the sub input in the search bar.
func (c *Client) SetSubInput(ctx context.Context, in SubInput) (bool, error) {
	return c.callBool(ctx, MsgSetSubInput, in)
}

// RemoveSubInput hides the sub input.
func (c *Client) RemoveSubInput(ctx context.Context) (bool, error) {
	return c.callBool(ctx, MsgRemoveSubInput, nil)
}

// SetSubInputValue replaces the sub input text.
func (c *Client) SetSubInputValue(ctx context.Context, text string) (bool, error) {
	return c.callBool(ctx, MsgSetSubInputValue, map[string]string{"text": text})
}

// SubInputBlur removes focus from the sub input.
func (c *Client) SubInputBlur(ctx context.Context) (bool, error) {
	return c.callBool(ctx, MsgSubInputBlur, nil)
}

// ShowOpenDialog shows a file open dialog and returns the chosen paths.
func (c *Client) ShowOpenDialog(ctx context.Context, opts DialogOptions) ([]string, error) {
	var paths []string
	err := c.callErr(ctx, MsgShowOpenDialog, opts, &paths)
	return paths, err
}

// ShowSaveDialog shows a file save dialog and returns the chosen path.
func (c *Client) ShowSaveDialog(ctx context.Context, opts DialogOptions) (string, error) {
	var path string
	err := c.callErr(ctx, MsgShowSaveDialog, opts, &path)
	return path, err
}

// Redirect switches to the feature with the given label.
func (c *Client) Redirect(ctx context.Context, label string, payload any) error {
	return c.callErr(ctx, MsgRedirect, map[string]any{"label": label, "payload": payload}, nil)
}

// OutPlugin closes the running plugin.
func (c *Client) OutPlugin(ctx context.Context) error {
	return c.callErr(ctx, MsgOutPlugin, nil, nil)
}

// CreateBrowserWindow opens a plugin-owned window and returns its id.
func (c *Client) CreateBrowserWindow(ctx context.Context, url string, options map[string]any) (int, error) {
	var id int
	err := c.callErr(ctx, MsgCreateBrowserWindow, map[string]any{"url": url, "options": options}, &id)
	return id, err
}

// GetCursorScreenPoint returns the pointer position.
func (c *Client) GetCursorScreenPoint(ctx context.Context) (Point, error) {
	var p Point
	err := c.callErr(ctx, MsgGetCursorScreenPoint, nil, &p)
	return p, err
}

// GetDisplayNearestPoint returns the display closest to p.
func (c *Client) GetDisplayNearestPoint(ctx context.Context, p Point) (*Display, error) {
	var d Display
	if err := c.callErr(ctx, MsgGetDisplayNearestPoint, p, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ScreenCapture captures a screen region and returns it as a data URL.
func (c *Client) ScreenCapture(ctx context.Context) (string, error) {
	var img string
	err := c.callErr(ctx, MsgScreenCapture, nil, &img)
	return img, err
}

// IsDarkColors reports whether the system uses a dark theme.
func (c *Client) IsDarkColors(ctx context.Context) (bool, error) {
	return c.callBool(ctx, MsgIsDarkColors, nil)
}

// IsMacOS reports whether the host runs on macOS.
func (c *Client) IsMacOS() bool { return c.goos == "darwin" }

// IsWindows reports whether the host runs on Windows.
func (c *Client) IsWindows() bool { return c.goos == "windows" }

// IsLinux reports whether the host runs on Linux.
func (c *Client) IsLinux() bool { return c.goos == "linux" }

// GetPath returns a well-known directory such as "home" or "downloads".
func (c *Client) GetPath(ctx context.Context, name string) (string, error) {
	var p string
	err := c.callErr(ctx, MsgGetPath, map[string]string{"name": name}, &p)
	return p, err
}

// GetFileIcon returns the icon of a file as a data URL.
func (c *Client) GetFileIcon(ctx context.Context, path string) (string, error) {
	var icon string
	err := c.callErr(ctx, MsgGetFileIcon, map[string]string{"path": path}, &icon)
	return icon, err
}

// GetLocalID returns the stable id of this installation.
func (c *Client) GetLocalID(ctx context.Context) (string, error) {
	var id string
	err := c.callErr(ctx, MsgGetLocalID, nil, &id)
	return id, err
}

// GetFeatures returns the dynamic features, filtered by code when given.
func (c *Client) GetFeatures(ctx context.Context, codes ...string) ([]plugin.Feature, error) {
	var features []plugin.Feature
	err := c.callErr(ctx, MsgGetFeatures, codes, &features)
	return features, err
}

// SetFeature adds or replaces a dynamic feature.
func (c *Client) SetFeature(ctx context.Context, f plugin.Feature) (bool, error) {
	return c.callBool(ctx, MsgSetFeature, map[string]any{"feature": f})
}

// RemoveFeature removes a dynamic feature by code.
func (c *Client) RemoveFeature(ctx context.Context, code string) (bool, error) {
	return c.callBool(ctx, MsgRemoveFeature, map[string]string{"code": code})
}

// InstallPlugin installs a foreign package from a local path.
func (c *Client) InstallPlugin(ctx context.Context, in PluginInstall) error {
	return c.callErr(ctx, MsgInstallPlugin, in, nil)
}

// UninstallPlugin removes an installed plugin.
func (c *Client) UninstallPlugin(ctx context.Context, name string) error {
	return c.callErr(ctx, MsgUninstallPlugin, map[string]string{"name": name}, nil)
}

// TogglePlugin enables or disables an installed plugin.
func (c *Client) TogglePlugin(ctx context.Context, name string, enabled bool) error {
	return c.callErr(ctx, MsgTogglePlugin, map[string]any{"name": name, "enabled": enabled}, nil)
}

// GetInstalledPlugins lists installed plugins.
func (c *Client) GetInstalledPlugins(ctx context.Context) ([]PluginInfo, error) {
	var infos []PluginInfo
	err := c.callErr(ctx, MsgGetInstalledPlugins, nil, &infos)
	return infos, err
}

// DB returns the document store reached over the channel.
func (c *Client) DB() DocumentStore { return c.db }

// DBStorage returns the key-value store layered on DB.
func (c *Client) DBStorage() KeyValueStore { return c.kv }

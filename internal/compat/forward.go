// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package compat

import (
	"context"

	"github.com/gclm/rubick/internal/hostapi"
	"github.com/gclm/rubick/internal/plugin"
)

// CopyText copies text to the clipboard.
func (f *Facade) CopyText(ctx context.Context, text string) (bool, error) {
	return f.native.CopyText(ctx, text)
}

// CopyImage copies an image to the clipboard.
func (f *Facade) CopyImage(ctx context.Context, image string) (bool, error) {
	return f.native.CopyImage(ctx, image)
}

// CopyFile copies file references to the clipboard.
func (f *Facade) CopyFile(ctx context.Context, files []string) (bool, error) {
	return f.native.CopyFile(ctx, files)
}

// GetCopyedFiles returns the file paths on the clipboard.
func (f *Facade) GetCopyedFiles(ctx context.Context) ([]string, error) {
	return f.native.GetCopyedFiles(ctx)
}

// ShowNotification shows a system notification.
func (f *Facade) ShowNotification(body, clickFeatureCode string) {
	f.native.ShowNotification(body, clickFeatureCode)
}

// ShellBeep plays the system beep.
func (f *Facade) ShellBeep() {
	f.native.ShellBeep()
}

// ShellOpenPath opens a file with its default application.
func (f *Facade) ShellOpenPath(ctx context.Context, path string) error {
	return f.native.ShellOpenPath(ctx, path)
}

// ShellShowItemInFolder reveals a file in the file manager.
func (f *Facade) ShellShowItemInFolder(path string) {
	f.native.ShellShowItemInFolder(path)
}

// ShellOpenExternal opens a URL in the default browser.
func (f *Facade) ShellOpenExternal(ctx context.Context, url string) error {
	return f.native.ShellOpenExternal(ctx, url)
}

// SimulateKeyboardTap sends a key press.
func (f *Facade) SimulateKeyboardTap(key string, modifiers ...string) {
	f.native.SimulateKeyboardTap(key, modifiers...)
}

// HideMainWindow hides the launcher window.
func (f *Facade) HideMainWindow(ctx context.Context) (bool, error) {
	return f.native.HideMainWindow(ctx)
}

// ShowMainWindow shows the launcher window.
func (f *Facade) ShowMainWindow(ctx context.Context) (bool, error) {
	return f.native.ShowMainWindow(ctx)
}

// SetExpendHeight resizes the plugin view.
func (f *Facade) SetExpendHeight(ctx context.Context, height int) error {
	return f.native.SetExpendHeight(ctx, height)
}

// SetSubInput shows the sub input and routes its text changes to onChange.
func (f *Facade) SetSubInput(ctx context.Context, onChange func(text string), placeholder string, isFocus bool) (bool, error) {
	if onChange != nil {
		f.events.set(EventSubInputChange, payloadHandler(func(_ context.Context, in SubInputChange) {
			onChange(in.Text)
		}))
	}
	return f.native.SetSubInput(ctx, hostapi.SubInput{Placeholder: placeholder, IsFocus: isFocus})
}

// RemoveSubInput hides the sub input and drops its change handler.
func (f *Facade) RemoveSubInput(ctx context.Context) (bool, error) {
	f.events.clear(EventSubInputChange)
	return f.native.RemoveSubInput(ctx)
}

// SetSubInputValue replaces the sub input text.
func (f *Facade) SetSubInputValue(ctx context.Context, text string) (bool, error) {
	return f.native.SetSubInputValue(ctx, text)
}

// SubInputBlur removes focus from the sub input.
func (f *Facade) SubInputBlur(ctx context.Context) (bool, error) {
	return f.native.SubInputBlur(ctx)
}

// ShowOpenDialog shows a file open dialog.
func (f *Facade) ShowOpenDialog(ctx context.Context, opts hostapi.DialogOptions) ([]string, error) {
	return f.native.ShowOpenDialog(ctx, opts)
}

// ShowSaveDialog shows a file save dialog.
func (f *Facade) ShowSaveDialog(ctx context.Context, opts hostapi.DialogOptions) (string, error) {
	return f.native.ShowSaveDialog(ctx, opts)
}

// GetCursorScreenPoint returns the pointer position.
func (f *Facade) GetCursorScreenPoint(ctx context.Context) (hostapi.Point, error) {
	return f.native.GetCursorScreenPoint(ctx)
}

// GetDisplayNearestPoint returns the display closest to p.
func (f *Facade) GetDisplayNearestPoint(ctx context.Context, p hostapi.Point) (*hostapi.Display, error) {
	return f.native.GetDisplayNearestPoint(ctx, p)
}

// ScreenCapture captures a screen region and delivers the image to cb
// through the subscription table.
func (f *Facade) ScreenCapture(ctx context.Context, cb func(image string)) error {
	if cb != nil {
		f.events.set(EventScreenCapture, payloadHandler(func(_ context.Context, img string) {
			cb(img)
		}))
	}
	img, err := f.native.ScreenCapture(ctx)
	if err != nil {
		return err
	}
	f.Emit(ctx, EventScreenCapture, img)
	return nil
}

// IsDarkColors reports whether the system uses a dark theme.
func (f *Facade) IsDarkColors(ctx context.Context) (bool, error) {
	return f.native.IsDarkColors(ctx)
}

// IsMacOS reports whether the host runs on macOS.
func (f *Facade) IsMacOS() bool { return f.native.IsMacOS() }

// IsWindows reports whether the host runs on Windows.
func (f *Facade) IsWindows() bool { return f.native.IsWindows() }

// IsLinux reports whether the host runs on Linux.
func (f *Facade) IsLinux() bool { return f.native.IsLinux() }

// GetPath returns a well-known directory.
func (f *Facade) GetPath(ctx context.Context, name string) (string, error) {
	return f.native.GetPath(ctx, name)
}

// GetFeatures returns the plugin's dynamic features.
func (f *Facade) GetFeatures(ctx context.Context, codes ...string) ([]plugin.Feature, error) {
	return f.native.GetFeatures(ctx, codes...)
}

// SetFeature adds or replaces a dynamic feature.
func (f *Facade) SetFeature(ctx context.Context, feature plugin.Feature) (bool, error) {
	return f.native.SetFeature(ctx, feature)
}

// RemoveFeature removes a dynamic feature.
func (f *Facade) RemoveFeature(ctx context.Context, code string) (bool, error) {
	return f.native.RemoveFeature(ctx, code)
}

// Redirect switches to another feature.
func (f *Facade) Redirect(ctx context.Context, label string, payload any) error {
	return f.native.Redirect(ctx, label, payload)
}

// OutPlugin closes the running plugin.
func (f *Facade) OutPlugin(ctx context.Context) error {
	return f.native.OutPlugin(ctx)
}

// CreateBrowserWindow opens a plugin-owned window.
func (f *Facade) CreateBrowserWindow(ctx context.Context, url string, options map[string]any) (int, error) {
	return f.native.CreateBrowserWindow(ctx, url, options)
}

// GetFileIcon returns a file icon as a data URL.
func (f *Facade) GetFileIcon(ctx context.Context, path string) (string, error) {
	return f.native.GetFileIcon(ctx, path)
}

// GetLocalID returns the stable id of this installation.
func (f *Facade) GetLocalID(ctx context.Context) (string, error) {
	return f.native.GetLocalID(ctx)
}

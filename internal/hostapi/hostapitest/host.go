// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package hostapitest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gclm/rubick/internal/hostapi"
)

// Call is one request observed by a Host.
type Call struct {
	Type string
	Data json.RawMessage
}

// Host is a fake host: db messages are served by an in-memory store and
// every other message is recorded and answered from canned responses.
type Host struct {
	Mux   *hostapi.Mux
	Store *MemStore

	mu        sync.Mutex
	calls     []Call
	responses map[string]any
	errs      map[string]error
}

// hostMessages are the non-storage messages a Host answers.
var hostMessages = []string{
	hostapi.MsgCopyText, hostapi.MsgCopyImage, hostapi.MsgCopyFile, hostapi.MsgGetCopyFiles,
	hostapi.MsgShowNotification, hostapi.MsgShellBeep, hostapi.MsgShellOpenPath,
	hostapi.MsgShellShowItemInFolder, hostapi.MsgShellOpenExternal, hostapi.MsgSimulateKeyboardTap,
	hostapi.MsgHideMainWindow, hostapi.MsgShowMainWindow, hostapi.MsgShowOpenDialog,
	hostapi.MsgShowSaveDialog, hostapi.MsgSetExpendHeight, hostapi.MsgSetSubInput,
	hostapi.MsgRemoveSubInput, hostapi.MsgSetSubInputValue, hostapi.MsgSubInputBlur,
	hostapi.MsgGetCursorScreenPoint, hostapi.MsgGetDisplayNearestPoint, hostapi.MsgScreenCapture,
	hostapi.MsgIsDarkColors, hostapi.MsgGetPath, hostapi.MsgGetFileIcon, hostapi.MsgGetLocalID,
	hostapi.MsgGetFeatures, hostapi.MsgSetFeature, hostapi.MsgRemoveFeature, hostapi.MsgRedirect,
	hostapi.MsgOutPlugin, hostapi.MsgCreateBrowserWindow, hostapi.MsgRemovePlugin,
	hostapi.MsgInstallPlugin, hostapi.MsgUninstallPlugin, hostapi.MsgTogglePlugin,
	hostapi.MsgGetInstalledPlugins,
}

// NewHost creates a Host with an empty store.
func NewHost() *Host {
	h := &Host{
		Mux:       hostapi.NewMux(),
		Store:     NewMemStore(),
		responses: make(map[string]any),
		errs:      make(map[string]error),
	}
	hostapi.ServeStore(h.Mux, h.Store)
	for _, msg := range hostMessages {
		h.Mux.Handle(msg, h.handler(msg))
	}
	return h
}

func (h *Host) handler(msgType string) hostapi.HandlerFunc {
	return func(_ context.Context, data json.RawMessage) (any, error) {
		h.mu.Lock()
		defer h.mu.Unlock()

		h.calls = append(h.calls, Call{Type: msgType, Data: append(json.RawMessage(nil), data...)})
		if err := h.errs[msgType]; err != nil {
			return nil, err
		}
		return h.responses[msgType], nil
	}
}

// Respond sets the value returned for msgType.
func (h *Host) Respond(msgType string, value any) {
	h.mu.Lock()
	h.responses[msgType] = value
	h.mu.Unlock()
}

// Fail makes msgType return err.
func (h *Host) Fail(msgType string, err error) {
	h.mu.Lock()
	h.errs[msgType] = err
	h.mu.Unlock()
}

// Calls returns the recorded requests in arrival order.
func (h *Host) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Call(nil), h.calls...)
}

// LastCall returns the most recent request of msgType.
func (h *Host) LastCall(msgType string) (Call, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.calls) - 1; i >= 0; i-- {
		if h.calls[i].Type == msgType {
			return h.calls[i], true
		}
	}
	return Call{}, false
}

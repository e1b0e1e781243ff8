// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package hostapi

// Message types understood by the host.
const (
	MsgCopyText               = "copyText"
	MsgCopyImage              = "copyImage"
	MsgCopyFile               = "copyFile"
	MsgGetCopyFiles           = "getCopyFiles"
	MsgShowNotification       = "showNotification"
	MsgShellBeep              = "shellBeep"
	MsgShellOpenPath          = "shellOpenPath"
	MsgShellShowItemInFolder  = "shellShowItemInFolder"
	MsgShellOpenExternal      = "shellOpenExternal"
	MsgSimulateKeyboardTap    = "simulateKeyboardTap"
	MsgHideMainWindow         = "hideMainWindow"
	MsgShowMainWindow         = "showMainWindow"
	MsgShowOpenDialog         = "showOpenDialog"
	MsgShowSaveDialog         = "showSaveDialog"
	MsgSetExpendHeight        = "setExpendHeight"
	MsgSetSubInput            = "setSubInput"
	MsgRemoveSubInput         = "removeSubInput"
	MsgSetSubInputValue       = "setSubInputValue"
	MsgSubInputBlur           = "subInputBlur"
	MsgGetCursorScreenPoint   = "getCursorScreenPoint"
	MsgGetDisplayNearestPoint = "getDisplayNearestPoint"
	MsgScreenCapture          = "screenCapture"
	MsgIsDarkColors           = "isDarkColors"
	MsgGetPath                = "getPath"
	MsgGetFileIcon            = "getFileIcon"
	MsgGetLocalID             = "getLocalId"
	MsgGetFeatures            = "getFeatures"
	MsgSetFeature             = "setFeature"
	MsgRemoveFeature          = "removeFeature"
	MsgRedirect               = "redirect"
	MsgOutPlugin              = "outPlugin"
	MsgCreateBrowserWindow    = "createBrowserWindow"
	MsgRemovePlugin           = "removePlugin"

	MsgDBPut               = "dbPut"
	MsgDBGet               = "dbGet"
	MsgDBRemove            = "dbRemove"
	MsgDBBulkDocs          = "dbBulkDocs"
	MsgDBAllDocs           = "dbAllDocs"
	MsgDBPostAttachment    = "dbPostAttachment"
	MsgDBGetAttachment     = "dbGetAttachment"
	MsgDBGetAttachmentType = "dbGetAttachmentType"

	MsgInstallPlugin       = "installPlugin"
	MsgUninstallPlugin     = "uninstallPlugin"
	MsgTogglePlugin        = "togglePlugin"
	MsgGetInstalledPlugins = "getInstalledPlugins"
)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package plugin

// Error codes attached to oops errors raised by the plugin subsystem.
const (
	CodeConfigurationInvalid = "CONFIGURATION_INVALID"
	CodeExternalToolFailed   = "EXTERNAL_TOOL_FAILED"
	CodeArchiveInvalid       = "ARCHIVE_INVALID"
	CodeManifestInvalid      = "MANIFEST_INVALID"
	CodeRegistryLookupFailed = "REGISTRY_LOOKUP_FAILED"
	CodeLayoutIO             = "LAYOUT_IO_FAILED"
)

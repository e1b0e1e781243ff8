// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

// Package plugin defines the on-disk plugin layout shared by the package
// installer and the archive converter: manifests, the install root, and the
// lock that serializes writers of that root.
package plugin

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/samber/oops"
	"github.com/tidwall/gjson"
)

// Type tags where an installed plugin came from.
type Type string

// Plugin origins. The converted tag keeps the value older installs wrote.
const (
	TypeNative    Type = "native"
	TypeConverted Type = "utools"
)

// File names used inside a plugin directory.
const (
	ManifestFile        = "package.json"
	ForeignManifestFile = "plugin.json"
	DefaultPreload      = "preload.js"
)

// Feature is one invocable plugin capability.
type Feature struct {
	Code    string       `json:"code"`
	Explain string       `json:"explain"`
	Cmds    []FeatureCmd `json:"cmds"`
}

// FeatureCmd is one trigger of a native feature: a plain keyword, or a
// matcher object such as {"type":"regex","label":...,"match":...} that is
// kept verbatim so it survives a read and write.
type FeatureCmd struct {
	Label   string
	Matcher json.RawMessage
}

// Keyword returns a plain keyword trigger.
func Keyword(label string) FeatureCmd {
	return FeatureCmd{Label: label}
}

// IsMatcher reports whether the trigger is a matcher object.
func (c FeatureCmd) IsMatcher() bool {
	return len(c.Matcher) > 0
}

// MarshalJSON writes keywords as strings and matchers unchanged.
func (c FeatureCmd) MarshalJSON() ([]byte, error) {
	if c.IsMatcher() {
		return c.Matcher, nil
	}
	return json.Marshal(c.Label)
}

// UnmarshalJSON accepts any JSON value. Strings become keywords; everything
// else is kept as a matcher, labelled by its "label" member when present.
func (c *FeatureCmd) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	if r.Type == gjson.String {
		*c = Keyword(r.String())
		return nil
	}
	*c = FeatureCmd{
		Label:   r.Get("label").String(),
		Matcher: json.RawMessage(bytes.Clone(data)),
	}
	return nil
}

// Manifest is the native plugin descriptor persisted as package.json.
type Manifest struct {
	Name        string    `json:"name"`
	PluginName  string    `json:"pluginName,omitempty"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
	Author      string    `json:"author,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	Main        string    `json:"main,omitempty"`
	Preload     string    `json:"preload,omitempty"`
	Features    []Feature `json:"features"`
	Type        Type      `json:"type,omitempty"`
	ConvertTime string    `json:"convertTime,omitempty"`
	Disabled    bool      `json:"disabled,omitempty"`
}

// ErrManifestEmpty is returned for zero-length manifest input.
var ErrManifestEmpty = errors.New("manifest data is empty")

// ParseManifest decodes a native manifest. It does not apply the foreign
// validation rules; native manifests are whatever the package manager wrote.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, oops.Code(CodeManifestInvalid).Wrap(ErrManifestEmpty)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, oops.Code(CodeManifestInvalid).Hint("invalid JSON").Wrap(err)
	}
	return &m, nil
}

// PluginType reports the origin tag, treating an untagged manifest as native.
func (m *Manifest) PluginType() Type {
	if m.Type == "" {
		return TypeNative
	}
	return m.Type
}

// IsConverted reports whether the plugin was produced by the archive converter.
func (m *Manifest) IsConverted() bool {
	return m.PluginType() == TypeConverted
}

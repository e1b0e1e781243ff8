// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	"github.com/tidwall/gjson"
)

// DefaultAuthor is stamped on converted manifests that name no author.
const DefaultAuthor = "Unknown"

// Foreign manifest validation errors.
var (
	ErrMissingField     = errors.New("required manifest field missing")
	ErrInvalidName      = errors.New("plugin name is not a valid directory name")
	ErrDuplicateFeature = errors.New("duplicate feature code")
	ErrInvalidCmd       = errors.New("feature cmd must be a string or an object with a label")
)

// requiredForeignFields must be present in every foreign plugin.json.
var requiredForeignFields = []string{"name", "version", "description", "features"}

// Cmd is one trigger keyword of a foreign feature. Foreign manifests allow
// matcher objects next to plain strings; those are reduced to their label.
type Cmd string

// UnmarshalJSON accepts a string or an object with a "label" member.
func (c *Cmd) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	switch {
	case r.Type == gjson.String:
		*c = Cmd(r.String())
	case r.IsObject() && r.Get("label").Type == gjson.String:
		*c = Cmd(r.Get("label").String())
	default:
		return fmt.Errorf("%w: %s", ErrInvalidCmd, r.Raw)
	}
	return nil
}

// JSONSchema describes the accepted cmd shapes for the schema reflector.
func (Cmd) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		AnyOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "object", Required: []string{"label"}},
		},
	}
}

// ForeignFeature is a feature as declared by a foreign plugin.json.
type ForeignFeature struct {
	Code    string `json:"code" jsonschema:"minLength=1"`
	Explain string `json:"explain"`
	Cmds    []Cmd  `json:"cmds,omitempty"`
}

// ForeignManifest is the plugin.json shipped inside a foreign archive.
type ForeignManifest struct {
	Name        string           `json:"name" jsonschema:"minLength=1"`
	PluginName  string           `json:"pluginName,omitempty"`
	Version     string           `json:"version" jsonschema:"minLength=1"`
	Description string           `json:"description"`
	Author      string           `json:"author,omitempty"`
	Logo        string           `json:"logo,omitempty"`
	Main        string           `json:"main,omitempty"`
	Features    []ForeignFeature `json:"features"`
}

// ParseForeignManifest parses and validates a foreign plugin.json. Missing
// required fields are reported before schema validation so the error names
// the field.
func ParseForeignManifest(data []byte) (*ForeignManifest, error) {
	if len(data) == 0 {
		return nil, oops.Code(CodeManifestInvalid).Wrap(ErrManifestEmpty)
	}
	if !gjson.ValidBytes(data) {
		return nil, oops.Code(CodeManifestInvalid).Errorf("plugin.json is not valid JSON")
	}

	for _, field := range requiredForeignFields {
		if !gjson.GetBytes(data, field).Exists() {
			return nil, oops.Code(CodeManifestInvalid).
				With("field", field).
				Wrapf(ErrMissingField, "plugin.json %q", field)
		}
	}

	if err := ValidateForeignSchema(data); err != nil {
		return nil, oops.Code(CodeManifestInvalid).Hint(FormatSchemaError(err)).Wrap(err)
	}

	var m ForeignManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, oops.Code(CodeManifestInvalid).Hint("invalid plugin.json").Wrap(err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the constraints the schema cannot express.
func (m *ForeignManifest) Validate() error {
	if err := ValidateName(m.Name); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(m.Features))
	for _, f := range m.Features {
		if _, dup := seen[f.Code]; dup {
			return oops.Code(CodeManifestInvalid).
				With("plugin", m.Name).
				With("feature", f.Code).
				Wrap(ErrDuplicateFeature)
		}
		seen[f.Code] = struct{}{}
	}
	return nil
}

// ValidateName rejects names that cannot be used as a single directory
// below node_modules.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || !filepath.IsLocal(name) {
		return oops.Code(CodeManifestInvalid).With("plugin", name).Wrap(ErrInvalidName)
	}
	return nil
}

// ToNative maps the foreign manifest onto the native schema, tagging it as
// converted at the given time.
func (m *ForeignManifest) ToNative(now time.Time) *Manifest {
	author := m.Author
	if author == "" {
		author = DefaultAuthor
	}

	features := make([]Feature, 0, len(m.Features))
	for _, f := range m.Features {
		cmds := make([]FeatureCmd, 0, len(f.Cmds))
		for _, c := range f.Cmds {
			cmds = append(cmds, Keyword(string(c)))
		}
		features = append(features, Feature{Code: f.Code, Explain: f.Explain, Cmds: cmds})
	}

	return &Manifest{
		Name:        m.Name,
		PluginName:  m.PluginName,
		Version:     m.Version,
		Description: m.Description,
		Author:      author,
		Logo:        m.Logo,
		Main:        m.Main,
		Preload:     DefaultPreload,
		Features:    features,
		Type:        TypeConverted,
		ConvertTime: now.UTC().Format(time.RFC3339Nano),
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gclm/rubick/internal/plugin"
	"github.com/gclm/rubick/pkg/errutil"
)

func TestMatchNames(t *testing.T) {
	names := []string{"rubick-system-feature", "rubick-ui", "@acme/tool", "@acme/other", "demo"}

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"empty matches all", "", names},
		{"prefix", "rubick-*", []string{"rubick-system-feature", "rubick-ui"}},
		{"scope", "@acme/*", []string{"@acme/tool", "@acme/other"}},
		{"star does not cross scope", "*", []string{"rubick-system-feature", "rubick-ui", "demo"}},
		{"alternatives", "{demo,rubick-ui}", []string{"rubick-ui", "demo"}},
		{"no match", "nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := plugin.MatchNames(tt.pattern, names)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchNames_InvalidPattern(t *testing.T) {
	_, err := plugin.MatchNames("[", []string{"demo"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, plugin.CodeConfigurationInvalid)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package plugin

import (
	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// MatchNames returns the names matching a glob pattern, keeping input order.
// '/' is the segment separator, so "@acme/*" matches every package of a scope
// and '*' alone never crosses into a scope. An empty pattern matches all.
func MatchNames(pattern string, names []string) ([]string, error) {
	if pattern == "" {
		return names, nil
	}

	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, oops.Code(CodeConfigurationInvalid).With("pattern", pattern).Wrap(err)
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		if g.Match(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

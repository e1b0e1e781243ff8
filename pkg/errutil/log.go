// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package errutil

import (
	"log/slog"
	"maps"

	"github.com/samber/oops"
)

// promotedKeys are lifted out of the oops context into top-level log
// attributes so plugin failures can be filtered without parsing context.
var promotedKeys = []string{"plugin", "operation", "path"}

// LogError logs err at error level. Oops errors contribute their code, the
// promoted context keys as attributes, and the remaining context as a group.
func LogError(logger *slog.Logger, msg string, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		logger.Error(msg, "error", err)
		return
	}

	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil {
		attrs = append(attrs, "code", code)
	}

	rest := maps.Clone(oopsErr.Context())
	for _, key := range promotedKeys {
		if v, ok := rest[key]; ok {
			attrs = append(attrs, key, v)
			delete(rest, key)
		}
	}
	if len(rest) > 0 {
		attrs = append(attrs, "context", rest)
	}
	logger.Error(msg, attrs...)
}

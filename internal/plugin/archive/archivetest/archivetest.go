// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

// Package archivetest builds foreign plugin packages for tests.
package archivetest

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gclm/rubick/internal/plugin/archive"
)

// DemoManifest is a minimal valid foreign plugin.json.
const DemoManifest = `{"name":"demo","version":"1.0.0","description":"d","features":[{"code":"c1","explain":"e","cmds":["c"]}]}`

// Asar packs files (path to content) into an asar container.
func Asar(t testing.TB, files map[string]string) []byte {
	t.Helper()

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	list := make([]archive.File, 0, len(paths))
	for _, p := range paths {
		list = append(list, archive.File{Path: p, Data: []byte(files[p])})
	}

	var buf bytes.Buffer
	require.NoError(t, archive.Pack(&buf, list))
	return buf.Bytes()
}

// Upx returns files packed into an asar container and gzipped, the shape of
// a foreign plugin package.
func Upx(t testing.TB, files map[string]string) []byte {
	t.Helper()

	var out bytes.Buffer
	require.NoError(t, archive.Compress(&out, bytes.NewReader(Asar(t, files))))
	return out.Bytes()
}

// Gzip compresses raw bytes.
func Gzip(t testing.TB, data []byte) []byte {
	t.Helper()

	var out bytes.Buffer
	require.NoError(t, archive.Compress(&out, bytes.NewReader(data)))
	return out.Bytes()
}

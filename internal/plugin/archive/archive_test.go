// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package archive_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gclm/rubick/internal/plugin"
	"github.com/gclm/rubick/internal/plugin/archive"
	"github.com/gclm/rubick/internal/plugin/archive/archivetest"
	"github.com/gclm/rubick/pkg/errutil"
)

// rawAsar builds a container around an arbitrary JSON header and data blob.
func rawAsar(header string, data []byte) []byte {
	padded := (len(header) + 3) &^ 3
	var buf bytes.Buffer
	for _, v := range []uint32{4, uint32(8 + padded), uint32(4 + padded), uint32(len(header))} {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.WriteString(header)
	buf.Write(make([]byte, padded-len(header)))
	buf.Write(data)
	return buf.Bytes()
}

func TestOpen_ListsEntries(t *testing.T) {
	data := archivetest.Asar(t, map[string]string{
		"plugin.json":    `{}`,
		"index.html":     "<html></html>",
		"assets/app.js":  "console.log(1)",
		"assets/a/b.css": "body{}",
	})

	c, err := archive.Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var paths []string
	for _, e := range c.Entries() {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"assets", "assets/a", "assets/a/b.css", "assets/app.js", "index.html", "plugin.json"}, paths)

	for _, e := range c.Entries() {
		if e.Path == "assets/app.js" {
			content, err := c.ReadFile(e)
			require.NoError(t, err)
			assert.Equal(t, "console.log(1)", string(content))
		}
	}
}

func TestExtract_WritesTree(t *testing.T) {
	data := archivetest.Asar(t, map[string]string{
		"plugin.json":   archivetest.DemoManifest,
		"index.html":    "<html></html>",
		"assets/app.js": "console.log(1)",
	})
	dir := t.TempDir()

	c, err := archive.Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.NoError(t, c.Extract(dir, 0))

	got, err := os.ReadFile(filepath.Join(dir, "assets", "app.js"))
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", string(got))

	got, err = os.ReadFile(filepath.Join(dir, "plugin.json"))
	require.NoError(t, err)
	assert.JSONEq(t, archivetest.DemoManifest, string(got))
}

func TestExtract_RejectsEscapingEntries(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"parent dir", `{"files":{"..":{"files":{"evil":{"size":1,"offset":"0"}}}}}`},
		{"slash in name", `{"files":{"a/../../evil":{"size":1,"offset":"0"}}}`},
		{"backslash in name", `{"files":{"..\\evil":{"size":1,"offset":"0"}}}`},
		{"empty name", `{"files":{"":{"size":1,"offset":"0"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := rawAsar(tt.header, []byte("x"))
			_, err := archive.Open(bytes.NewReader(data), int64(len(data)))
			require.Error(t, err)
			assert.ErrorIs(t, err, archive.ErrEntryEscapes)
			errutil.AssertErrorCode(t, err, plugin.CodeArchiveInvalid)
		})
	}
}

func TestExtract_RejectsLinks(t *testing.T) {
	data := rawAsar(`{"files":{"link":{"link":"/etc/passwd"}}}`, nil)
	c, err := archive.Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	err = c.Extract(t.TempDir(), 0)
	assert.ErrorIs(t, err, archive.ErrUnsupportedEntry)
}

func TestExtract_SkipsUnpackedEntries(t *testing.T) {
	data := rawAsar(`{"files":{"native.node":{"size":100,"unpacked":true},"a.txt":{"size":1,"offset":"0"}}}`, []byte("a"))
	dir := t.TempDir()

	c, err := archive.Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.NoError(t, c.Extract(dir, 0))

	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "native.node"))
}

func TestExtract_EnforcesSizeLimit(t *testing.T) {
	data := archivetest.Asar(t, map[string]string{
		"a.txt": strings.Repeat("a", 64),
		"b.txt": strings.Repeat("b", 64),
	})

	c, err := archive.Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	err = c.Extract(t.TempDir(), 100)
	assert.ErrorIs(t, err, archive.ErrTooLarge)
}

func TestOpen_MalformedHeaders(t *testing.T) {
	valid := archivetest.Asar(t, map[string]string{"a.txt": "a"})

	wrongPickle := bytes.Clone(valid)
	binary.LittleEndian.PutUint32(wrongPickle[0:4], 5)

	hugeHeader := bytes.Clone(valid)
	binary.LittleEndian.PutUint32(hugeHeader[4:8], 1<<30)

	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte{4, 0, 0}},
		{"wrong size pickle", wrongPickle},
		{"header larger than file", hugeHeader},
		{"header not JSON", rawAsar(`not json`, nil)},
		{"no files member", rawAsar(`{"other":1}`, nil)},
		{"offset not numeric", rawAsar(`{"files":{"a":{"size":1,"offset":"x"}}}`, []byte("a"))},
		{"data out of range", rawAsar(`{"files":{"a":{"size":10,"offset":"0"}}}`, []byte("a"))},
		{"null entry", rawAsar(`{"files":{"a":null}}`, nil)},
		{"offset overflows", rawAsar(`{"files":{"a":{"size":1,"offset":"9223372036854775807"}}}`, []byte("a"))},
		{"size overflows", rawAsar(`{"files":{"a":{"size":9223372036854775800,"offset":"0"}}}`, []byte("a"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := archive.Open(bytes.NewReader(tt.data), int64(len(tt.data)))
			require.Error(t, err)
			assert.ErrorIs(t, err, archive.ErrHeader)
		})
	}
}

func TestReadFile_RejectsOutOfRangeEntry(t *testing.T) {
	data := archivetest.Asar(t, map[string]string{"a.txt": "a"})
	c, err := archive.Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = c.ReadFile(archive.Entry{Path: "a.txt", Offset: 0, Size: math.MaxInt64})
	require.Error(t, err)
	assert.ErrorIs(t, err, archive.ErrHeader)
}

func TestDecompress(t *testing.T) {
	payload := []byte(strings.Repeat("rubick", 100))
	compressed := archivetest.Gzip(t, payload)

	var out bytes.Buffer
	n, err := archive.Decompress(&out, bytes.NewReader(compressed), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, out.Bytes())
}

func TestDecompress_NotGzip(t *testing.T) {
	_, err := archive.Decompress(&bytes.Buffer{}, strings.NewReader("plain text"), 0)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, plugin.CodeArchiveInvalid)
}

func TestDecompress_Bomb(t *testing.T) {
	compressed := archivetest.Gzip(t, make([]byte, 1<<20))

	_, err := archive.Decompress(&bytes.Buffer{}, bytes.NewReader(compressed), 1024)
	assert.ErrorIs(t, err, archive.ErrTooLarge)
}

func TestDecompressFileAndExtractFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.upx")
	mid := filepath.Join(dir, "in.asar")
	out := filepath.Join(dir, "out")

	upx := archivetest.Upx(t, map[string]string{"plugin.json": archivetest.DemoManifest})
	require.NoError(t, os.WriteFile(src, upx, 0o600))

	require.NoError(t, archive.DecompressFile(src, mid, archive.DefaultMaxSize))
	require.NoError(t, archive.ExtractFile(mid, out, archive.DefaultMaxSize))

	assert.FileExists(t, filepath.Join(out, "plugin.json"))
}

func TestDecompressFile_RefusesExistingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.upx")
	dst := filepath.Join(dir, "out.asar")
	require.NoError(t, os.WriteFile(src, archivetest.Gzip(t, []byte("x")), 0o600))
	require.NoError(t, os.WriteFile(dst, []byte("existing"), 0o600))

	require.Error(t, archive.DecompressFile(src, dst, 0))
}

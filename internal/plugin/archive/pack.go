// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package archive

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// File is one file to pack. Path uses '/' separators.
type File struct {
	Path string
	Data []byte
}

// Pack writes files as an asar container to w. Intermediate directories are
// created from the paths.
func Pack(w io.Writer, files []File) error {
	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	root := &node{Files: map[string]*node{}}
	var offset int64
	for _, f := range sorted {
		parts := strings.Split(strings.Trim(f.Path, "/"), "/")
		dir := root
		for _, p := range parts[:len(parts)-1] {
			next, ok := dir.Files[p]
			if !ok {
				next = &node{Files: map[string]*node{}}
				dir.Files[p] = next
			}
			dir = next
		}
		dir.Files[parts[len(parts)-1]] = &node{
			Size:   int64(len(f.Data)),
			Offset: strconv.FormatInt(offset, 10),
		}
		offset += int64(len(f.Data))
	}

	header, err := json.Marshal(root)
	if err != nil {
		return oops.With("operation", "pack asar").Wrap(err)
	}

	padded := (len(header) + 3) &^ 3
	payload := 4 + padded
	headerPickle := 4 + payload

	var buf bytes.Buffer
	for _, v := range []uint32{4, uint32(headerPickle), uint32(payload), uint32(len(header))} { //nolint:gosec // header sizes are far below 4 GiB
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.Write(header)
	buf.Write(make([]byte, padded-len(header)))
	for _, f := range sorted {
		buf.Write(f.Data)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return oops.With("operation", "pack asar").Wrap(err)
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

// Package archive unpacks foreign plugin packages: a gzip stream wrapping an
// asar container.
//
// An asar container is laid out as
//
//	uint32 LE  size of the size pickle (always 4)
//	uint32 LE  size of the header pickle
//	header pickle: uint32 payload size, uint32 JSON length, JSON, padding to 4
//	file data, starting at 8 + header pickle size
//
// The JSON header is a tree of {"files": {name: entry}} where a file entry
// carries "size" and a string "offset" relative to the start of file data.
package archive

import (
	"errors"
)

// DefaultMaxSize bounds the bytes written by Decompress and Extract.
const DefaultMaxSize int64 = 256 << 20

// maxHeaderSize bounds the header pickle so a corrupt length cannot make us
// allocate arbitrary memory.
const maxHeaderSize = 16 << 20

var (
	// ErrHeader is returned when the container header cannot be decoded.
	ErrHeader = errors.New("asar header is malformed")
	// ErrEntryEscapes is returned for entries whose path leaves the target directory.
	ErrEntryEscapes = errors.New("archive entry escapes the extraction directory")
	// ErrTooLarge is returned when content exceeds the configured size limit.
	ErrTooLarge = errors.New("archive content exceeds the size limit")
	// ErrUnsupportedEntry is returned for symlink entries.
	ErrUnsupportedEntry = errors.New("archive entry type is not supported")
)

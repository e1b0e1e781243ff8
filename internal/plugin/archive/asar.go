// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package archive

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/oops"

	"github.com/gclm/rubick/internal/plugin"
)

// Entry is one file or directory inside a container.
type Entry struct {
	// Path uses '/' separators and is relative to the container root.
	Path       string
	Dir        bool
	Size       int64
	Offset     int64
	Executable bool
	// Unpacked files live next to the container, not inside it.
	Unpacked bool
	Link     string
}

// node mirrors one element of the JSON header.
type node struct {
	Files      map[string]*node `json:"files,omitempty"`
	Size       int64            `json:"size,omitempty"`
	Offset     string           `json:"offset,omitempty"`
	Unpacked   bool             `json:"unpacked,omitempty"`
	Executable bool             `json:"executable,omitempty"`
	Link       string           `json:"link,omitempty"`
}

// Container is an opened asar container.
type Container struct {
	r          io.ReaderAt
	size       int64
	dataOffset int64
	entries    []Entry
}

// Open decodes the header of a container of the given total size.
func Open(r io.ReaderAt, size int64) (*Container, error) {
	errb := oops.Code(plugin.CodeArchiveInvalid).With("operation", "read asar header")

	var prefix [8]byte
	if _, err := r.ReadAt(prefix[:], 0); err != nil {
		return nil, errb.Wrapf(ErrHeader, "short read: %v", err)
	}
	if binary.LittleEndian.Uint32(prefix[0:4]) != 4 {
		return nil, errb.Wrapf(ErrHeader, "unexpected size pickle length")
	}
	headerSize := int64(binary.LittleEndian.Uint32(prefix[4:8]))
	if headerSize < 8 || headerSize > maxHeaderSize || 8+headerSize > size {
		return nil, errb.With("header_size", headerSize).Wrapf(ErrHeader, "header size out of range")
	}

	header := make([]byte, headerSize)
	if _, err := r.ReadAt(header, 8); err != nil {
		return nil, errb.Wrapf(ErrHeader, "short header read: %v", err)
	}
	payload := int64(binary.LittleEndian.Uint32(header[0:4]))
	jsonLen := int64(binary.LittleEndian.Uint32(header[4:8]))
	if payload+4 > headerSize || jsonLen+4 > payload {
		return nil, errb.Wrapf(ErrHeader, "header pickle lengths are inconsistent")
	}

	var root node
	if err := json.Unmarshal(header[8:8+jsonLen], &root); err != nil {
		return nil, errb.Wrapf(ErrHeader, "header JSON: %v", err)
	}
	if root.Files == nil {
		return nil, errb.Wrapf(ErrHeader, "header has no files")
	}

	c := &Container{r: r, size: size, dataOffset: 8 + headerSize}
	if err := c.walk("", &root); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) walk(prefix string, n *node) error {
	names := make([]string, 0, len(n.Files))
	for name := range n.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			return oops.Code(plugin.CodeArchiveInvalid).With("entry", path.Join(prefix, name)).Wrap(ErrEntryEscapes)
		}
		child := n.Files[name]
		if child == nil {
			return oops.Code(plugin.CodeArchiveInvalid).With("entry", name).Wrapf(ErrHeader, "null entry")
		}
		p := path.Join(prefix, name)

		if child.Files != nil {
			c.entries = append(c.entries, Entry{Path: p, Dir: true})
			if err := c.walk(p, child); err != nil {
				return err
			}
			continue
		}

		e := Entry{
			Path:       p,
			Size:       child.Size,
			Executable: child.Executable,
			Unpacked:   child.Unpacked,
			Link:       child.Link,
		}
		if e.Link == "" && !e.Unpacked {
			off, err := strconv.ParseInt(child.Offset, 10, 64)
			if err != nil || !c.inRange(off, e.Size) {
				return oops.Code(plugin.CodeArchiveInvalid).
					With("entry", p).
					With("offset", child.Offset).
					Wrapf(ErrHeader, "entry data out of range")
			}
			e.Offset = off
		}
		c.entries = append(c.entries, e)
	}
	return nil
}

// inRange reports whether size bytes at off fit in the data section. The
// comparison is written so hostile header values cannot overflow.
func (c *Container) inRange(off, size int64) bool {
	avail := c.size - c.dataOffset
	return off >= 0 && size >= 0 && off <= avail && size <= avail-off
}

// Entries returns every entry in header order, directories before their
// children.
func (c *Container) Entries() []Entry {
	return c.entries
}

// ReadFile returns the content of a packed file entry.
func (c *Container) ReadFile(e Entry) ([]byte, error) {
	if e.Dir || e.Unpacked || e.Link != "" {
		return nil, oops.Code(plugin.CodeArchiveInvalid).With("entry", e.Path).Wrap(ErrUnsupportedEntry)
	}
	if !c.inRange(e.Offset, e.Size) {
		return nil, oops.Code(plugin.CodeArchiveInvalid).With("entry", e.Path).Wrapf(ErrHeader, "entry data out of range")
	}
	buf := make([]byte, e.Size)
	if _, err := c.r.ReadAt(buf, c.dataOffset+e.Offset); err != nil && !errors.Is(err, io.EOF) {
		return nil, oops.Code(plugin.CodeArchiveInvalid).With("entry", e.Path).Wrap(err)
	}
	return buf, nil
}

// Extract writes every packed entry below dir. Entries that would land outside
// dir, links, and content beyond maxSize bytes fail the extraction. Unpacked
// entries have no data in the container and are skipped.
func (c *Container) Extract(dir string, maxSize int64) error {
	var total int64
	for _, e := range c.entries {
		if e.Link != "" {
			return oops.Code(plugin.CodeArchiveInvalid).With("entry", e.Path).With("link", e.Link).Wrap(ErrUnsupportedEntry)
		}
		if !filepath.IsLocal(filepath.FromSlash(e.Path)) {
			return oops.Code(plugin.CodeArchiveInvalid).With("entry", e.Path).Wrap(ErrEntryEscapes)
		}
		target := filepath.Join(dir, filepath.FromSlash(e.Path))

		if e.Dir {
			if err := os.MkdirAll(target, 0o750); err != nil {
				return oops.Code(plugin.CodeArchiveInvalid).With("path", target).Wrap(err)
			}
			continue
		}
		if e.Unpacked {
			continue
		}

		total += e.Size
		if maxSize > 0 && total > maxSize {
			return oops.Code(plugin.CodeArchiveInvalid).With("limit", maxSize).Wrap(ErrTooLarge)
		}
		if err := c.extractFile(e, target); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) extractFile(e Entry, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return oops.Code(plugin.CodeArchiveInvalid).With("path", target).Wrap(err)
	}

	mode := os.FileMode(0o644)
	if e.Executable {
		mode = 0o755
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, mode) //nolint:gosec // target is checked to be local to dir
	if err != nil {
		return oops.Code(plugin.CodeArchiveInvalid).With("path", target).Wrap(err)
	}

	section := io.NewSectionReader(c.r, c.dataOffset+e.Offset, e.Size)
	if _, err := io.Copy(f, section); err != nil {
		_ = f.Close()
		return oops.Code(plugin.CodeArchiveInvalid).With("path", target).Wrap(err)
	}
	if err := f.Close(); err != nil {
		return oops.Code(plugin.CodeArchiveInvalid).With("path", target).Wrap(err)
	}
	return nil
}

// ExtractFile opens the container at src and extracts it into dir.
func ExtractFile(src, dir string, maxSize int64) error {
	f, err := os.Open(src) //nolint:gosec // src is a temp file we created
	if err != nil {
		return oops.Code(plugin.CodeArchiveInvalid).With("path", src).Wrap(err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return oops.Code(plugin.CodeArchiveInvalid).With("path", src).Wrap(err)
	}

	c, err := Open(f, info.Size())
	if err != nil {
		return oops.With("path", src).Wrap(err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return oops.Code(plugin.CodeArchiveInvalid).With("path", dir).Wrap(err)
	}
	return c.Extract(dir, maxSize)
}

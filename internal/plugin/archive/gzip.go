// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package archive

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/samber/oops"

	"github.com/gclm/rubick/internal/plugin"
)

// Decompress gunzips src into dst, failing once more than maxSize bytes
// would be written. A maxSize of zero disables the limit.
func Decompress(dst io.Writer, src io.Reader, maxSize int64) (int64, error) {
	zr, err := gzip.NewReader(src)
	if err != nil {
		return 0, oops.Code(plugin.CodeArchiveInvalid).With("operation", "gunzip").Wrap(err)
	}
	defer func() { _ = zr.Close() }()

	var r io.Reader = zr
	if maxSize > 0 {
		r = io.LimitReader(zr, maxSize+1)
	}

	n, err := io.Copy(dst, r)
	if err != nil {
		return n, oops.Code(plugin.CodeArchiveInvalid).With("operation", "gunzip").Wrap(err)
	}
	if maxSize > 0 && n > maxSize {
		return n, oops.Code(plugin.CodeArchiveInvalid).With("limit", maxSize).Wrap(ErrTooLarge)
	}
	return n, nil
}

// DecompressFile gunzips the file at src into a new file at dst.
func DecompressFile(src, dst string, maxSize int64) error {
	in, err := os.Open(src) //nolint:gosec // src is a temp file we created
	if err != nil {
		return oops.Code(plugin.CodeArchiveInvalid).With("path", src).Wrap(err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600) //nolint:gosec // dst is a temp path we chose
	if err != nil {
		return oops.Code(plugin.CodeArchiveInvalid).With("path", dst).Wrap(err)
	}

	if _, err := Decompress(out, in, maxSize); err != nil {
		_ = out.Close()
		return oops.With("path", src).Wrap(err)
	}
	if err := out.Close(); err != nil {
		return oops.Code(plugin.CodeArchiveInvalid).With("path", dst).Wrap(err)
	}
	return nil
}

// Compress gzips src into dst at the default level.
func Compress(dst io.Writer, src io.Reader) error {
	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		_ = zw.Close()
		return oops.With("operation", "gzip").Wrap(err)
	}
	return oops.With("operation", "gzip").Wrap(zw.Close())
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package convert

import (
	"errors"

	"github.com/gclm/rubick/internal/plugin"
)

// ErrArchive matches every conversion failure.
var ErrArchive = errors.New("foreign package conversion failed")

// Stages of the conversion pipeline, reported in errors.
const (
	StageWrite      = "write"
	StageDecompress = "decompress"
	StageExtract    = "extract"
	StageRead       = "read"
	StageManifest   = "manifest"
	StageInstall    = "install"
)

// Error is a conversion failure at one pipeline stage.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return "convert " + e.Stage + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports every conversion Error as ErrArchive.
func (e *Error) Is(target error) bool {
	return target == ErrArchive
}

func stageError(stage string, err error) error {
	return &Error{Stage: stage, Err: err}
}

// Response is the value handed back across the host boundary.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of one conversion.
type Result = Response[*plugin.Manifest]

func ok[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data}
}

func failed[T any](err error) Response[T] {
	return Response[T]{Error: err.Error()}
}

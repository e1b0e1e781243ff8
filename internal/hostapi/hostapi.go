// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

// Package hostapi is the plugin-facing side of the host launcher API.
//
// Privileged operations (clipboard, shell, window, storage, notifications)
// are requested over a Channel as {type, data} messages. Most calls are
// synchronous request/response; a few are fire-and-forget. Client maps the
// typed Native surface onto those messages and Mux is an in-process Channel
// that dispatches them to registered handlers.
package hostapi

import (
	"context"
	"encoding/json"
	"errors"
)

// Error codes for host API failures.
const (
	CodeHostCallFailed       = "HOST_CALL_FAILED"
	CodeNoHandler            = "NO_HANDLER"
	CodeStoreOperationFailed = "STORE_OPERATION_FAILED"
)

var (
	// ErrNoHandler is returned when no handler is bound to a message type.
	ErrNoHandler = errors.New("no handler for message type")
	// ErrNotFound is returned by stores for a missing document or attachment.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a mutation carries a stale revision.
	ErrConflict = errors.New("document update conflict")
)

// Request is one message sent to the host.
type Request struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Channel carries requests to the host.
type Channel interface {
	// SendSync blocks until the host answers. A handler failure on the host
	// side is returned as the error.
	SendSync(ctx context.Context, req Request) (json.RawMessage, error)
	// Send delivers the request without waiting for or observing a result.
	Send(req Request)
}

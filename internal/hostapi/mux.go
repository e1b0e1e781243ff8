// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package hostapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/samber/oops"
)

// HandlerFunc serves one message type. The returned value is JSON-encoded
// as the response.
type HandlerFunc func(ctx context.Context, data json.RawMessage) (any, error)

// Mux is an in-process Channel that dispatches requests by type.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

var _ Channel = (*Mux)(nil)

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{handlers: make(map[string]HandlerFunc)}
}

// Handle binds h to a message type, replacing any previous handler.
func (m *Mux) Handle(msgType string, h HandlerFunc) {
	m.mu.Lock()
	m.handlers[msgType] = h
	m.mu.Unlock()
}

// HandleFunc binds a typed handler: the request data is decoded into T.
func HandleFunc[T, R any](m *Mux, msgType string, fn func(ctx context.Context, in T) (R, error)) {
	m.Handle(msgType, func(ctx context.Context, data json.RawMessage) (any, error) {
		var in T
		if len(data) > 0 && string(data) != "null" {
			if err := json.Unmarshal(data, &in); err != nil {
				return nil, oops.Code(CodeHostCallFailed).
					With("operation", msgType).
					Hint("decode request data").
					Wrap(err)
			}
		}
		return fn(ctx, in)
	})
}

// Types returns the bound message types.
func (m *Mux) Types() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	types := make([]string, 0, len(m.handlers))
	for t := range m.handlers {
		types = append(types, t)
	}
	return types
}

// SendSync runs the handler for req and returns its encoded result.
func (m *Mux) SendSync(ctx context.Context, req Request) (json.RawMessage, error) {
	m.mu.RLock()
	h, ok := m.handlers[req.Type]
	m.mu.RUnlock()
	if !ok {
		return nil, oops.Code(CodeNoHandler).With("operation", req.Type).Wrap(ErrNoHandler)
	}

	data, err := json.Marshal(req.Data)
	if err != nil {
		return nil, oops.Code(CodeHostCallFailed).With("operation", req.Type).Wrap(err)
	}

	result, err := h(ctx, data)
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, oops.Code(CodeHostCallFailed).With("operation", req.Type).Hint("encode response").Wrap(err)
	}
	return out, nil
}

// Send runs the handler for req and discards the outcome.
func (m *Mux) Send(req Request) {
	if _, err := m.SendSync(context.Background(), req); err != nil {
		slog.Debug("fire-and-forget request failed",
			"operation", req.Type,
			"error", err)
	}
}

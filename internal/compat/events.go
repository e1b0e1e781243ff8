// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package compat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Event names a plugin callback slot.
type Event string

// Events a foreign plugin can subscribe to.
const (
	EventPluginEnter    Event = "onPluginEnter"
	EventPluginReady    Event = "onPluginReady"
	EventPluginOut      Event = "onPluginOut"
	EventSubInputChange Event = "subInputChange"
	EventScreenCapture  Event = "screenCapture"
)

// EnterAction is delivered when the user enters a plugin feature.
type EnterAction struct {
	Code    string `json:"code"`
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// SubInputChange is delivered when the sub input text changes.
type SubInputChange struct {
	Text string `json:"text"`
}

type handler func(ctx context.Context, payload any)

// subscriptions holds at most one handler per event; registering again
// replaces the previous handler.
type subscriptions struct {
	mu       sync.RWMutex
	handlers map[Event]handler
}

func newSubscriptions() *subscriptions {
	return &subscriptions{handlers: make(map[Event]handler)}
}

func (s *subscriptions) set(e Event, h handler) {
	s.mu.Lock()
	s.handlers[e] = h
	s.mu.Unlock()
}

func (s *subscriptions) clear(e Event) {
	s.mu.Lock()
	delete(s.handlers, e)
	s.mu.Unlock()
}

func (s *subscriptions) get(e Event) (handler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[e]
	return h, ok
}

// payloadHandler adapts a typed callback. Payloads of another type are
// converted through JSON; unconvertible payloads are dropped.
func payloadHandler[T any](fn func(ctx context.Context, v T)) handler {
	return func(ctx context.Context, payload any) {
		if v, ok := payload.(T); ok {
			fn(ctx, v)
			return
		}
		var v T
		data, err := json.Marshal(payload)
		if err == nil {
			err = json.Unmarshal(data, &v)
		}
		if err != nil {
			slog.Debug("dropping event payload", "error", err)
			return
		}
		fn(ctx, v)
	}
}

// OnPluginEnter registers the feature-enter callback. A nil cb is ignored.
func (f *Facade) OnPluginEnter(cb func(EnterAction)) {
	if cb == nil {
		return
	}
	f.events.set(EventPluginEnter, payloadHandler(func(_ context.Context, a EnterAction) { cb(a) }))
}

// OnPluginReady registers the plugin-loaded callback. A nil cb is ignored.
func (f *Facade) OnPluginReady(cb func()) {
	if cb == nil {
		return
	}
	f.events.set(EventPluginReady, func(context.Context, any) { cb() })
}

// OnPluginOut registers the plugin-exit callback. A nil cb is ignored.
func (f *Facade) OnPluginOut(cb func()) {
	if cb == nil {
		return
	}
	f.events.set(EventPluginOut, func(context.Context, any) { cb() })
}

// Emit delivers payload to the handler of e and reports whether one was
// registered. A panicking handler is logged and does not reach the caller.
func (f *Facade) Emit(ctx context.Context, e Event, payload any) bool {
	h, ok := f.events.get(e)
	if !ok {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("plugin event handler panicked",
				"event", string(e),
				"panic", r)
		}
	}()
	h(ctx, payload)
	return true
}

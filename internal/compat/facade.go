// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

// Package compat presents the foreign plugin SDK surface on top of the
// native host API.
//
// Side-effect calls are forwarded one to one. Storage goes through DB, which
// turns store failures into sentinel values: nil for reads and a Failure for
// writes. Plugin callbacks live in one subscription table per Facade.
package compat

import (
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/gclm/rubick/internal/hostapi"
	"github.com/gclm/rubick/internal/plugin"
)

var (
	// ErrNilNative is returned by New without a native API handle.
	ErrNilNative = errors.New("native host API is required")
	// ErrNilStore is returned by New without a document store.
	ErrNilStore = errors.New("document store is required")
)

// Facade is the foreign SDK object handed to a converted plugin. It is
// immutable after New.
type Facade struct {
	native hostapi.Native
	db     *DB
	events *subscriptions
	logger *slog.Logger
}

// Option configures a Facade.
type Option func(*Facade)

// WithLogger sets the logger for swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(f *Facade) { f.logger = l }
}

// New builds a Facade over native and store. Both are required.
func New(native hostapi.Native, store hostapi.DocumentStore, opts ...Option) (*Facade, error) {
	if native == nil {
		return nil, oops.Code(plugin.CodeConfigurationInvalid).Wrap(ErrNilNative)
	}
	if store == nil {
		return nil, oops.Code(plugin.CodeConfigurationInvalid).Wrap(ErrNilStore)
	}

	f := &Facade{
		native: native,
		events: newSubscriptions(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.db = newDB(store, f.logger)
	return f, nil
}

// DB returns the normalized document store.
func (f *Facade) DB() *DB {
	return f.db
}

// DBStorage returns the native key-value store unchanged.
func (f *Facade) DBStorage() hostapi.KeyValueStore {
	return f.native.DBStorage()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package compat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gclm/rubick/internal/hostapi"
)

// Failure marks a storage write that did not happen.
type Failure struct {
	Error   bool   `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Failed reports whether the value carries a failure.
func (f Failure) Failed() bool {
	return f.Error
}

// BulkResult is the outcome of BulkDocs.
type BulkResult struct {
	Results []hostapi.DocResult `json:"results,omitempty"`
	Failure
}

// AllDocsResult is the outcome of AllDocs.
type AllDocsResult struct {
	Docs []hostapi.Doc `json:"docs,omitempty"`
	Failure
}

// DB normalizes document store calls: writes never fail with an error but
// carry a Failure, reads return nil or "" when the store fails or misses.
type DB struct {
	store    hostapi.DocumentStore
	logger   *slog.Logger
	promises *PromiseDB
}

func newDB(store hostapi.DocumentStore, logger *slog.Logger) *DB {
	d := &DB{store: store, logger: logger}
	d.promises = &PromiseDB{db: d}
	return d
}

// Promises returns the asynchronous mirror of d.
func (d *DB) Promises() *PromiseDB {
	return d.promises
}

// guard runs fn, turning a returned error or a panic into err.
func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store panicked: %v", r)
		}
	}()
	return fn()
}

// write runs a mutation and converts any failure with onFail.
func write[T any](d *DB, op, id string, fn func() (T, error), onFail func(Failure) T) T {
	v, err := guard(fn)
	if err != nil {
		d.logger.Debug("store write failed",
			"operation", op,
			"id", id,
			"error", err)
		return onFail(Failure{Error: true, Message: err.Error()})
	}
	return v
}

// read runs a query and returns the zero value on any failure.
func read[T any](d *DB, op, id string, fn func() (T, error)) T {
	v, err := guard(fn)
	if err != nil {
		d.logger.Debug("store read failed",
			"operation", op,
			"id", id,
			"error", err)
		var zero T
		return zero
	}
	return v
}

func docFailure(id string) func(Failure) *hostapi.DocResult {
	return func(f Failure) *hostapi.DocResult {
		return &hostapi.DocResult{ID: id, Error: true, Message: f.Message}
	}
}

// Put stores doc.
func (d *DB) Put(ctx context.Context, doc hostapi.Doc) *hostapi.DocResult {
	return write(d, "put", doc.ID(), func() (*hostapi.DocResult, error) {
		res, err := d.store.Put(ctx, doc)
		if err == nil && res == nil {
			err = fmt.Errorf("store returned no result")
		}
		return res, err
	}, docFailure(doc.ID()))
}

// Get returns the document or nil.
func (d *DB) Get(ctx context.Context, id string) hostapi.Doc {
	return read(d, "get", id, func() (hostapi.Doc, error) {
		return d.store.Get(ctx, id)
	})
}

// Remove deletes a document given as a Doc, a map or an id string.
func (d *DB) Remove(ctx context.Context, docOrID any) *hostapi.DocResult {
	var doc hostapi.Doc
	switch v := docOrID.(type) {
	case string:
		doc = hostapi.Doc{"_id": v}
	case hostapi.Doc:
		doc = v
	case map[string]any:
		doc = hostapi.Doc(v)
	default:
		return &hostapi.DocResult{Error: true, Message: fmt.Sprintf("cannot remove %T", docOrID)}
	}

	return write(d, "remove", doc.ID(), func() (*hostapi.DocResult, error) {
		res, err := d.store.Remove(ctx, doc)
		if err == nil && res == nil {
			err = fmt.Errorf("store returned no result")
		}
		return res, err
	}, docFailure(doc.ID()))
}

// BulkDocs stores docs in one call.
func (d *DB) BulkDocs(ctx context.Context, docs []hostapi.Doc) BulkResult {
	return write(d, "bulkDocs", "", func() (BulkResult, error) {
		res, err := d.store.BulkDocs(ctx, docs)
		return BulkResult{Results: res}, err
	}, func(f Failure) BulkResult { return BulkResult{Failure: f} })
}

// AllDocs returns documents whose id starts with key.
func (d *DB) AllDocs(ctx context.Context, key string) AllDocsResult {
	return write(d, "allDocs", key, func() (AllDocsResult, error) {
		docs, err := d.store.AllDocs(ctx, key)
		return AllDocsResult{Docs: docs}, err
	}, func(f Failure) AllDocsResult { return AllDocsResult{Failure: f} })
}

// PostAttachment stores binary content under docID.
func (d *DB) PostAttachment(ctx context.Context, docID string, data []byte, contentType string) *hostapi.DocResult {
	return write(d, "postAttachment", docID, func() (*hostapi.DocResult, error) {
		res, err := d.store.PostAttachment(ctx, docID, data, contentType)
		if err == nil && res == nil {
			err = fmt.Errorf("store returned no result")
		}
		return res, err
	}, docFailure(docID))
}

// GetAttachment returns the attachment of docID or nil.
func (d *DB) GetAttachment(ctx context.Context, docID string) []byte {
	return read(d, "getAttachment", docID, func() ([]byte, error) {
		return d.store.GetAttachment(ctx, docID)
	})
}

// GetAttachmentType returns the attachment content type of docID or "".
func (d *DB) GetAttachmentType(ctx context.Context, docID string) string {
	return read(d, "getAttachmentType", docID, func() (string, error) {
		return d.store.GetAttachmentType(ctx, docID)
	})
}

// PromiseDB mirrors DB with calls that complete on a channel. Every call
// goes through the same DB method; the channel is buffered so an unread
// result never blocks.
type PromiseDB struct {
	db *DB
}

func promise[T any](fn func() T) <-chan T {
	ch := make(chan T, 1)
	go func() {
		ch <- fn()
	}()
	return ch
}

// Put is the asynchronous DB.Put.
func (p *PromiseDB) Put(ctx context.Context, doc hostapi.Doc) <-chan *hostapi.DocResult {
	return promise(func() *hostapi.DocResult { return p.db.Put(ctx, doc) })
}

// Get is the asynchronous DB.Get.
func (p *PromiseDB) Get(ctx context.Context, id string) <-chan hostapi.Doc {
	return promise(func() hostapi.Doc { return p.db.Get(ctx, id) })
}

// Remove is the asynchronous DB.Remove.
func (p *PromiseDB) Remove(ctx context.Context, docOrID any) <-chan *hostapi.DocResult {
	return promise(func() *hostapi.DocResult { return p.db.Remove(ctx, docOrID) })
}

// BulkDocs is the asynchronous DB.BulkDocs.
func (p *PromiseDB) BulkDocs(ctx context.Context, docs []hostapi.Doc) <-chan BulkResult {
	return promise(func() BulkResult { return p.db.BulkDocs(ctx, docs) })
}

// AllDocs is the asynchronous DB.AllDocs.
func (p *PromiseDB) AllDocs(ctx context.Context, key string) <-chan AllDocsResult {
	return promise(func() AllDocsResult { return p.db.AllDocs(ctx, key) })
}

// PostAttachment is the asynchronous DB.PostAttachment.
func (p *PromiseDB) PostAttachment(ctx context.Context, docID string, data []byte, contentType string) <-chan *hostapi.DocResult {
	return promise(func() *hostapi.DocResult { return p.db.PostAttachment(ctx, docID, data, contentType) })
}

// GetAttachment is the asynchronous DB.GetAttachment.
func (p *PromiseDB) GetAttachment(ctx context.Context, docID string) <-chan []byte {
	return promise(func() []byte { return p.db.GetAttachment(ctx, docID) })
}

// GetAttachmentType is the asynchronous DB.GetAttachmentType.
func (p *PromiseDB) GetAttachmentType(ctx context.Context, docID string) <-chan string {
	return promise(func() string { return p.db.GetAttachmentType(ctx, docID) })
}

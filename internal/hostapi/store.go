// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package hostapi

import (
	"context"
	"encoding/json"
)

// Doc is a stored document. "_id" names it and "_rev" carries the revision
// token of the version it was read at.
type Doc map[string]any

// ID returns the document id.
func (d Doc) ID() string {
	s, _ := d["_id"].(string)
	return s
}

// Rev returns the revision token, empty for a document never stored.
func (d Doc) Rev() string {
	s, _ := d["_rev"].(string)
	return s
}

// DocResult is the outcome of one mutation. Per-document failures inside a
// bulk write carry Error, Name and Message instead of failing the call.
type DocResult struct {
	ID      string `json:"id,omitempty"`
	Rev     string `json:"rev,omitempty"`
	OK      bool   `json:"ok,omitempty"`
	Error   bool   `json:"error,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
}

// Attachment is binary content stored under a document id.
type Attachment struct {
	Data []byte `json:"data"`
	Type string `json:"type"`
}

// DocumentStore is revisioned document storage with attachments. Updates and
// deletes of an existing id must carry its current revision token; Remove
// with an empty revision removes the current version.
type DocumentStore interface {
	Put(ctx context.Context, doc Doc) (*DocResult, error)
	Get(ctx context.Context, id string) (Doc, error)
	Remove(ctx context.Context, doc Doc) (*DocResult, error)
	BulkDocs(ctx context.Context, docs []Doc) ([]DocResult, error)
	// AllDocs returns documents whose id starts with key, all when empty.
	AllDocs(ctx context.Context, key string) ([]Doc, error)
	PostAttachment(ctx context.Context, docID string, data []byte, contentType string) (*DocResult, error)
	GetAttachment(ctx context.Context, docID string) ([]byte, error)
	GetAttachmentType(ctx context.Context, docID string) (string, error)
}

type dbPutRequest struct {
	Data Doc `json:"data"`
}

type dbIDRequest struct {
	ID string `json:"id"`
}

type dbRemoveRequest struct {
	Doc Doc `json:"doc"`
}

type dbBulkRequest struct {
	Docs []Doc `json:"docs"`
}

type dbAllDocsRequest struct {
	Key string `json:"key,omitempty"`
}

type dbAttachmentRequest struct {
	DocID      string `json:"docId"`
	Attachment []byte `json:"attachment"`
	Type       string `json:"type"`
}

type dbDocIDRequest struct {
	DocID string `json:"docId"`
}

// ServeStore binds the db message types on m to store.
func ServeStore(m *Mux, store DocumentStore) {
	HandleFunc(m, MsgDBPut, func(ctx context.Context, in dbPutRequest) (*DocResult, error) {
		return store.Put(ctx, in.Data)
	})
	HandleFunc(m, MsgDBGet, func(ctx context.Context, in dbIDRequest) (Doc, error) {
		return store.Get(ctx, in.ID)
	})
	HandleFunc(m, MsgDBRemove, func(ctx context.Context, in dbRemoveRequest) (*DocResult, error) {
		return store.Remove(ctx, in.Doc)
	})
	HandleFunc(m, MsgDBBulkDocs, func(ctx context.Context, in dbBulkRequest) ([]DocResult, error) {
		return store.BulkDocs(ctx, in.Docs)
	})
	HandleFunc(m, MsgDBAllDocs, func(ctx context.Context, in dbAllDocsRequest) ([]Doc, error) {
		return store.AllDocs(ctx, in.Key)
	})
	HandleFunc(m, MsgDBPostAttachment, func(ctx context.Context, in dbAttachmentRequest) (*DocResult, error) {
		return store.PostAttachment(ctx, in.DocID, in.Attachment, in.Type)
	})
	HandleFunc(m, MsgDBGetAttachment, func(ctx context.Context, in dbDocIDRequest) ([]byte, error) {
		return store.GetAttachment(ctx, in.DocID)
	})
	HandleFunc(m, MsgDBGetAttachmentType, func(ctx context.Context, in dbDocIDRequest) (string, error) {
		return store.GetAttachmentType(ctx, in.DocID)
	})
}

// channelStore is a DocumentStore reached over a Channel.
type channelStore struct {
	ch Channel
}

var _ DocumentStore = channelStore{}

func (s channelStore) Put(ctx context.Context, doc Doc) (*DocResult, error) {
	var out DocResult
	if err := call(ctx, s.ch, MsgDBPut, dbPutRequest{Data: doc}, &out); err != nil {
		return nil, storeError(MsgDBPut, doc.ID(), err)
	}
	return &out, nil
}

func (s channelStore) Get(ctx context.Context, id string) (Doc, error) {
	var out Doc
	if err := call(ctx, s.ch, MsgDBGet, dbIDRequest{ID: id}, &out); err != nil {
		return nil, storeError(MsgDBGet, id, err)
	}
	return out, nil
}

func (s channelStore) Remove(ctx context.Context, doc Doc) (*DocResult, error) {
	var out DocResult
	if err := call(ctx, s.ch, MsgDBRemove, dbRemoveRequest{Doc: doc}, &out); err != nil {
		return nil, storeError(MsgDBRemove, doc.ID(), err)
	}
	return &out, nil
}

func (s channelStore) BulkDocs(ctx context.Context, docs []Doc) ([]DocResult, error) {
	var out []DocResult
	if err := call(ctx, s.ch, MsgDBBulkDocs, dbBulkRequest{Docs: docs}, &out); err != nil {
		return nil, storeError(MsgDBBulkDocs, "", err)
	}
	return out, nil
}

func (s channelStore) AllDocs(ctx context.Context, key string) ([]Doc, error) {
	var out []Doc
	if err := call(ctx, s.ch, MsgDBAllDocs, dbAllDocsRequest{Key: key}, &out); err != nil {
		return nil, storeError(MsgDBAllDocs, key, err)
	}
	return out, nil
}

func (s channelStore) PostAttachment(ctx context.Context, docID string, data []byte, contentType string) (*DocResult, error) {
	var out DocResult
	req := dbAttachmentRequest{DocID: docID, Attachment: data, Type: contentType}
	if err := call(ctx, s.ch, MsgDBPostAttachment, req, &out); err != nil {
		return nil, storeError(MsgDBPostAttachment, docID, err)
	}
	return &out, nil
}

func (s channelStore) GetAttachment(ctx context.Context, docID string) ([]byte, error) {
	var out []byte
	if err := call(ctx, s.ch, MsgDBGetAttachment, dbDocIDRequest{DocID: docID}, &out); err != nil {
		return nil, storeError(MsgDBGetAttachment, docID, err)
	}
	return out, nil
}

func (s channelStore) GetAttachmentType(ctx context.Context, docID string) (string, error) {
	var out string
	if err := call(ctx, s.ch, MsgDBGetAttachmentType, dbDocIDRequest{DocID: docID}, &out); err != nil {
		return "", storeError(MsgDBGetAttachmentType, docID, err)
	}
	return out, nil
}

func storeError(op, id string, err error) error {
	return oopsStore(op, id).Wrap(err)
}

// decodeInto unmarshals raw into out unless the host answered null.
func decodeInto(raw json.RawMessage, out any) error {
	if out == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, out)
}

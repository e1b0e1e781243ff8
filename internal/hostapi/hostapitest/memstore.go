// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

// Package hostapitest provides in-memory host doubles for tests.
package hostapitest

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gclm/rubick/internal/hostapi"
)

// MemStore is an in-memory revisioned DocumentStore.
type MemStore struct {
	mu    sync.Mutex
	docs  map[string]hostapi.Doc
	gens  map[string]int
	atts  map[string]hostapi.Attachment
	fail  error
	calls int
}

var _ hostapi.DocumentStore = (*MemStore)(nil)

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		docs: make(map[string]hostapi.Doc),
		gens: make(map[string]int),
		atts: make(map[string]hostapi.Attachment),
	}
}

// FailWith makes every following operation return err. Nil restores normal
// behavior.
func (s *MemStore) FailWith(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

// Calls returns the number of operations served.
func (s *MemStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *MemStore) enter(op, id string) error {
	s.calls++
	if s.fail != nil {
		return oops.Code(hostapi.CodeStoreOperationFailed).With("operation", op).With("id", id).Wrap(s.fail)
	}
	return nil
}

func (s *MemStore) nextRev(id string) string {
	s.gens[id]++
	return fmt.Sprintf("%d-%s", s.gens[id], strings.ToLower(ulid.Make().String()))
}

// Put stores doc. Updating an existing id requires its current _rev.
func (s *MemStore) Put(_ context.Context, doc hostapi.Doc) (*hostapi.DocResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter("put", doc.ID()); err != nil {
		return nil, err
	}
	return s.put(doc)
}

func (s *MemStore) put(doc hostapi.Doc) (*hostapi.DocResult, error) {
	id := doc.ID()
	if id == "" {
		return nil, oops.Code(hostapi.CodeStoreOperationFailed).With("operation", "put").Errorf("document has no _id")
	}

	current, exists := s.docs[id]
	switch {
	case exists && doc.Rev() != current.Rev():
		return nil, oops.Code(hostapi.CodeStoreOperationFailed).With("operation", "put").With("id", id).Wrap(hostapi.ErrConflict)
	case !exists && doc.Rev() != "":
		return nil, oops.Code(hostapi.CodeStoreOperationFailed).With("operation", "put").With("id", id).Wrap(hostapi.ErrConflict)
	}

	stored := maps.Clone(doc)
	stored["_rev"] = s.nextRev(id)
	s.docs[id] = stored
	return &hostapi.DocResult{ID: id, Rev: stored.Rev(), OK: true}, nil
}

// Get returns a copy of the stored document.
func (s *MemStore) Get(_ context.Context, id string) (hostapi.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter("get", id); err != nil {
		return nil, err
	}
	doc, ok := s.docs[id]
	if !ok {
		return nil, oops.Code(hostapi.CodeStoreOperationFailed).With("operation", "get").With("id", id).Wrap(hostapi.ErrNotFound)
	}
	return maps.Clone(doc), nil
}

// Remove deletes a document. An empty _rev removes the current version.
func (s *MemStore) Remove(_ context.Context, doc hostapi.Doc) (*hostapi.DocResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := doc.ID()
	if err := s.enter("remove", id); err != nil {
		return nil, err
	}
	current, ok := s.docs[id]
	if !ok {
		return nil, oops.Code(hostapi.CodeStoreOperationFailed).With("operation", "remove").With("id", id).Wrap(hostapi.ErrNotFound)
	}
	if doc.Rev() != "" && doc.Rev() != current.Rev() {
		return nil, oops.Code(hostapi.CodeStoreOperationFailed).With("operation", "remove").With("id", id).Wrap(hostapi.ErrConflict)
	}

	delete(s.docs, id)
	return &hostapi.DocResult{ID: id, Rev: s.nextRev(id), OK: true}, nil
}

// BulkDocs puts every doc, reporting per-document conflicts in the results.
func (s *MemStore) BulkDocs(_ context.Context, docs []hostapi.Doc) ([]hostapi.DocResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter("bulkDocs", ""); err != nil {
		return nil, err
	}

	results := make([]hostapi.DocResult, 0, len(docs))
	for _, doc := range docs {
		res, err := s.put(doc)
		if err != nil {
			results = append(results, hostapi.DocResult{ID: doc.ID(), Error: true, Name: "conflict", Message: err.Error()})
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// AllDocs returns copies of the documents whose id starts with key, sorted
// by id.
func (s *MemStore) AllDocs(_ context.Context, key string) ([]hostapi.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter("allDocs", key); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		if strings.HasPrefix(id, key) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]hostapi.Doc, 0, len(ids))
	for _, id := range ids {
		out = append(out, maps.Clone(s.docs[id]))
	}
	return out, nil
}

// PostAttachment stores data under docID.
func (s *MemStore) PostAttachment(_ context.Context, docID string, data []byte, contentType string) (*hostapi.DocResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter("postAttachment", docID); err != nil {
		return nil, err
	}
	s.atts[docID] = hostapi.Attachment{Data: append([]byte(nil), data...), Type: contentType}
	return &hostapi.DocResult{ID: docID, Rev: s.nextRev(docID), OK: true}, nil
}

// GetAttachment returns the attachment content of docID.
func (s *MemStore) GetAttachment(_ context.Context, docID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter("getAttachment", docID); err != nil {
		return nil, err
	}
	att, ok := s.atts[docID]
	if !ok {
		return nil, oops.Code(hostapi.CodeStoreOperationFailed).With("operation", "getAttachment").With("id", docID).Wrap(hostapi.ErrNotFound)
	}
	return append([]byte(nil), att.Data...), nil
}

// GetAttachmentType returns the content type of docID's attachment.
func (s *MemStore) GetAttachmentType(_ context.Context, docID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter("getAttachmentType", docID); err != nil {
		return "", err
	}
	att, ok := s.atts[docID]
	if !ok {
		return "", oops.Code(hostapi.CodeStoreOperationFailed).With("operation", "getAttachmentType").With("id", docID).Wrap(hostapi.ErrNotFound)
	}
	return att.Type, nil
}

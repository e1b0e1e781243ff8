// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package hostapi

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// KVStore keeps one value per key as {_id, _rev, value} documents. Each
// write reads the current revision first so callers never handle tokens.
type KVStore struct {
	store DocumentStore
}

var _ KeyValueStore = (*KVStore)(nil)

// NewKVStore creates a KVStore on store.
func NewKVStore(store DocumentStore) *KVStore {
	return &KVStore{store: store}
}

func (s *KVStore) current(ctx context.Context, key string) (Doc, error) {
	doc, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// SetItem stores value under key.
func (s *KVStore) SetItem(ctx context.Context, key string, value any) error {
	doc, err := s.current(ctx, key)
	if err != nil {
		return oops.With("operation", "setItem").With("key", key).Wrap(err)
	}

	next := Doc{"_id": key, "value": value}
	if doc != nil && doc.Rev() != "" {
		next["_rev"] = doc.Rev()
	}

	res, err := s.store.Put(ctx, next)
	if err != nil {
		return oops.With("operation", "setItem").With("key", key).Wrap(err)
	}
	if res == nil || res.Error {
		msg := "put rejected"
		if res != nil && res.Message != "" {
			msg = res.Message
		}
		return oops.Code(CodeStoreOperationFailed).
			With("operation", "setItem").
			With("key", key).
			Errorf("%s", msg)
	}
	return nil
}

// GetItem returns the value stored under key, nil when absent.
func (s *KVStore) GetItem(ctx context.Context, key string) (any, error) {
	doc, err := s.current(ctx, key)
	if err != nil {
		return nil, oops.With("operation", "getItem").With("key", key).Wrap(err)
	}
	if doc == nil {
		return nil, nil
	}
	return doc["value"], nil
}

// RemoveItem deletes key. A missing key is not an error.
func (s *KVStore) RemoveItem(ctx context.Context, key string) error {
	doc, err := s.current(ctx, key)
	if err != nil {
		return oops.With("operation", "removeItem").With("key", key).Wrap(err)
	}
	if doc == nil {
		return nil
	}
	if _, err := s.store.Remove(ctx, doc); err != nil {
		return oops.With("operation", "removeItem").With("key", key).Wrap(err)
	}
	return nil
}

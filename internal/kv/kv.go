// Package kv is the storage transport behind the note and user collections.
//
// A collection is a named JSON document reachable through Get/Put. Every
// write replaces the whole document: there is no partial update, no
// write-ahead log and no version check. Two processes writing the same
// collection race and the later writer wins.
package kv

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// ErrNotFound is returned by Get when a collection has never been written.
var ErrNotFound = errors.New("kv: collection not found")

// Store reads and writes whole collections.
type Store interface {
	Get(ctx context.Context, collection string) ([]byte, error)
	Put(ctx context.Context, collection string, data []byte) error
	Close() error
}

// Load decodes a collection into v. A missing collection leaves v untouched
// and returns nil, so callers start from their zero value.
func Load(ctx context.Context, s Store, collection string, v any) error {
	data, err := s.Get(ctx, collection)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("kv: get %s: %w", collection, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("kv: decode %s: %w", collection, err)
	}
	return nil
}

// Save encodes v and replaces the collection with it.
func Save(ctx context.Context, s Store, collection string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", collection, err)
	}
	if err := s.Put(ctx, collection, data); err != nil {
		return fmt.Errorf("kv: put %s: %w", collection, err)
	}
	return nil
}

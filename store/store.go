// Package store provides the document-store contract the engine persists
// through, with filesystem, in-memory, and NATS KV backends. The engine
// never touches the filesystem directly, so tests exercise the full
// pipeline against the in-memory backend.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document is not found.
var ErrNotFound = errors.New("document not found")

// Info describes a stored document.
type Info struct {
	// Key is the document key.
	Key string

	// ModTime is when the document was last written.
	ModTime time.Time
}

// Store is the minimal persistence contract. Keys are slash-separated
// relative paths ("atoms/technique/AKU-2025-001.md", "graph/nodes.json").
type Store interface {
	// Get returns the document content, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes the document, creating or replacing it.
	Put(ctx context.Context, key string, data []byte) error

	// List returns the keys under the given prefix in sorted order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Stat returns metadata for a document, or ErrNotFound.
	Stat(ctx context.Context, key string) (Info, error)

	// Delete removes a document. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

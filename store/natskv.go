package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Bucket holding the knowledge base documents.
const BucketDocuments = "ZETTELFORGE_DOCUMENTS"

// KVStore persists documents in a NATS JetStream key-value bucket. Store
// keys are slash-separated paths; KV keys use dots, so paths are escaped
// before the slash swap to keep the mapping reversible.
type KVStore struct {
	kv jetstream.KeyValue
}

// NewKVStore connects to a NATS server and binds the documents bucket,
// creating it if missing.
func NewKVStore(ctx context.Context, url string) (*KVStore, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := getOrCreateBucket(ctx, js, BucketDocuments)
	if err != nil {
		return nil, fmt.Errorf("create documents bucket: %w", err)
	}

	return &KVStore{kv: kv}, nil
}

// NewKVStoreWith binds an existing JetStream context, creating the bucket
// if missing.
func NewKVStoreWith(ctx context.Context, js jetstream.JetStream) (*KVStore, error) {
	kv, err := getOrCreateBucket(ctx, js, BucketDocuments)
	if err != nil {
		return nil, fmt.Errorf("create documents bucket: %w", err)
	}
	return &KVStore{kv: kv}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Zettelforge knowledge base documents",
		History:     5, // Keep last 5 revisions
	})
}

// Get reads a document.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.kv.Get(ctx, encodeKey(key))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return entry.Value(), nil
}

// Put writes a document.
func (s *KVStore) Put(ctx context.Context, key string, data []byte) error {
	if _, err := s.kv.Put(ctx, encodeKey(key), data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// List returns sorted keys matching the prefix.
func (s *KVStore) List(ctx context.Context, prefix string) ([]string, error) {
	raw, err := s.kv.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list keys: %w", err)
	}

	var keys []string
	for _, k := range raw {
		key := decodeKey(k)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes a document. Missing keys are ignored.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, encodeKey(key)); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Stat returns document metadata from the KV entry revision time.
func (s *KVStore) Stat(ctx context.Context, key string) (Info, error) {
	entry, err := s.kv.Get(ctx, encodeKey(key))
	if err != nil {
		if isNotFound(err) {
			return Info{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return Info{}, fmt.Errorf("stat %s: %w", key, err)
	}
	return Info{Key: key, ModTime: entry.Created()}, nil
}

// encodeKey maps a slash-separated path onto a valid KV key. Dots and
// equals signs are escaped first so decodeKey can invert the mapping.
func encodeKey(key string) string {
	key = strings.ReplaceAll(key, "=", "=e")
	key = strings.ReplaceAll(key, ".", "=d")
	return strings.ReplaceAll(key, "/", ".")
}

func decodeKey(key string) string {
	key = strings.ReplaceAll(key, ".", "/")
	key = strings.ReplaceAll(key, "=d", ".")
	return strings.ReplaceAll(key, "=e", "=")
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}

package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	// ThreadBucket is the KV bucket holding user→thread mappings.
	ThreadBucket = "user_threads"
)

// ThreadStore is a store.ThreadStore backed by a JetStream key-value
// bucket, so the user→thread mapping survives restarts and is shared
// across instances.
type ThreadStore struct {
	kv jetstream.KeyValue
}

// NewThreadStore binds to the thread bucket, creating it if needed.
func NewThreadStore(ctx context.Context, client *Client) (*ThreadStore, error) {
	js := client.JetStream()

	kv, err := js.KeyValue(ctx, ThreadBucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      ThreadBucket,
			Description: "Assistant thread ID per user",
			History:     1,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open thread bucket: %w", err)
	}

	return &ThreadStore{kv: kv}, nil
}

// Get returns the thread ID for userID, or "" when no mapping exists.
func (s *ThreadStore) Get(ctx context.Context, userID string) (string, error) {
	entry, err := s.kv.Get(ctx, userID)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get thread mapping: %w", err)
	}
	return string(entry.Value()), nil
}

// PutIfAbsent records userID→threadID with first-write-wins semantics:
// KV Create fails when the key exists, in which case the stored mapping
// is returned instead.
func (s *ThreadStore) PutIfAbsent(ctx context.Context, userID, threadID string) (string, error) {
	_, err := s.kv.Create(ctx, userID, []byte(threadID))
	if err == nil {
		return threadID, nil
	}
	if errors.Is(err, jetstream.ErrKeyExists) {
		return s.Get(ctx, userID)
	}
	return "", fmt.Errorf("failed to store thread mapping: %w", err)
}

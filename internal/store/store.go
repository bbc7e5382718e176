// Package store provides the process-wide user→thread mapping.
package store

import "context"

// ThreadStore maps a user ID to its assistant thread ID. The mapping is
// created lazily, at most once per user, and never changes once created.
type ThreadStore interface {
	// Get returns the thread ID for userID, or "" when no mapping exists.
	Get(ctx context.Context, userID string) (string, error)

	// PutIfAbsent records userID→threadID unless a mapping already exists,
	// and returns the mapping that won.
	PutIfAbsent(ctx context.Context, userID, threadID string) (string, error)
}

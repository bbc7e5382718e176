package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryThreadStoreGetAbsent(t *testing.T) {
	s := NewMemoryThreadStore()

	threadID, err := s.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, threadID)
}

func TestMemoryThreadStoreFirstWriteWins(t *testing.T) {
	s := NewMemoryThreadStore()
	ctx := context.Background()

	winner, err := s.PutIfAbsent(ctx, "user-1", "thread-a")
	require.NoError(t, err)
	assert.Equal(t, "thread-a", winner)

	winner, err = s.PutIfAbsent(ctx, "user-1", "thread-b")
	require.NoError(t, err)
	assert.Equal(t, "thread-a", winner, "second writer must observe the first mapping")

	threadID, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "thread-a", threadID)
}

func TestMemoryThreadStoreConcurrentPut(t *testing.T) {
	s := NewMemoryThreadStore()
	ctx := context.Background()

	const writers = 32
	winners := make([]string, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := s.PutIfAbsent(ctx, "user-1", string(rune('a'+i)))
			assert.NoError(t, err)
			winners[i] = w
		}(i)
	}
	wg.Wait()

	for _, w := range winners {
		assert.Equal(t, winners[0], w, "every writer must observe the same winner")
	}
}

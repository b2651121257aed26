package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Reserve(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("reserves new key", func(t *testing.T) {
		fresh, err := store.Reserve(ctx, "refund-key-1", 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh, "new key should be a fresh reservation")
	})

	t.Run("returns false for already reserved key", func(t *testing.T) {
		key := "refund-key-2"

		fresh, err := store.Reserve(ctx, key, 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, err = store.Reserve(ctx, key, 1*time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh, "second reservation of same key should fail")
	})

	t.Run("allows re-reservation after expiration", func(t *testing.T) {
		key := "refund-key-3"

		fresh, err := store.Reserve(ctx, key, 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, fresh)

		time.Sleep(20 * time.Millisecond)

		fresh, err = store.Reserve(ctx, key, 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, fresh, "expired key should be reservable again")
	})
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("released key can be reserved again", func(t *testing.T) {
		key := "released-key"

		fresh, err := store.Reserve(ctx, key, 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)

		err = store.Release(ctx, key)
		require.NoError(t, err)

		fresh, err = store.Reserve(ctx, key, 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh, "released key should be reservable again")
	})

	t.Run("releasing an unknown key is a no-op", func(t *testing.T) {
		err := store.Release(ctx, "never-reserved")
		assert.NoError(t, err)
	})
}

func TestInMemoryIdempotencyStore_Size(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	assert.Equal(t, 0, store.Size(), "empty store should have size 0")

	store.Reserve(ctx, "key-1", 1*time.Hour)
	assert.Equal(t, 1, store.Size())

	store.Reserve(ctx, "key-2", 1*time.Hour)
	assert.Equal(t, 2, store.Size())

	// Reserving the same key again shouldn't increase size
	store.Reserve(ctx, "key-1", 1*time.Hour)
	assert.Equal(t, 2, store.Size())
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	store.Reserve(ctx, "short-lived-1", 10*time.Millisecond)
	store.Reserve(ctx, "short-lived-2", 10*time.Millisecond)
	store.Reserve(ctx, "long-lived", 1*time.Hour)

	assert.Equal(t, 3, store.Size())

	time.Sleep(20 * time.Millisecond)

	store.cleanup()

	assert.Equal(t, 1, store.Size())

	fresh, err := store.Reserve(ctx, "long-lived", 1*time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh, "long-lived key should still be reserved")

	fresh, err = store.Reserve(ctx, "short-lived-1", 1*time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh, "expired key should be reservable")
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const numGoroutines = 100
	const key = "concurrent-key"

	results := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			fresh, err := store.Reserve(ctx, key, 1*time.Hour)
			if err != nil {
				results <- false
			} else {
				results <- fresh
			}
		}()
	}

	freshCount := 0
	duplicateCount := 0
	for i := 0; i < numGoroutines; i++ {
		if <-results {
			freshCount++
		} else {
			duplicateCount++
		}
	}

	// Exactly one goroutine should win the reservation
	assert.Equal(t, 1, freshCount, "exactly one goroutine should reserve the key")
	assert.Equal(t, numGoroutines-1, duplicateCount, "all others should be rejected")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	err := store.Close()
	assert.NoError(t, err)

	// Multiple closes should be safe
	err = store.Close()
	assert.NoError(t, err)
}

package verifycache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watsonmark/internal/registry/models"
	"watsonmark/pkg/platform/sentinel"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemory(time.Minute)

	verification := models.Verification{
		Exists:        true,
		CertificateID: 1,
		Owner:         "alice",
		Status:        "Pending",
	}

	t.Run("miss before save", func(t *testing.T) {
		_, err := cache.Get(ctx, 7777)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save then get", func(t *testing.T) {
		require.NoError(t, cache.Save(ctx, 7777, verification))
		cached, err := cache.Get(ctx, 7777)
		require.NoError(t, err)
		assert.Equal(t, verification, *cached)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		cached, err := cache.Get(ctx, 7777)
		require.NoError(t, err)
		cached.Status = "tampered"

		fresh, err := cache.Get(ctx, 7777)
		require.NoError(t, err)
		assert.Equal(t, "Pending", fresh.Status)
	})

	t.Run("invalidate removes the entry", func(t *testing.T) {
		require.NoError(t, cache.Invalidate(ctx, 7777))
		_, err := cache.Get(ctx, 7777)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemory(time.Nanosecond)

	require.NoError(t, cache.Save(ctx, 7777, models.Verification{Exists: true}))
	time.Sleep(time.Millisecond)

	_, err := cache.Get(ctx, 7777)
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "expired entries behave as misses")
}

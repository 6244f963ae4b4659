//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zx8086/url-shortener/internal/shortener"
	"github.com/zx8086/url-shortener/internal/store"
	"go.uber.org/zap"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

// dialOrSkip connects through a Connector so the integration tests run the
// same path the server does.
func dialOrSkip(t *testing.T, backend store.Backend) *store.Connector {
	t.Helper()

	c := store.NewConnector(backend, store.RetryPolicy{Attempts: 1, DialTimeout: 5 * time.Second}, zap.NewNop(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := c.Acquire(ctx); err != nil {
		t.Skipf("%s not available: %v", backend.Name, err)
	}

	t.Cleanup(func() { _ = c.Shutdown() })

	return c
}

// exerciseRepository checks the behaviour every backend must share.
func exerciseRepository(t *testing.T, c *store.Connector) {
	ctx := context.Background()
	repo := store.NewRepository(c, 5*time.Second, zap.NewNop(), nil)
	longURL := "https://example.com/" + uuid.NewString()

	first := testMapping("it-"+uuid.NewString(), longURL)
	second := testMapping("it-"+uuid.NewString(), longURL)
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	t.Run("upsert and get by code", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, first))

		got, err := repo.GetByCode(ctx, first.Code)

		require.NoError(t, err)
		assert.Equal(t, first.LongURL, got.LongURL)
		assert.Equal(t, first.ShortURL, got.ShortURL)
		assert.True(t, first.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("find by long url returns the first mapping", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, second))

		got, err := repo.FindByLongURL(ctx, longURL)

		require.NoError(t, err)
		assert.Equal(t, first.Code, got.Code)
	})

	t.Run("missing code", func(t *testing.T) {
		_, err := repo.GetByCode(ctx, shortener.Code("it-missing-"+uuid.NewString()))

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("missing long url", func(t *testing.T) {
		_, err := repo.FindByLongURL(ctx, "https://example.com/"+uuid.NewString())

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, c.Ping(ctx))
	})
}

package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopbridge/backend/internal/domain/reconcile"
)

func testMapping(key reconcile.ResourceKey, platform reconcile.PlatformCode, productID string) *reconcile.ProductMapping {
	return &reconcile.ProductMapping{
		ResourceKey:       key,
		Platform:          platform,
		PlatformProductID: productID,
		Currency:          "USD",
	}
}

func TestGormProductMappingRepository_Find(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductMappingRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testMapping("SKU-1", reconcile.PlatformCodeShopify, "7001")))
	require.NoError(t, repo.Save(ctx, testMapping("SKU-1", reconcile.PlatformCodeWooCommerce, "301")))

	t.Run("finds mapping by key and platform", func(t *testing.T) {
		mapping, err := repo.Find(ctx, "SKU-1", reconcile.PlatformCodeShopify)
		require.NoError(t, err)
		assert.Equal(t, "7001", mapping.PlatformProductID)

		mapping, err = repo.Find(ctx, "SKU-1", reconcile.PlatformCodeWooCommerce)
		require.NoError(t, err)
		assert.Equal(t, "301", mapping.PlatformProductID)
	})

	t.Run("returns sentinel for unknown key", func(t *testing.T) {
		_, err := repo.Find(ctx, "SKU-UNKNOWN", reconcile.PlatformCodeShopify)
		assert.ErrorIs(t, err, reconcile.ErrMappingNotFound)
	})
}

func TestGormProductMappingRepository_Save(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductMappingRepository(db)
	ctx := context.Background()

	t.Run("save upserts on key and platform", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, testMapping("SKU-2", reconcile.PlatformCodeShopify, "7002")))
		require.NoError(t, repo.Save(ctx, testMapping("SKU-2", reconcile.PlatformCodeShopify, "7002-v2")))

		mapping, err := repo.Find(ctx, "SKU-2", reconcile.PlatformCodeShopify)
		require.NoError(t, err)
		assert.Equal(t, "7002-v2", mapping.PlatformProductID)

		keys, err := repo.ListSyncEnabledKeys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []reconcile.ResourceKey{"SKU-2"}, keys)
	})
}

func TestGormProductMappingRepository_SyncEnabled(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductMappingRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testMapping("SKU-A", reconcile.PlatformCodeShopify, "1")))
	require.NoError(t, repo.Save(ctx, testMapping("SKU-A", reconcile.PlatformCodeWooCommerce, "2")))
	require.NoError(t, repo.Save(ctx, testMapping("SKU-B", reconcile.PlatformCodeShopify, "3")))

	t.Run("lists distinct enabled keys", func(t *testing.T) {
		keys, err := repo.ListSyncEnabledKeys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []reconcile.ResourceKey{"SKU-A", "SKU-B"}, keys)
	})

	t.Run("disabling a key removes it from the listing", func(t *testing.T) {
		require.NoError(t, repo.SetSyncEnabled(ctx, "SKU-A", false))

		keys, err := repo.ListSyncEnabledKeys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []reconcile.ResourceKey{"SKU-B"}, keys)
	})

	t.Run("toggling an unknown key returns sentinel", func(t *testing.T) {
		err := repo.SetSyncEnabled(ctx, "SKU-UNKNOWN", true)
		assert.ErrorIs(t, err, reconcile.ErrMappingNotFound)
	})
}

func TestGormProductMappingRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductMappingRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testMapping("SKU-D", reconcile.PlatformCodeShopify, "9")))

	t.Run("deletes existing mapping", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "SKU-D", reconcile.PlatformCodeShopify))

		_, err := repo.Find(ctx, "SKU-D", reconcile.PlatformCodeShopify)
		assert.ErrorIs(t, err, reconcile.ErrMappingNotFound)
	})

	t.Run("deleting twice returns sentinel", func(t *testing.T) {
		err := repo.Delete(ctx, "SKU-D", reconcile.PlatformCodeShopify)
		assert.ErrorIs(t, err, reconcile.ErrMappingNotFound)
	})
}

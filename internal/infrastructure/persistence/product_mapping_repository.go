package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopbridge/backend/internal/domain/reconcile"
	"github.com/shopbridge/backend/internal/infrastructure/persistence/models"
)

// GormProductMappingRepository implements the mapping catalog using GORM
type GormProductMappingRepository struct {
	db *gorm.DB
}

// NewGormProductMappingRepository creates a new GormProductMappingRepository
func NewGormProductMappingRepository(db *gorm.DB) *GormProductMappingRepository {
	return &GormProductMappingRepository{db: db}
}

// ---------------------------------------------------------------------------
// MappingCatalog implementation
// ---------------------------------------------------------------------------

// Find returns the mapping for (key, platform), or ErrMappingNotFound
func (r *GormProductMappingRepository) Find(ctx context.Context, key reconcile.ResourceKey, platform reconcile.PlatformCode) (*reconcile.ProductMapping, error) {
	var model models.ProductMappingModel
	if err := r.db.WithContext(ctx).
		Where("resource_key = ? AND platform = ?", string(key), string(platform)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconcile.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ---------------------------------------------------------------------------
// Catalog maintenance
// ---------------------------------------------------------------------------

// ListSyncEnabledKeys returns the resource keys enabled for synchronization
// on both platforms, for scheduler-triggered full-catalog runs.
func (r *GormProductMappingRepository) ListSyncEnabledKeys(ctx context.Context) ([]reconcile.ResourceKey, error) {
	var rows []string
	if err := r.db.WithContext(ctx).
		Model(&models.ProductMappingModel{}).
		Where("sync_enabled = ?", true).
		Distinct("resource_key").
		Order("resource_key ASC").
		Pluck("resource_key", &rows).Error; err != nil {
		return nil, err
	}

	keys := make([]reconcile.ResourceKey, len(rows))
	for i, row := range rows {
		keys[i] = reconcile.ResourceKey(row)
	}
	return keys, nil
}

// Save creates or updates a mapping, keyed by (resource key, platform)
func (r *GormProductMappingRepository) Save(ctx context.Context, mapping *reconcile.ProductMapping) error {
	model := models.ProductMappingModelFromDomain(mapping)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "resource_key"}, {Name: "platform"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"platform_product_id", "platform_variant_id", "inventory_item_id", "currency", "updated_at",
			}),
		}).
		Create(model).Error
}

// SetSyncEnabled toggles synchronization for a resource key on all platforms
func (r *GormProductMappingRepository) SetSyncEnabled(ctx context.Context, key reconcile.ResourceKey, enabled bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductMappingModel{}).
		Where("resource_key = ?", string(key)).
		Updates(map[string]any{"sync_enabled": enabled, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return reconcile.ErrMappingNotFound
	}
	return nil
}

// Delete removes the mapping for (key, platform)
func (r *GormProductMappingRepository) Delete(ctx context.Context, key reconcile.ResourceKey, platform reconcile.PlatformCode) error {
	result := r.db.WithContext(ctx).
		Delete(&models.ProductMappingModel{}, "resource_key = ? AND platform = ?", string(key), string(platform))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return reconcile.ErrMappingNotFound
	}
	return nil
}

// Ensure GormProductMappingRepository implements MappingCatalog
var _ reconcile.MappingCatalog = (*GormProductMappingRepository)(nil)

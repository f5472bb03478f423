package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shopbridge/backend/internal/domain/reconcile"
	"github.com/shopbridge/backend/internal/infrastructure/persistence/models"
)

// GormLedgerRepository implements the ledger read and append ports using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// ---------------------------------------------------------------------------
// LedgerReader implementation
// ---------------------------------------------------------------------------

// FindLatestSince returns entries for the resource recorded strictly after
// since, newest first
func (r *GormLedgerRepository) FindLatestSince(ctx context.Context, key reconcile.ResourceKey, kind reconcile.ValueKind, since time.Time) ([]reconcile.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("resource_key = ? AND kind = ? AND recorded_at > ?", string(key), string(kind), since).
		Order("recorded_at DESC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]reconcile.LedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = model.ToDomain()
	}
	return entries, nil
}

// FindManualOverride returns the most recent manual entry for the resource
// within the recency window, or nil if none exists
func (r *GormLedgerRepository) FindManualOverride(ctx context.Context, key reconcile.ResourceKey, kind reconcile.ValueKind, window time.Duration) (*reconcile.LedgerEntry, error) {
	cutoff := time.Now().Add(-window)

	var model models.LedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("resource_key = ? AND kind = ? AND source = ? AND recorded_at > ?",
			string(key), string(kind), string(reconcile.LedgerSourceManual), cutoff).
		Order("recorded_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	entry := model.ToDomain()
	return &entry, nil
}

// ---------------------------------------------------------------------------
// LedgerAppender implementation
// ---------------------------------------------------------------------------

// Append records one or more entries. Entries are immutable once written;
// only inserts happen here.
func (r *GormLedgerRepository) Append(ctx context.Context, entries ...reconcile.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	entryModels := make([]*models.LedgerEntryModel, len(entries))
	for i, e := range entries {
		entryModels[i] = models.LedgerEntryModelFromDomain(e)
	}

	return r.db.WithContext(ctx).Create(entryModels).Error
}

// Ensure GormLedgerRepository implements the ledger ports
var _ reconcile.LedgerReader = (*GormLedgerRepository)(nil)
var _ reconcile.LedgerAppender = (*GormLedgerRepository)(nil)

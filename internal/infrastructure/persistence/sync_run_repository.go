package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopbridge/backend/internal/domain/reconcile"
	"github.com/shopbridge/backend/internal/infrastructure/persistence/models"
)

// ErrRunNotFound indicates no persisted run exists for the given ID
var ErrRunNotFound = errors.New("persistence: sync run not found")

// GormSyncRunRepository records finished sync runs for history and diagnostics
type GormSyncRunRepository struct {
	db *gorm.DB
}

// NewGormSyncRunRepository creates a new GormSyncRunRepository
func NewGormSyncRunRepository(db *gorm.DB) *GormSyncRunRepository {
	return &GormSyncRunRepository{db: db}
}

// Record persists the outcome of a finished run
func (r *GormSyncRunRepository) Record(ctx context.Context, run *reconcile.SyncRun) error {
	model := models.SyncRunModelFromDomain(run)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID returns one recorded run
func (r *GormSyncRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.SyncRunModel, error) {
	var model models.SyncRunModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &model, nil
}

// LastCompletedAt returns when the most recent completed run for the
// operation finished. It returns the zero time when no completed run
// exists yet; first-ever runs resolve against an empty reference point.
func (r *GormSyncRunRepository) LastCompletedAt(ctx context.Context, operation reconcile.SyncOperation) (time.Time, error) {
	var model models.SyncRunModel
	err := r.db.WithContext(ctx).
		Where("operation = ? AND state = ?", string(operation), string(reconcile.RunStateCompleted)).
		Order("completed_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	if model.CompletedAt == nil {
		return time.Time{}, nil
	}
	return *model.CompletedAt, nil
}

// FindRecent returns the most recent runs for an operation, newest first
func (r *GormSyncRunRepository) FindRecent(ctx context.Context, operation reconcile.SyncOperation, limit int) ([]models.SyncRunModel, error) {
	if limit <= 0 {
		limit = 20
	}

	var runModels []models.SyncRunModel
	if err := r.db.WithContext(ctx).
		Where("operation = ?", string(operation)).
		Order("started_at DESC").
		Limit(limit).
		Find(&runModels).Error; err != nil {
		return nil, err
	}
	return runModels, nil
}

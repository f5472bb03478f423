package persistence

import (
	"gorm.io/gorm"

	"github.com/shopbridge/backend/internal/infrastructure/persistence/models"
)

// AutoMigrate creates or updates the schema for all persistence models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.LedgerEntryModel{},
		&models.ProductMappingModel{},
		&models.SyncRunModel{},
	)
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopbridge/backend/internal/domain/reconcile"
)

// ---------------------------------------------------------------------------
// LedgerEntryModel
// ---------------------------------------------------------------------------

// LedgerEntryModel persists one append-only ledger entry
type LedgerEntryModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	ResourceKey   string          `gorm:"size:128;not null;index:idx_ledger_lookup,priority:1"`
	Platform      string          `gorm:"size:32;not null"`
	Kind          string          `gorm:"size:16;not null;index:idx_ledger_lookup,priority:2"`
	PreviousValue decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	NewValue      decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	Source        string          `gorm:"size:16;not null"`
	Strategy      string          `gorm:"size:32"`
	Rationale     string          `gorm:"size:512"`
	RecordedAt    time.Time       `gorm:"not null;index:idx_ledger_lookup,priority:3"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for LedgerEntryModel
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the model to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() reconcile.LedgerEntry {
	return reconcile.LedgerEntry{
		ID:            m.ID,
		ResourceKey:   reconcile.ResourceKey(m.ResourceKey),
		Platform:      reconcile.PlatformCode(m.Platform),
		Kind:          reconcile.ValueKind(m.Kind),
		PreviousValue: m.PreviousValue,
		NewValue:      m.NewValue,
		Source:        reconcile.LedgerEntrySource(m.Source),
		Strategy:      reconcile.ResolutionStrategy(m.Strategy),
		Rationale:     m.Rationale,
		RecordedAt:    m.RecordedAt,
	}
}

// LedgerEntryModelFromDomain converts a domain LedgerEntry to a model
func LedgerEntryModelFromDomain(e reconcile.LedgerEntry) *LedgerEntryModel {
	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &LedgerEntryModel{
		ID:            id,
		ResourceKey:   string(e.ResourceKey),
		Platform:      string(e.Platform),
		Kind:          string(e.Kind),
		PreviousValue: e.PreviousValue,
		NewValue:      e.NewValue,
		Source:        string(e.Source),
		Strategy:      string(e.Strategy),
		Rationale:     e.Rationale,
		RecordedAt:    e.RecordedAt,
	}
}

// ---------------------------------------------------------------------------
// ProductMappingModel
// ---------------------------------------------------------------------------

// ProductMappingModel persists the link between a resource key and the
// identifiers one platform uses for it
type ProductMappingModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	ResourceKey       string    `gorm:"size:128;not null;uniqueIndex:idx_mapping_key_platform,priority:1"`
	Platform          string    `gorm:"size:32;not null;uniqueIndex:idx_mapping_key_platform,priority:2"`
	PlatformProductID string    `gorm:"size:64;not null"`
	PlatformVariantID string    `gorm:"size:64"`
	InventoryItemID   string    `gorm:"size:64"`
	Currency          string    `gorm:"size:8;not null"`
	SyncEnabled       bool      `gorm:"not null;default:true"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for ProductMappingModel
func (ProductMappingModel) TableName() string {
	return "product_mappings"
}

// ToDomain converts the model to a domain ProductMapping
func (m *ProductMappingModel) ToDomain() *reconcile.ProductMapping {
	return &reconcile.ProductMapping{
		ResourceKey:       reconcile.ResourceKey(m.ResourceKey),
		Platform:          reconcile.PlatformCode(m.Platform),
		PlatformProductID: m.PlatformProductID,
		PlatformVariantID: m.PlatformVariantID,
		InventoryItemID:   m.InventoryItemID,
		Currency:          m.Currency,
		UpdatedAt:         m.UpdatedAt,
	}
}

// ProductMappingModelFromDomain converts a domain ProductMapping to a model
func ProductMappingModelFromDomain(p *reconcile.ProductMapping) *ProductMappingModel {
	return &ProductMappingModel{
		ID:                uuid.New(),
		ResourceKey:       string(p.ResourceKey),
		Platform:          string(p.Platform),
		PlatformProductID: p.PlatformProductID,
		PlatformVariantID: p.PlatformVariantID,
		InventoryItemID:   p.InventoryItemID,
		Currency:          p.Currency,
		SyncEnabled:       true,
	}
}

// ---------------------------------------------------------------------------
// SyncRunModel
// ---------------------------------------------------------------------------

// SyncRunModel persists the outcome of one orchestrated sync run for
// history and diagnostics
type SyncRunModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	Operation     string    `gorm:"size:32;not null;index"`
	State         string    `gorm:"size:16;not null"`
	ResourceCount int       `gorm:"not null"`
	Succeeded     int       `gorm:"not null"`
	Failed        int       `gorm:"not null"`
	Skipped       int       `gorm:"not null"`
	FailureReason string    `gorm:"size:512"`
	StartedAt     time.Time `gorm:"not null;index"`
	CompletedAt   *time.Time
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for SyncRunModel
func (SyncRunModel) TableName() string {
	return "sync_runs"
}

// SyncRunModelFromDomain converts a completed or failed domain SyncRun to a model
func SyncRunModelFromDomain(run *reconcile.SyncRun) *SyncRunModel {
	model := &SyncRunModel{
		ID:            run.ID,
		Operation:     string(run.Operation),
		State:         string(run.State()),
		ResourceCount: len(run.ResourceKeys),
		FailureReason: run.FailureReason(),
		StartedAt:     run.StartedAt,
		CompletedAt:   run.CompletedAt,
	}
	if run.Report != nil {
		model.Succeeded = run.Report.Succeeded
		model.Failed = run.Report.Failed
		model.Skipped = run.Report.Skipped
	}
	return model
}

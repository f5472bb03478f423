package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/shopbridge/backend/internal/domain/shared"
)

// Event types emitted by the sync core
const (
	EventTypeRunStateChanged  = "sync.run.state_changed"
	EventTypeConflictResolved = "sync.conflict.resolved"
	EventTypeBatchCompleted   = "sync.batch.completed"
)

// aggregateTypeSyncRun is the aggregate type for run-scoped events
const aggregateTypeSyncRun = "SyncRun"

// RunStateChangedEvent is published on every run state transition
type RunStateChangedEvent struct {
	shared.BaseDomainEvent
	Operation SyncOperation `json:"operation"`
	FromState RunState      `json:"from_state"`
	ToState   RunState      `json:"to_state"`
	// Reason is set for Failed and Skipped transitions
	Reason string `json:"reason,omitempty"`
}

// NewRunStateChangedEvent creates a state transition event for a run
func NewRunStateChangedEvent(run *SyncRun, from, to RunState, reason string) *RunStateChangedEvent {
	return &RunStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRunStateChanged, run.ID.String(), aggregateTypeSyncRun),
		Operation:       run.Operation,
		FromState:       from,
		ToState:         to,
		Reason:          reason,
	}
}

// ConflictResolvedEvent is published for every resolution a run produces
type ConflictResolvedEvent struct {
	shared.BaseDomainEvent
	ResourceKey   ResourceKey        `json:"resource_key"`
	Kind          ValueKind          `json:"kind"`
	Strategy      ResolutionStrategy `json:"strategy"`
	Value         decimal.Decimal    `json:"value"`
	WriteRequired bool               `json:"write_required"`
	Detail        string             `json:"detail"`
}

// NewConflictResolvedEvent creates an event from a resolution
func NewConflictResolvedEvent(run *SyncRun, res Resolution) *ConflictResolvedEvent {
	return &ConflictResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConflictResolved, run.ID.String(), aggregateTypeSyncRun),
		ResourceKey:     res.ResourceKey,
		Kind:            res.Kind,
		Strategy:        res.Strategy,
		Value:           res.Value,
		WriteRequired:   res.WriteRequired,
		Detail:          res.Evidence.Detail,
	}
}

// BatchCompletedEvent is published when the batch executor returns a report
type BatchCompletedEvent struct {
	shared.BaseDomainEvent
	Operation SyncOperation  `json:"operation"`
	Report    BatchRunReport `json:"report"`
}

// NewBatchCompletedEvent creates an event from a batch run report
func NewBatchCompletedEvent(run *SyncRun, report BatchRunReport) *BatchCompletedEvent {
	return &BatchCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchCompleted, run.ID.String(), aggregateTypeSyncRun),
		Operation:       run.Operation,
		Report:          report,
	}
}

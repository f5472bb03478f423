package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Run States
// ---------------------------------------------------------------------------

// RunState is a state of the synchronization run state machine
type RunState string

const (
	// RunStateIdle is the initial state before a run is requested
	RunStateIdle RunState = "IDLE"
	// RunStateLocking means lease acquisition is in progress
	RunStateLocking RunState = "LOCKING"
	// RunStateReading means platform observations are being collected
	RunStateReading RunState = "READING"
	// RunStateResolving means detected conflicts are being resolved
	RunStateResolving RunState = "RESOLVING"
	// RunStateWriting means the write-set is being applied by the executor
	RunStateWriting RunState = "WRITING"
	// RunStateCompleted means the run finished. Completed does not imply
	// every item succeeded: partial failure lives in the batch report.
	RunStateCompleted RunState = "COMPLETED"
	// RunStateFailed means an unrecoverable error terminated the run
	RunStateFailed RunState = "FAILED"
	// RunStateSkipped means the lease was already held by another run.
	// Expected contention, not an error.
	RunStateSkipped RunState = "SKIPPED"
)

// IsTerminal returns true for states with no outgoing transitions
func (s RunState) IsTerminal() bool {
	switch s {
	case RunStateCompleted, RunStateFailed, RunStateSkipped:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state
func (s RunState) String() string {
	return string(s)
}

// ErrInvalidTransition indicates a state transition the machine does not allow
var ErrInvalidTransition = errors.New("reconcile: invalid run state transition")

// validTransitions enumerates the allowed edges of the run state machine.
// Failed is additionally reachable from any non-terminal state.
var validTransitions = map[RunState][]RunState{
	RunStateIdle:      {RunStateLocking},
	RunStateLocking:   {RunStateReading, RunStateSkipped},
	RunStateReading:   {RunStateResolving},
	RunStateResolving: {RunStateWriting},
	RunStateWriting:   {RunStateCompleted},
}

// canTransition reports whether from → to is an allowed edge
func canTransition(from, to RunState) bool {
	if to == RunStateFailed {
		return !from.IsTerminal()
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// SyncRun
// ---------------------------------------------------------------------------

// SyncOperation names the kind of synchronization a run performs. The lock
// scope is (resource key, operation), so quantity and price syncs for the
// same resource may run concurrently.
type SyncOperation string

const (
	// OperationQuantitySync reconciles stock quantities
	OperationQuantitySync SyncOperation = "quantity_sync"
	// OperationPriceSync reconciles prices
	OperationPriceSync SyncOperation = "price_sync"
)

// IsValid returns true if the operation is valid
func (o SyncOperation) IsValid() bool {
	return o == OperationQuantitySync || o == OperationPriceSync
}

// String returns the string representation of the operation
func (o SyncOperation) String() string {
	return string(o)
}

// SyncRun is the orchestrator-level unit of work: one pass over a set of
// resource keys for one operation. The run tracks its own state machine;
// transitions outside the allowed edges return ErrInvalidTransition.
type SyncRun struct {
	ID           uuid.UUID
	Operation    SyncOperation
	ResourceKeys []ResourceKey

	state       RunState
	failure     string
	StartedAt   time.Time
	CompletedAt *time.Time

	// Resolutions decided during the run, in input order
	Resolutions []Resolution
	// Report is the batch executor outcome, set on entry to Completed
	Report *BatchRunReport
}

// NewSyncRun creates a run in the Idle state
func NewSyncRun(operation SyncOperation, keys []ResourceKey) *SyncRun {
	return &SyncRun{
		ID:           uuid.New(),
		Operation:    operation,
		ResourceKeys: keys,
		state:        RunStateIdle,
		StartedAt:    time.Now(),
	}
}

// State returns the current run state
func (r *SyncRun) State() RunState {
	return r.state
}

// FailureReason returns the recorded unrecoverable error, if any
func (r *SyncRun) FailureReason() string {
	return r.failure
}

// TransitionTo moves the run to the next state, enforcing the machine's
// allowed edges. Terminal entry stamps CompletedAt.
func (r *SyncRun) TransitionTo(next RunState) error {
	if !canTransition(r.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.state, next)
	}
	r.state = next
	if next.IsTerminal() {
		now := time.Now()
		r.CompletedAt = &now
	}
	return nil
}

// Fail moves the run to Failed and records the cause
func (r *SyncRun) Fail(cause string) error {
	if err := r.TransitionTo(RunStateFailed); err != nil {
		return err
	}
	r.failure = cause
	return nil
}

// Complete moves the run to Completed and attaches the batch report
func (r *SyncRun) Complete(report *BatchRunReport) error {
	if err := r.TransitionTo(RunStateCompleted); err != nil {
		return err
	}
	r.Report = report
	return nil
}

// Duration returns the elapsed run time, up to now for unfinished runs
func (r *SyncRun) Duration() time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}

package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/shopbridge/backend/internal/domain/reconcile"
	"github.com/shopbridge/backend/internal/domain/shared"
)

// AuditHandler writes every sync core event to the structured log, giving
// operators a replayable trail of run transitions, resolution decisions
// and batch outcomes without a dedicated audit store.
type AuditHandler struct {
	logger *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logger *zap.Logger) *AuditHandler {
	return &AuditHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *AuditHandler) EventTypes() []string {
	return []string{
		reconcile.EventTypeRunStateChanged,
		reconcile.EventTypeConflictResolved,
		reconcile.EventTypeBatchCompleted,
	}
}

// Handle logs one sync core event
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	log := h.logger.With(
		zap.String("run_id", event.AggregateID()),
		zap.Time("occurred_at", event.OccurredAt()),
	)

	switch e := event.(type) {
	case *reconcile.RunStateChangedEvent:
		log.Info("audit: run state changed",
			zap.String("operation", e.Operation.String()),
			zap.String("from", e.FromState.String()),
			zap.String("to", e.ToState.String()),
			zap.String("reason", e.Reason),
		)
	case *reconcile.ConflictResolvedEvent:
		log.Info("audit: conflict resolved",
			zap.String("resource_key", e.ResourceKey.String()),
			zap.String("kind", string(e.Kind)),
			zap.String("strategy", e.Strategy.String()),
			zap.String("value", e.Value.String()),
			zap.Bool("write_required", e.WriteRequired),
			zap.String("detail", e.Detail),
		)
	case *reconcile.BatchCompletedEvent:
		log.Info("audit: batch completed",
			zap.String("operation", e.Operation.String()),
			zap.Int("total", e.Report.Total),
			zap.Int("succeeded", e.Report.Succeeded),
			zap.Int("failed", e.Report.Failed),
			zap.Int("skipped", e.Report.Skipped),
			zap.Bool("aborted", e.Report.Aborted),
		)
	default:
		log.Debug("audit: event", zap.String("event_type", event.EventType()))
	}
	return nil
}

var _ shared.EventHandler = (*AuditHandler)(nil)

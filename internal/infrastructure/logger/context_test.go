package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext(t *testing.T) {
	baseLogger := zap.NewNop()
	ctx := WithContext(context.Background(), baseLogger)

	retrieved := FromContext(ctx)
	assert.Equal(t, baseLogger, retrieved)
}

func TestFromContext_NotFound(t *testing.T) {
	retrieved := FromContext(context.Background())

	// Should return a no-op logger, not nil
	require.NotNil(t, retrieved)
	assert.NotPanics(t, func() {
		retrieved.Info("should not panic")
	})
}

func TestWithRunID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	baseLogger := zap.New(core)

	ctx, enriched := WithRunID(context.Background(), baseLogger, "run-123")

	assert.Equal(t, "run-123", GetRunID(ctx))

	enriched.Info("test message")
	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "run-123", logs[0].ContextMap()["run_id"])

	// The enriched logger is also attached to the context
	assert.Equal(t, enriched, FromContext(ctx))
}

func TestWithOperation(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	baseLogger := zap.New(core)

	ctx, enriched := WithOperation(context.Background(), baseLogger, "quantity_sync")

	assert.Equal(t, "quantity_sync", GetOperation(ctx))

	enriched.Info("test message")
	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "quantity_sync", logs[0].ContextMap()["operation"])
}

func TestGetRunID_Missing(t *testing.T) {
	assert.Empty(t, GetRunID(context.Background()))
	assert.Empty(t, GetOperation(context.Background()))
}

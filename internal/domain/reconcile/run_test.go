package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncRun_TransitionTo(t *testing.T) {
	t.Run("follows the happy path", func(t *testing.T) {
		run := NewSyncRun(OperationQuantitySync, []ResourceKey{"SKU-1"})
		assert.Equal(t, RunStateIdle, run.State())

		for _, next := range []RunState{RunStateLocking, RunStateReading, RunStateResolving, RunStateWriting} {
			require.NoError(t, run.TransitionTo(next))
			assert.Equal(t, next, run.State())
		}

		require.NoError(t, run.Complete(&BatchRunReport{Total: 1, Succeeded: 1}))
		assert.Equal(t, RunStateCompleted, run.State())
		require.NotNil(t, run.CompletedAt)
		require.NotNil(t, run.Report)
	})

	t.Run("rejects skipping states", func(t *testing.T) {
		run := NewSyncRun(OperationQuantitySync, nil)
		err := run.TransitionTo(RunStateWriting)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("skipped is only reachable from locking", func(t *testing.T) {
		run := NewSyncRun(OperationPriceSync, nil)
		require.NoError(t, run.TransitionTo(RunStateLocking))
		require.NoError(t, run.TransitionTo(RunStateSkipped))
		assert.Equal(t, RunStateSkipped, run.State())

		other := NewSyncRun(OperationPriceSync, nil)
		require.NoError(t, other.TransitionTo(RunStateLocking))
		require.NoError(t, other.TransitionTo(RunStateReading))
		assert.ErrorIs(t, other.TransitionTo(RunStateSkipped), ErrInvalidTransition)
	})

	t.Run("failed is reachable from any non-terminal state", func(t *testing.T) {
		for _, path := range [][]RunState{
			{},
			{RunStateLocking},
			{RunStateLocking, RunStateReading},
			{RunStateLocking, RunStateReading, RunStateResolving},
			{RunStateLocking, RunStateReading, RunStateResolving, RunStateWriting},
		} {
			run := NewSyncRun(OperationQuantitySync, nil)
			for _, s := range path {
				require.NoError(t, run.TransitionTo(s))
			}
			require.NoError(t, run.Fail("platform unreachable"))
			assert.Equal(t, RunStateFailed, run.State())
			assert.Equal(t, "platform unreachable", run.FailureReason())
		}
	})

	t.Run("terminal states have no outgoing transitions", func(t *testing.T) {
		run := NewSyncRun(OperationQuantitySync, nil)
		require.NoError(t, run.TransitionTo(RunStateLocking))
		require.NoError(t, run.TransitionTo(RunStateSkipped))

		assert.ErrorIs(t, run.TransitionTo(RunStateReading), ErrInvalidTransition)
		assert.ErrorIs(t, run.TransitionTo(RunStateFailed), ErrInvalidTransition)
	})
}

func TestSyncRun_Duration(t *testing.T) {
	run := NewSyncRun(OperationQuantitySync, nil)
	run.StartedAt = time.Now().Add(-time.Minute)
	completed := run.StartedAt.Add(30 * time.Second)
	run.CompletedAt = &completed

	assert.Equal(t, 30*time.Second, run.Duration())
}

func TestRunState_IsTerminal(t *testing.T) {
	assert.True(t, RunStateCompleted.IsTerminal())
	assert.True(t, RunStateFailed.IsTerminal())
	assert.True(t, RunStateSkipped.IsTerminal())
	assert.False(t, RunStateIdle.IsTerminal())
	assert.False(t, RunStateWriting.IsTerminal())
}

// ABOUTME: Tests for the SQLite-backed journal
// ABOUTME: Exercises delivery and cascade firing lifecycles against a real database file
package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	journal, err := Open(filepath.Join(t.TempDir(), "gehn.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })
	return journal
}

func TestDeliveryLifecycle(t *testing.T) {
	journal := newTestJournal(t)

	id, err := journal.RecordDelivery("WorkItem", "w-1", "Updated")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	deliveries, err := journal.ListDeliveries(10)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, id, deliveries[0].ID)
	assert.Equal(t, "WorkItem", deliveries[0].ResourceType)
	assert.Equal(t, "w-1", deliveries[0].ResourceKey)
	assert.Equal(t, DeliveryReceived, deliveries[0].Status)

	require.NoError(t, journal.CompleteDelivery(id, nil))
	deliveries, err = journal.ListDeliveries(10)
	require.NoError(t, err)
	assert.Equal(t, DeliveryProcessed, deliveries[0].Status)
	assert.Empty(t, deliveries[0].Error)
}

func TestDeliveryFailureKeepsError(t *testing.T) {
	journal := newTestJournal(t)

	id, err := journal.RecordDelivery("Contact", "c-1", "Created")
	require.NoError(t, err)
	require.NoError(t, journal.CompleteDelivery(id, errors.New("karbon unreachable")))

	deliveries, err := journal.ListDeliveries(10)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, DeliveryFailed, deliveries[0].Status)
	assert.Equal(t, "karbon unreachable", deliveries[0].Error)
}

func TestListDeliveriesLimit(t *testing.T) {
	journal := newTestJournal(t)

	for i := 0; i < 5; i++ {
		_, err := journal.RecordDelivery("WorkItem", "w-1", "Updated")
		require.NoError(t, err)
	}

	deliveries, err := journal.ListDeliveries(3)
	require.NoError(t, err)
	assert.Len(t, deliveries, 3)

	// Non-positive limit falls back to the default.
	deliveries, err = journal.ListDeliveries(0)
	require.NoError(t, err)
	assert.Len(t, deliveries, 5)
}

func TestFiringLifecycle(t *testing.T) {
	journal := newTestJournal(t)

	firing, err := journal.FindFiring("w-1", "tmpl-1")
	require.NoError(t, err)
	assert.Nil(t, firing)

	require.NoError(t, journal.RecordFiringIntent("w-1", "tmpl-1"))
	firing, err = journal.FindFiring("w-1", "tmpl-1")
	require.NoError(t, err)
	require.NotNil(t, firing)
	assert.Empty(t, firing.ResultingWorkItemKey)
	assert.False(t, firing.Completed)

	require.NoError(t, journal.MarkFiringCreated("w-1", "tmpl-1", "w-2", "2024-05 Review Pending"))
	firing, err = journal.FindFiring("w-1", "tmpl-1")
	require.NoError(t, err)
	assert.Equal(t, "w-2", firing.ResultingWorkItemKey)
	assert.Equal(t, "2024-05 Review Pending", firing.ResultingTitle)
	assert.False(t, firing.Completed)

	require.NoError(t, journal.MarkFiringCompleted("w-1", "tmpl-1"))
	firing, err = journal.FindFiring("w-1", "tmpl-1")
	require.NoError(t, err)
	assert.True(t, firing.Completed)
}

func TestRecordFiringIntentIsIdempotent(t *testing.T) {
	journal := newTestJournal(t)

	require.NoError(t, journal.RecordFiringIntent("w-1", "tmpl-1"))
	require.NoError(t, journal.MarkFiringCreated("w-1", "tmpl-1", "w-2", "title"))

	// A second intent for the same pair must not clobber the recorded result.
	require.NoError(t, journal.RecordFiringIntent("w-1", "tmpl-1"))
	firing, err := journal.FindFiring("w-1", "tmpl-1")
	require.NoError(t, err)
	assert.Equal(t, "w-2", firing.ResultingWorkItemKey)
}

func TestFiringsAreKeyedPerPair(t *testing.T) {
	journal := newTestJournal(t)

	require.NoError(t, journal.RecordFiringIntent("w-1", "tmpl-1"))
	require.NoError(t, journal.RecordFiringIntent("w-1", "tmpl-2"))

	firing, err := journal.FindFiring("w-1", "tmpl-2")
	require.NoError(t, err)
	require.NotNil(t, firing)

	firing, err = journal.FindFiring("w-2", "tmpl-1")
	require.NoError(t, err)
	assert.Nil(t, firing)
}

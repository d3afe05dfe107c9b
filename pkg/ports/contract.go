package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tracks/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snapshot := &domain.Snapshot{
			SessionID: sessionID,
			Width:     5,
			Height:    4,
			Angle:     135,
			Position:  domain.Position{X: 3, Y: 2},
			Marks:     []domain.Position{{X: 2, Y: 1}, {X: 3, Y: 2}},
			Commands:  7,
		}

		err := store.Save(ctx, sessionID, snapshot)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snapshot, loaded)
	})

	t.Run("Load Returns A Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Angle = 0
		loaded.Marks = append(loaded.Marks, domain.Position{X: 0, Y: 0})

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 135, again.Angle)
		assert.Len(t, again.Marks, 2)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, &domain.Snapshot{Width: 1, Height: 1})
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, &domain.Snapshot{Width: 1, Height: 1})
		_ = store.Save(ctx, id2, &domain.Snapshot{Width: 1, Height: 1})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

package inventory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
	"github.com/speedwagon-io/weatherflux/internal/model"
)

func newTestInventory(t *testing.T) *SQLiteInventory {
	t.Helper()
	inv, err := NewSQLiteInventory(sl.Discard(), filepath.Join(t.TempDir(), "data", "inventory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { inv.Close() })
	return inv
}

func TestSQLiteInventory_TouchInsertsAndUpdates(t *testing.T) {
	inv := newTestInventory(t)
	ctx := context.Background()

	first := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	hub := model.Device{ID: "HB-00000001", Category: model.CategoryHub, IsHub: true, Uptime: 100, FirmwareRevision: 171}

	require.NoError(t, inv.Touch(ctx, Sighting{Device: hub, MessageID: uuid.NewString(), Type: "hub_status", At: first}))

	lastID := uuid.NewString()
	later := first.Add(time.Minute)
	require.NoError(t, inv.Touch(ctx, Sighting{
		Device:    model.Device{ID: hub.ID, Category: model.CategoryHub},
		MessageID: lastID,
		Type:      "rapid_wind",
		At:        later,
	}))

	devices, err := inv.List(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)

	d := devices[0]
	assert.Equal(t, "HB-00000001", d.ID)
	assert.Equal(t, "Hub", d.Category)
	assert.Equal(t, first, d.FirstSeen)
	assert.Equal(t, later, d.LastSeen)
	assert.Equal(t, "rapid_wind", d.LastType)
	assert.Equal(t, lastID, d.LastMessageID)
	assert.Equal(t, int64(100), d.Uptime)
	assert.Equal(t, int64(171), d.FirmwareRevision)
	assert.Equal(t, int64(2), d.Messages)
}

func TestSQLiteInventory_CountAndList(t *testing.T) {
	inv := newTestInventory(t)
	ctx := context.Background()

	for _, id := range []string{"ST-2", "AR-1", "SK-3"} {
		require.NoError(t, inv.Touch(ctx, Sighting{Device: model.Device{ID: id, Category: model.CategoryOf(id)}}))
	}

	count, err := inv.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	devices, err := inv.List(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 3)
	assert.Equal(t, "AR-1", devices[0].ID)
	assert.Equal(t, "Air", devices[0].Category)
}

func TestSQLiteInventory_Prune(t *testing.T) {
	inv := newTestInventory(t)
	ctx := context.Background()

	require.NoError(t, inv.Touch(ctx, Sighting{Device: model.Device{ID: "AR-OLD"}, At: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, inv.Touch(ctx, Sighting{Device: model.Device{ID: "AR-NEW"}, At: time.Now()}))

	require.NoError(t, inv.Prune(ctx, 24*time.Hour))

	devices, err := inv.List(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "AR-NEW", devices[0].ID)
}

func TestSQLiteInventory_Ping(t *testing.T) {
	inv := newTestInventory(t)
	assert.NoError(t, inv.Ping(context.Background()))
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"backend_smartiv/models"
	"backend_smartiv/testutils"
)

func setupHeartbeatServiceTest(t *testing.T) (*gorm.DB, *HeartbeatService) {
	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testutils.CleanupTestDB(db) })

	return db, NewHeartbeatService(NewGormCatalogStore(db), zap.NewNop(), 5*time.Minute)
}

func TestHeartbeatService_RecordPing(t *testing.T) {
	db, hs := setupHeartbeatServiceTest(t)
	ctx := context.Background()
	property := testutils.CreateTestProperty(db, "Hotel A", "C1")
	screen := testutils.CreateTestScreen(db, property.ID, "Lobby", "AA:BB:CC:00:00:01")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hs.now = func() time.Time { return now }

	updated, err := hs.RecordPing(ctx, HeartbeatInput{Code: "AA:BB:CC:00:00:01", IPAddress: "10.1.2.3"})
	require.NoError(t, err)
	assert.Equal(t, screen.ID, updated.ID)
	assert.Equal(t, models.ScreenStatusOnline, updated.Status)
	require.NotNil(t, updated.LastPing)
	assert.True(t, now.Equal(*updated.LastPing))
	require.NotNil(t, updated.IPAddress)
	assert.Equal(t, "10.1.2.3", *updated.IPAddress)

	// Без IP прежний адрес сохраняется
	again, err := hs.RecordPing(ctx, HeartbeatInput{Code: "AA:BB:CC:00:00:01"})
	require.NoError(t, err)
	require.NotNil(t, again.IPAddress)
	assert.Equal(t, "10.1.2.3", *again.IPAddress)

	_, err = hs.RecordPing(ctx, HeartbeatInput{Code: "UNKNOWN"})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = hs.RecordPing(ctx, HeartbeatInput{Code: ""})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestHeartbeatService_SweepStale(t *testing.T) {
	db, hs := setupHeartbeatServiceTest(t)
	ctx := context.Background()
	property := testutils.CreateTestProperty(db, "Hotel A", "C1")
	fresh := testutils.CreateTestScreen(db, property.ID, "Fresh", "S-1")
	stale := testutils.CreateTestScreen(db, property.ID, "Stale", "S-2")
	never := testutils.CreateTestScreen(db, property.ID, "Never", "S-3")
	offline := testutils.CreateTestScreen(db, property.ID, "Offline", "S-4")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hs.now = func() time.Time { return now }

	recent := now.Add(-time.Minute)
	old := now.Add(-time.Hour)
	require.NoError(t, db.Model(fresh).Updates(map[string]any{"status": models.ScreenStatusOnline, "last_ping": recent}).Error)
	require.NoError(t, db.Model(stale).Updates(map[string]any{"status": models.ScreenStatusOnline, "last_ping": old}).Error)
	require.NoError(t, db.Model(never).Update("status", models.ScreenStatusOnline).Error)
	require.NoError(t, db.Model(offline).Update("last_ping", old).Error)

	count, err := hs.SweepStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	statusOf := func(id uint) models.ScreenStatus {
		var s models.Screen
		require.NoError(t, db.First(&s, id).Error)
		return s.Status
	}
	assert.Equal(t, models.ScreenStatusOnline, statusOf(fresh.ID))
	assert.Equal(t, models.ScreenStatusOffline, statusOf(stale.ID))
	assert.Equal(t, models.ScreenStatusOffline, statusOf(never.ID))
	assert.Equal(t, models.ScreenStatusOffline, statusOf(offline.ID))

	count, err = hs.SweepStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestHeartbeatService_StartStop(t *testing.T) {
	_, hs := setupHeartbeatServiceTest(t)

	assert.Error(t, hs.Start("not a schedule"))

	require.NoError(t, hs.Start("@every 1h"))
	hs.Stop()
}

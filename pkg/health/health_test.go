package health

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s-%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestCollectHealthy(t *testing.T) {
	started := time.Now().Add(-time.Minute)
	checker := NewChecker(testDB(t), stubPinger{}, false, false, "1.2.3", started)

	summary := checker.Collect(context.Background())
	require.True(t, summary.Healthy())
	require.Equal(t, StatusOK, summary.Status)
	require.Equal(t, StatusOK, summary.Database)
	require.Equal(t, StatusOK, summary.VpnSuite)
	require.Equal(t, "1.2.3", summary.Version)
	require.NotEmpty(t, summary.Uptime)
	require.False(t, summary.Maintenance)
}

func TestCollectSuiteStates(t *testing.T) {
	db := testDB(t)

	// Not configured: no pinger wired.
	summary := NewChecker(db, nil, false, false, "", time.Now()).Collect(context.Background())
	require.Equal(t, StatusNotConfigured, summary.VpnSuite)
	require.True(t, summary.Healthy())

	// Blocked wins even when a pinger exists.
	summary = NewChecker(db, stubPinger{}, true, false, "", time.Now()).Collect(context.Background())
	require.Equal(t, StatusBlocked, summary.VpnSuite)
	require.True(t, summary.Healthy())

	// An unreachable suite degrades only its own field.
	summary = NewChecker(db, stubPinger{err: errors.New("connection refused")}, false, false, "", time.Now()).Collect(context.Background())
	require.Equal(t, StatusUnavailable, summary.VpnSuite)
	require.Equal(t, StatusOK, summary.Status)
	require.True(t, summary.Healthy())
}

func TestCollectDatabaseDown(t *testing.T) {
	db := testDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	summary := NewChecker(db, nil, false, true, "", time.Now()).Collect(context.Background())
	require.False(t, summary.Healthy())
	require.Equal(t, StatusUnavailable, summary.Status)
	require.Equal(t, StatusUnavailable, summary.Database)
	require.True(t, summary.Maintenance)
}

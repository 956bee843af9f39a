package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/blackfeed/backend/internal/models"
)

func newTestScheduler(t *testing.T, stack *testStack) (*Scheduler, string) {
	t.Helper()
	export, dir := newExportService(t, stack)
	indicators := NewIndicatorService(stack.db, stack.whitelist, stack.audit)
	return NewScheduler(stack.db, stack.ingest, export, indicators, stack.settings), dir
}

func TestSchedulerExportThrottle(t *testing.T) {
	stack := newTestStack(t)
	seedIndicator(t, stack, "1.1.1.1", models.KindIP, true)
	sched, dir := newTestScheduler(t, stack)

	sched.checkExport()
	first := filepath.Join(dir, "IP", "BlackIP0.txt")
	require.FileExists(t, first)

	// Inside the interval the next tick must not regenerate.
	require.NoError(t, os.Remove(first))
	sched.checkExport()
	_, err := os.Stat(first)
	assert.True(t, os.IsNotExist(err))

	// Pretend the interval elapsed.
	sched.mu.Lock()
	sched.lastExport = time.Now().Add(-time.Hour)
	sched.mu.Unlock()
	sched.checkExport()
	assert.FileExists(t, first)
}

func TestSchedulerDispatchesDueSources(t *testing.T) {
	stack := newTestStack(t)
	srv := feedServer(t, "1.2.3.4\n")

	due := createSource(t, stack, "due-feed", srv.URL, "ip")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, stack.db.Model(due).Update("last_fetch_at", past).Error)

	fresh := createSource(t, stack, "fresh-feed", srv.URL, "ip")
	now := time.Now()
	require.NoError(t, stack.db.Model(fresh).Update("last_fetch_at", now).Error)

	paused := createSource(t, stack, "paused-feed", srv.URL, "ip")
	require.NoError(t, stack.db.Model(paused).
		Updates(map[string]interface{}{"paused": true, "last_fetch_at": past}).Error)

	sched, _ := newTestScheduler(t, stack)
	sched.checkSources()

	require.Eventually(t, func() bool {
		var src models.DataSource
		if err := stack.db.First(&src, due.ID).Error; err != nil {
			return false
		}
		return src.Status == models.SourceStatusSuccess
	}, 3*time.Second, 20*time.Millisecond, "the overdue source ingests")

	var freshAfter, pausedAfter models.DataSource
	require.NoError(t, stack.db.First(&freshAfter, fresh.ID).Error)
	require.NoError(t, stack.db.First(&pausedAfter, paused.ID).Error)
	assert.Equal(t, models.SourceStatusPending, freshAfter.Status, "a source inside its interval is left alone")
	assert.Equal(t, models.SourceStatusPending, pausedAfter.Status, "a paused source is never dispatched")
}

func TestSchedulerPurgesExpiredTempActivations(t *testing.T) {
	stack := newTestStack(t)
	expired := time.Now().Add(-time.Minute)
	ind := &models.Indicator{
		Value:           "1.2.3.4",
		Kind:            models.KindIP,
		Origin:          OriginManual,
		Active:          true,
		TempActiveUntil: &expired,
	}
	require.NoError(t, stack.db.Create(ind).Error)

	sched, _ := newTestScheduler(t, stack)
	sched.purgeTempActivations()

	var after models.Indicator
	require.NoError(t, stack.db.First(&after, ind.ID).Error)
	assert.False(t, after.Active)
	assert.Nil(t, after.TempActiveUntil)
}

func TestSchedulerStartStop(t *testing.T) {
	stack := newTestStack(t)
	sched, _ := newTestScheduler(t, stack)

	require.NoError(t, sched.Start())
	sched.Stop()
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrStr(s string) *string        { return &s }

func TestDecideRefresh_ForceRefreshWins(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	meta := models.CacheMeta{LastRefreshedAt: ptrTime(now)}

	d := DecideRefresh(now, meta, true, nil, true, 72*time.Hour)
	assert.True(t, d.ShouldRefresh)
	assert.Equal(t, ReasonForceRefresh, d.Reason)
}

func TestDecideRefresh_ColdStart(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	d := DecideRefresh(now, models.CacheMeta{}, false, nil, false, 72*time.Hour)
	assert.True(t, d.ShouldRefresh)
	assert.Equal(t, ReasonColdStart, d.Reason)
}

func TestDecideRefresh_MissingLastRefreshDate(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	d := DecideRefresh(now, models.CacheMeta{}, true, nil, false, 72*time.Hour)
	assert.True(t, d.ShouldRefresh)
	assert.Equal(t, ReasonMissingLastRefreshDate, d.Reason)
}

func TestDecideRefresh_NoEarningsDate_RecentStaysCached(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	meta := models.CacheMeta{LastRefreshedAt: ptrTime(now.Add(-time.Hour))}

	d := DecideRefresh(now, meta, true, nil, false, 72*time.Hour)
	assert.False(t, d.ShouldRefresh)
	assert.Equal(t, ReasonNoEarningsDateRecent, d.Reason)
}

func TestDecideRefresh_NoEarningsDate_StaleTimesOut(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	meta := models.CacheMeta{LastRefreshedAt: ptrTime(now.Add(-100 * time.Hour))}

	d := DecideRefresh(now, meta, true, nil, false, 72*time.Hour)
	assert.True(t, d.ShouldRefresh)
	assert.Equal(t, ReasonNoEarningsDateStaleTimeout, d.Reason)
}

func TestDecideRefresh_CachedEarningsDay_BeforePasses(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	meta := models.CacheMeta{
		LastRefreshedAt:  ptrTime(now.Add(-time.Hour)),
		NextEarningsDate: ptrStr("2026-08-15"),
	}

	d := DecideRefresh(now, meta, true, nil, false, 72*time.Hour)
	assert.False(t, d.ShouldRefresh)
	assert.Equal(t, ReasonBeforeCachedEarningsDay, d.Reason)
}

func TestDecideRefresh_CachedEarningsDay_PassedSinceLastRefreshTriggersRefresh(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	meta := models.CacheMeta{
		LastRefreshedAt:  ptrTime(now.Add(-48 * time.Hour)),
		NextEarningsDate: ptrStr("2026-07-29"),
	}

	d := DecideRefresh(now, meta, true, nil, false, 72*time.Hour)
	assert.True(t, d.ShouldRefresh)
	assert.Equal(t, ReasonCachedEarningsDayPassed, d.Reason)
}

func TestDecideRefresh_CachedEarningsDay_AlreadyRefreshedAfterIsNoop(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	meta := models.CacheMeta{
		LastRefreshedAt:  ptrTime(now.Add(-1 * time.Hour)),
		NextEarningsDate: ptrStr("2026-07-29"),
	}

	d := DecideRefresh(now, meta, true, nil, false, 72*time.Hour)
	assert.False(t, d.ShouldRefresh)
	assert.Equal(t, ReasonAlreadyRefreshedAfterCached, d.Reason)
}

func TestDecideRefresh_ConfirmedEarningsOverridesCached(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	meta := models.CacheMeta{
		LastRefreshedAt:  ptrTime(now.Add(-48 * time.Hour)),
		NextEarningsDate: ptrStr("2026-08-15"), // stale cached date would say "before"
	}
	confirmed := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC) // but upstream now says it already passed

	d := DecideRefresh(now, meta, true, &confirmed, false, 72*time.Hour)
	assert.True(t, d.ShouldRefresh)
	assert.Equal(t, ReasonEarningsDayPassed, d.Reason)
}

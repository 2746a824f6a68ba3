package cache

import (
	"time"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// Refresh reasons (spec §4.2). Every decision the policy reaches is tagged
// with exactly one of these, persisted into CacheMeta.RefreshReason so the
// next decision (and any operator inspecting a snapshot) can see why.
const (
	ReasonForceRefresh                  = "force_refresh"
	ReasonColdStart                     = "cold_start"
	ReasonMissingLastRefreshDate        = "missing_last_refresh_date"
	ReasonBeforeCachedEarningsDay       = "before_cached_earnings_day"
	ReasonCachedEarningsDayPassed       = "cached_earnings_day_passed"
	ReasonAlreadyRefreshedAfterCached   = "already_refreshed_after_cached_earnings"
	ReasonNoEarningsDateStaleTimeout    = "no_earnings_date_stale_timeout"
	ReasonNoEarningsDateRecent          = "no_earnings_date_recent"
	ReasonBeforeEarningsDay             = "before_earnings_day"
	ReasonAlreadyRefreshedAfterEarnings = "already_refreshed_after_earnings"
	ReasonEarningsDayPassed             = "earnings_day_passed"
)

// RefreshDecision is the outcome of DecideRefresh.
type RefreshDecision struct {
	ShouldRefresh bool
	Reason        string
}

// DecideRefresh implements the refresh-policy state machine (spec §4.2).
//
// hasCached reports whether an L2 snapshot exists at all. confirmedEarnings,
// when non-nil, is a freshly resolved earnings date (the supplemented
// cross-engine MarketDataAdapter.EarningsCalendar lookup); it takes
// precedence over meta's own cached NextEarningsDate, which was only known
// as of the last refresh. When neither is available the policy falls back
// to a pure staleness timeout.
func DecideRefresh(
	now time.Time,
	meta models.CacheMeta,
	hasCached bool,
	confirmedEarnings *time.Time,
	forceRefresh bool,
	noEarningsMaxStaleness time.Duration,
) RefreshDecision {
	if forceRefresh {
		return RefreshDecision{ShouldRefresh: true, Reason: ReasonForceRefresh}
	}
	if !hasCached {
		return RefreshDecision{ShouldRefresh: true, Reason: ReasonColdStart}
	}
	if meta.LastRefreshedAt == nil {
		return RefreshDecision{ShouldRefresh: true, Reason: ReasonMissingLastRefreshDate}
	}
	lastRefreshed := *meta.LastRefreshedAt

	if confirmedEarnings != nil {
		return decideAgainstEarningsDay(now, lastRefreshed, *confirmedEarnings, true)
	}
	if meta.NextEarningsDate != nil {
		if cached, err := time.Parse("2006-01-02", *meta.NextEarningsDate); err == nil {
			return decideAgainstEarningsDay(now, lastRefreshed, cached, false)
		}
	}

	if now.Sub(lastRefreshed) > noEarningsMaxStaleness {
		return RefreshDecision{ShouldRefresh: true, Reason: ReasonNoEarningsDateStaleTimeout}
	}
	return RefreshDecision{ShouldRefresh: false, Reason: ReasonNoEarningsDateRecent}
}

func decideAgainstEarningsDay(now, lastRefreshed, earningsDay time.Time, confirmed bool) RefreshDecision {
	beforeReason, passedReason, alreadyReason := ReasonBeforeCachedEarningsDay, ReasonCachedEarningsDayPassed, ReasonAlreadyRefreshedAfterCached
	if confirmed {
		beforeReason, passedReason, alreadyReason = ReasonBeforeEarningsDay, ReasonEarningsDayPassed, ReasonAlreadyRefreshedAfterEarnings
	}

	if now.Before(earningsDay) {
		return RefreshDecision{ShouldRefresh: false, Reason: beforeReason}
	}
	if !lastRefreshed.Before(earningsDay) {
		return RefreshDecision{ShouldRefresh: false, Reason: alreadyReason}
	}
	return RefreshDecision{ShouldRefresh: true, Reason: passedReason}
}

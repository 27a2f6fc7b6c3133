package schedule

import "time"

// NeedsForceRefresh reports whether a repo whose mtime is repoMtime
// (unix seconds) has gone stale relative to its branch's configured
// TTL, per spec.md §4.4 step 4: "force-refresh when now - repo.mtime
// > ttl(branch)". ttlDays <= 0 disables the check.
func NeedsForceRefresh(repoMtime int64, ttlDays int, now time.Time) bool {
	if ttlDays <= 0 {
		return false
	}
	age := now.Sub(time.Unix(repoMtime, 0))
	return age > time.Duration(ttlDays)*24*time.Hour
}

// NeedsQARun reports whether the QA/materializer pass is due, per
// spec.md §6's qa_interval config key (seconds between forced
// materializer refreshes independent of scan activity). intervalSecs
// <= 0 disables the interval check (every scan triggers a refresh,
// the existing Refresh() behavior).
func NeedsQARun(lastRun time.Time, intervalSecs int, now time.Time) bool {
	if intervalSecs <= 0 {
		return true
	}
	return now.Sub(lastRun) > time.Duration(intervalSecs)*time.Second
}

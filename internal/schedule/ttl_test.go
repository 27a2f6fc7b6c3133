package schedule

import (
	"testing"
	"time"
)

func TestNeedsForceRefresh(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	stale := now.Add(-4 * 24 * time.Hour).Unix()
	if !NeedsForceRefresh(stale, 3, now) {
		t.Errorf("expected a 4-day-old repo to need a force refresh at ttl=3")
	}

	fresh := now.Add(-1 * time.Hour).Unix()
	if NeedsForceRefresh(fresh, 3, now) {
		t.Errorf("expected a fresh repo not to need a force refresh")
	}

	if NeedsForceRefresh(stale, 0, now) {
		t.Errorf("expected ttlDays<=0 to disable the check")
	}
}

func TestNeedsQARun(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	if !NeedsQARun(now.Add(-2*time.Hour), 3600, now) {
		t.Errorf("expected a QA run overdue by an hour to be due")
	}
	if NeedsQARun(now.Add(-10*time.Second), 3600, now) {
		t.Errorf("expected a recent QA run not to be due")
	}
	if !NeedsQARun(now, 0, now) {
		t.Errorf("expected intervalSecs<=0 to always report due")
	}
}

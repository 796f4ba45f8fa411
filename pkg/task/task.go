// Package task defines the per-directory unit of work scheduled by
// arachne, and its revisit bookkeeping.
package task

import (
	"time"

	"github.com/cuemby/arachne/pkg/crawlurl"
)

// Task is a pending request to list the directory at URL, belonging to
// SiteID. The zero value (RevisitWait == 0) represents a directory that
// has never been successfully visited — see FirstVisit.
//
// Task is mutated only through ReportVisit and SetRevisitWait; both
// maintain the invariant 0 <= ChangeCount <= RevisitCount.
type Task struct {
	SiteID       string
	URL          crawlurl.URL
	RevisitWait  time.Duration
	RevisitCount int
	ChangeCount  int
}

// New creates a task for a directory that has not yet been visited.
func New(siteID string, url crawlurl.URL) *Task {
	return &Task{SiteID: siteID, URL: url}
}

// FirstVisit reports whether this task has never completed a visit that
// assigned it a revisit cadence. The scheduler uses this to decide
// between PutVisited and PutRevisited after a successful execution.
func (t *Task) FirstVisit() bool {
	return t.RevisitWait == 0
}

// ReportVisit records the outcome of a revisit: RevisitCount always
// increments, and ChangeCount increments too when changed is true.
func (t *Task) ReportVisit(changed bool) {
	if changed {
		t.ChangeCount++
	}
	t.RevisitCount++
}

// SetRevisitWait assigns a new revisit interval and resets both
// counters to zero, per the spec's counter-reset invariant.
func (t *Task) SetRevisitWait(d time.Duration) {
	t.RevisitWait = d
	t.RevisitCount = 0
	t.ChangeCount = 0
}

// Clone returns a deep-enough copy safe to mutate independently (URL is
// itself an immutable value, so a shallow copy suffices).
func (t *Task) Clone() *Task {
	c := *t
	return &c
}

// Package streak computes reading streaks and per-day activity from a user's
// read chapters and cheat days.
//
// Everything here is pure: callers pass in a snapshot of both collections and
// an explicit "today", and get the same answer every time for the same input.
package streak

import (
	"slices"
	"time"
)

// Status classifies a single calendar day.
type Status string

// Day classifications. StatusNone is used for today and future days without
// activity.
const (
	StatusNone   Status = ""
	StatusRead   Status = "read"
	StatusCheat  Status = "cheat"
	StatusMissed Status = "missed"
)

// Activity is the set of active days of one user, derived from a snapshot of
// their read chapters and cheat days.
type Activity struct {
	read  map[Day]struct{}
	cheat map[Day]struct{}
	days  []Day // union of read and cheat, ascending
}

// NewActivity derives an Activity from read timestamps (chapter id -> read at)
// and cheat days. Read timestamps are converted to dates in loc; several reads
// on the same date collapse to one active day.
func NewActivity(reads map[string]time.Time, cheats map[Day]time.Time, loc *time.Location) *Activity {
	a := &Activity{
		read:  make(map[Day]struct{}, len(reads)),
		cheat: make(map[Day]struct{}, len(cheats)),
	}
	for _, t := range reads {
		if t.IsZero() {
			continue
		}
		a.read[DayOf(t, loc)] = struct{}{}
	}
	for d := range cheats {
		if d.IsZero() {
			continue
		}
		a.cheat[d] = struct{}{}
	}
	return a.index()
}

// FromDays builds an Activity from already-derived read and cheat dates.
func FromDays(read, cheat []Day) *Activity {
	a := &Activity{
		read:  make(map[Day]struct{}, len(read)),
		cheat: make(map[Day]struct{}, len(cheat)),
	}
	for _, d := range read {
		a.read[d] = struct{}{}
	}
	for _, d := range cheat {
		a.cheat[d] = struct{}{}
	}
	return a.index()
}

func (a *Activity) index() *Activity {
	seen := make(map[Day]struct{}, len(a.read)+len(a.cheat))
	for d := range a.read {
		seen[d] = struct{}{}
	}
	for d := range a.cheat {
		seen[d] = struct{}{}
	}
	a.days = make([]Day, 0, len(seen))
	for d := range seen {
		a.days = append(a.days, d)
	}
	slices.SortFunc(a.days, compareDays)
	return a
}

func compareDays(x, y Day) int {
	switch {
	case x.Before(y):
		return -1
	case y.Before(x):
		return 1
	}
	return 0
}

// Active reports whether d has a read chapter or a cheat day.
func (a *Activity) Active(d Day) bool {
	_, r := a.read[d]
	_, c := a.cheat[d]
	return r || c
}

// IsCheat reports whether d is a declared cheat day.
func (a *Activity) IsCheat(d Day) bool {
	_, ok := a.cheat[d]
	return ok
}

// IsRead reports whether at least one chapter was read on d.
func (a *Activity) IsRead(d Day) bool {
	_, ok := a.read[d]
	return ok
}

// Days returns all active days in ascending order.
func (a *Activity) Days() []Day {
	return slices.Clone(a.days)
}

// Len returns the number of distinct active days.
func (a *Activity) Len() int {
	return len(a.days)
}

// Current returns the length of the run of active days ending today, or
// ending yesterday when today has no activity yet. It is 0 when neither today
// nor yesterday is active.
func (a *Activity) Current(today Day) int {
	start := today
	if !a.Active(today) {
		start = today.AddDays(-1)
	}
	n := 0
	for d := start; a.Active(d); d = d.AddDays(-1) {
		n++
	}
	return n
}

// Longest returns the length of the longest run of consecutive active days.
func (a *Activity) Longest() int {
	longest := 0
	for _, seg := range a.runs() {
		longest = max(longest, seg.Length)
	}
	return longest
}

// Classify returns the display status of d relative to today. A cheat day
// wins over a read day; a past day with neither is missed.
func (a *Activity) Classify(d, today Day) Status {
	switch {
	case a.IsCheat(d):
		return StatusCheat
	case a.IsRead(d):
		return StatusRead
	case d.Before(today):
		return StatusMissed
	}
	return StatusNone
}

// Stats is the pair of streak figures shown to users.
type Stats struct {
	Current int
	Longest int
}

// Stats returns the current and longest streak as of today.
func (a *Activity) Stats(today Day) Stats {
	return Stats{Current: a.Current(today), Longest: a.Longest()}
}

// Package stats turns activity snapshots into streak figures in each user's
// local calendar and keeps the leaderboard copy of those figures current.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"streaker/internal/model"
	"streaker/internal/storage"
	"streaker/internal/streak"
)

// Store is the persistence the recorder needs.
type Store interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	SaveStats(ctx context.Context, st model.StreakStats) error
}

// Summary is a snapshot evaluated in a user's timezone on a given day.
type Summary struct {
	Activity *streak.Activity
	Today    streak.Day
	Location *time.Location
	Stats    streak.Stats
}

// Recorder evaluates snapshots and persists the resulting streak stats.
type Recorder struct {
	store Store
	loc   *time.Location
	now   func() time.Time
	log   *slog.Logger
}

// NewRecorder creates a Recorder. defaultLoc is used for users without a
// timezone of their own.
func NewRecorder(store Store, defaultLoc *time.Location, log *slog.Logger) *Recorder {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &Recorder{store: store, loc: defaultLoc, now: time.Now, log: log}
}

// SetClock overrides the wall clock used to determine "today".
func (r *Recorder) SetClock(now func() time.Time) {
	r.now = now
}

// Location returns the timezone streaks of u are evaluated in.
func (r *Recorder) Location(u *model.User) *time.Location {
	if u == nil {
		return r.loc
	}
	return u.Location(r.loc)
}

// Today returns the current date for u.
func (r *Recorder) Today(u *model.User) streak.Day {
	return streak.Today(r.now(), r.Location(u))
}

// Summarize evaluates snap for u as of now.
func (r *Recorder) Summarize(u *model.User, snap model.Snapshot) Summary {
	loc := r.Location(u)
	today := streak.Today(r.now(), loc)
	a := streak.NewActivity(snap.Reads, snap.Cheats, loc)
	return Summary{
		Activity: a,
		Today:    today,
		Location: loc,
		Stats:    a.Stats(today),
	}
}

// Record evaluates snap and stores the figures for leaderboards.
func (r *Recorder) Record(ctx context.Context, snap model.Snapshot) (Summary, error) {
	u, err := r.store.GetUser(ctx, snap.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Summary{}, fmt.Errorf("get user: %w", err)
	}

	sum := r.Summarize(u, snap)
	err = r.store.SaveStats(ctx, model.StreakStats{
		UserID:  snap.UserID,
		Current: sum.Stats.Current,
		Longest: sum.Stats.Longest,
		AsOf:    sum.Today,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("save stats: %w", err)
	}
	return sum, nil
}

// OnSnapshot records snap and logs failures. It matches activity.Listener.
func (r *Recorder) OnSnapshot(ctx context.Context, snap model.Snapshot) {
	sum, err := r.Record(ctx, snap)
	if err != nil {
		r.log.Error("record stats", "user_id", snap.UserID, "error", err)
		return
	}
	r.log.Debug("recorded stats",
		"user_id", snap.UserID,
		"current", sum.Stats.Current,
		"longest", sum.Stats.Longest,
		"as_of", sum.Today.String(),
	)
}

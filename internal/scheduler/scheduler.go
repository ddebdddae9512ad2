// Package scheduler keeps stored streak stats fresh across day boundaries.
//
// A streak can break without any new activity: when a user's local date
// moves past the grace day, their current streak drops to zero. The
// scheduler notices users whose stored stats were computed for an earlier
// date and recomputes them.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"streaker/internal/model"
	"streaker/internal/stats"
	"streaker/internal/storage"
)

// Store is the persistence the scheduler reads from.
type Store interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetStats(ctx context.Context, userID int64) (*model.StreakStats, error)
	LoadSnapshot(ctx context.Context, userID int64) (model.Snapshot, error)
}

// Scheduler periodically refreshes stale streak stats.
type Scheduler struct {
	store    Store
	recorder *stats.Recorder
	log      *slog.Logger
	tick     time.Duration
}

// New creates a Scheduler that checks once a minute.
func New(store Store, recorder *stats.Recorder, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		recorder: recorder,
		log:      log,
		tick:     1 * time.Minute,
	}
}

// SetTickInterval overrides the default 1-minute check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	if d > 0 {
		s.tick = d
	}
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.refreshAll(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshAll(ctx)
		}
	}
}

func (s *Scheduler) refreshAll(ctx context.Context) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		s.log.Error("list users", "error", err)
		return
	}

	refreshed := 0
	for i := range users {
		if ctx.Err() != nil {
			return
		}
		if s.refreshUser(ctx, &users[i]) {
			refreshed++
		}
	}

	if refreshed > 0 {
		s.log.Info("refreshed streak stats", "count", refreshed)
	}
}

// refreshUser recomputes the stats of u when they are missing or were
// computed for another date. It reports whether stats were rewritten.
func (s *Scheduler) refreshUser(ctx context.Context, u *model.User) bool {
	today := s.recorder.Today(u)

	st, err := s.store.GetStats(ctx, u.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		s.log.Error("get stats", "user_id", u.ID, "error", err)
		return false
	case st.AsOf == today:
		return false
	}

	snap, err := s.store.LoadSnapshot(ctx, u.ID)
	if err != nil {
		s.log.Error("load snapshot", "user_id", u.ID, "error", err)
		return false
	}
	if _, err := s.recorder.Record(ctx, snap); err != nil {
		s.log.Error("record stats", "user_id", u.ID, "error", err)
		return false
	}
	s.log.Debug("refreshed stats", "user_id", u.ID, "as_of", today.String())
	return true
}

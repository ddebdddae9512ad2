// Package activity owns a user's reading activity: it applies toggles to
// storage and pushes full snapshots to subscribers after every change.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"streaker/internal/model"
	"streaker/internal/streak"
)

// Store is the persistence the hub needs.
type Store interface {
	MarkRead(ctx context.Context, userID int64, chapterID string, at time.Time) error
	UnmarkRead(ctx context.Context, userID int64, chapterID string) (bool, error)
	SetCheatDay(ctx context.Context, userID int64, day streak.Day, on bool, at time.Time) (bool, error)
	LoadSnapshot(ctx context.Context, userID int64) (model.Snapshot, error)
}

// Listener receives every snapshot published for any user.
type Listener func(ctx context.Context, snap model.Snapshot)

// Hub serialises changes per user and fans snapshots out to subscribers.
// Callbacks run synchronously on the goroutine that caused the change and
// must not call back into the hub for the same user.
type Hub struct {
	store Store
	log   *slog.Logger
	now   func() time.Time

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
	subs      map[int64]map[uuid.UUID]func(model.Snapshot)
	listeners map[uuid.UUID]Listener
}

// NewHub creates a Hub on top of store.
func NewHub(store Store, log *slog.Logger) *Hub {
	return &Hub{
		store:     store,
		log:       log,
		now:       time.Now,
		userLocks: make(map[int64]*sync.Mutex),
		subs:      make(map[int64]map[uuid.UUID]func(model.Snapshot)),
		listeners: make(map[uuid.UUID]Listener),
	}
}

// SetClock overrides the time source used to stamp reads and cheat days.
func (h *Hub) SetClock(now func() time.Time) {
	h.now = now
}

func (h *Hub) lockUser(userID int64) func() {
	h.mu.Lock()
	l, ok := h.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		h.userLocks[userID] = l
	}
	h.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Subscribe registers onSnapshot for userID. The current snapshot is
// delivered before Subscribe returns, then again after every change. The
// returned function removes the subscription and is safe to call twice.
func (h *Hub) Subscribe(ctx context.Context, userID int64, onSnapshot func(model.Snapshot)) (func(), error) {
	unlock := h.lockUser(userID)
	defer unlock()

	snap, err := h.store.LoadSnapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	id := uuid.New()
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[uuid.UUID]func(model.Snapshot))
	}
	h.subs[userID][id] = onSnapshot
	h.mu.Unlock()

	h.log.Debug("subscribed", "user_id", userID, "subscription", id)
	onSnapshot(snap)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			h.log.Debug("unsubscribed", "user_id", userID, "subscription", id)
		})
	}, nil
}

// Listen registers l for snapshots of all users and returns a function that
// removes it.
func (h *Hub) Listen(l Listener) func() {
	id := uuid.New()
	h.mu.Lock()
	h.listeners[id] = l
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// Snapshot returns the current activity of a user without subscribing.
func (h *Hub) Snapshot(ctx context.Context, userID int64) (model.Snapshot, error) {
	snap, err := h.store.LoadSnapshot(ctx, userID)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// MarkRead marks a chapter read now and returns the resulting snapshot.
func (h *Hub) MarkRead(ctx context.Context, userID int64, chapterID string) (model.Snapshot, error) {
	return h.mutate(ctx, userID, func() (bool, error) {
		return true, h.store.MarkRead(ctx, userID, chapterID, h.now())
	})
}

// UnmarkRead removes a read mark and returns the resulting snapshot. The
// bool result reports whether the chapter had been marked.
func (h *Hub) UnmarkRead(ctx context.Context, userID int64, chapterID string) (model.Snapshot, bool, error) {
	var removed bool
	snap, err := h.mutate(ctx, userID, func() (bool, error) {
		var err error
		removed, err = h.store.UnmarkRead(ctx, userID, chapterID)
		return removed, err
	})
	return snap, removed, err
}

// SetCheatDay declares or withdraws a cheat day. Repeating a call is a no-op
// and publishes nothing.
func (h *Hub) SetCheatDay(ctx context.Context, userID int64, day streak.Day, on bool) (model.Snapshot, error) {
	return h.mutate(ctx, userID, func() (bool, error) {
		return h.store.SetCheatDay(ctx, userID, day, on, h.now())
	})
}

// ToggleCheatDay flips the cheat state of day and reports the new state.
func (h *Hub) ToggleCheatDay(ctx context.Context, userID int64, day streak.Day) (model.Snapshot, bool, error) {
	var on bool
	snap, err := h.mutate(ctx, userID, func() (bool, error) {
		cur, err := h.store.LoadSnapshot(ctx, userID)
		if err != nil {
			return false, err
		}
		_, declared := cur.Cheats[day]
		on = !declared
		return h.store.SetCheatDay(ctx, userID, day, on, h.now())
	})
	return snap, on, err
}

// mutate applies change under the user's lock and, when it reports a change,
// publishes the reloaded snapshot.
func (h *Hub) mutate(ctx context.Context, userID int64, change func() (bool, error)) (model.Snapshot, error) {
	unlock := h.lockUser(userID)
	defer unlock()

	changed, err := change()
	if err != nil {
		return model.Snapshot{}, err
	}

	snap, err := h.store.LoadSnapshot(ctx, userID)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	if changed {
		h.publish(ctx, snap)
	}
	return snap, nil
}

func (h *Hub) publish(ctx context.Context, snap model.Snapshot) {
	h.mu.Lock()
	subs := make([]func(model.Snapshot), 0, len(h.subs[snap.UserID]))
	for _, fn := range h.subs[snap.UserID] {
		subs = append(subs, fn)
	}
	listeners := make([]Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	h.log.Debug("publish snapshot",
		"user_id", snap.UserID,
		"reads", len(snap.Reads),
		"cheats", len(snap.Cheats),
		"subscribers", len(subs),
	)

	for _, fn := range subs {
		fn(snap)
	}
	for _, l := range listeners {
		l(ctx, snap)
	}
}

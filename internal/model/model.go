// Package model defines the domain types used across the application.
package model

import (
	"strconv"
	"time"

	"streaker/internal/streak"
)

// User is a Telegram user tracking their reading.
type User struct {
	ID         int64
	ChatID     int64
	Name       string
	Timezone   string
	InviteCode string
	CreatedAt  time.Time
}

// DisplayName returns the user's chosen name, or a placeholder built from the
// user ID.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return "user" + strconv.FormatInt(u.ID, 10)
}

// Location resolves the user's timezone, falling back to def when unset or
// unknown.
func (u *User) Location(def *time.Location) *time.Location {
	if u.Timezone == "" {
		return def
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return def
	}
	return loc
}

// ReadEvent records that a user marked a chapter as read.
type ReadEvent struct {
	UserID    int64
	ChapterID string
	ReadAt    time.Time
}

// CheatDay is a user-declared day that keeps a streak alive without reading.
type CheatDay struct {
	UserID     int64
	Date       streak.Day
	DeclaredAt time.Time
}

// Snapshot is the full reading activity of one user at a point in time.
// Reads maps chapter ID to read time; Cheats maps cheat date to the time it
// was declared.
type Snapshot struct {
	UserID int64
	Reads  map[string]time.Time
	Cheats map[streak.Day]time.Time
}

// LastRead returns the most recently read chapter, if any.
func (s Snapshot) LastRead() (ReadEvent, bool) {
	var last ReadEvent
	found := false
	for id, at := range s.Reads {
		if !found || at.After(last.ReadAt) || (at.Equal(last.ReadAt) && id > last.ChapterID) {
			last = ReadEvent{UserID: s.UserID, ChapterID: id, ReadAt: at}
			found = true
		}
	}
	return last, found
}

// ReadSet returns the IDs of all read chapters.
func (s Snapshot) ReadSet() map[string]bool {
	out := make(map[string]bool, len(s.Reads))
	for id := range s.Reads {
		out[id] = true
	}
	return out
}

// FriendRequest is a pending friendship invitation.
type FriendRequest struct {
	FromID    int64
	ToID      int64
	CreatedAt time.Time
}

// Friend is one side of an accepted friendship.
type Friend struct {
	UserID   int64
	FriendID int64
	Since    time.Time
}

// StreakStats is the last computed streak of a user, kept for leaderboards.
type StreakStats struct {
	UserID    int64
	Current   int
	Longest   int
	AsOf      streak.Day
	UpdatedAt time.Time
}

// LeaderboardEntry is one row of a friends leaderboard.
type LeaderboardEntry struct {
	UserID  int64
	Name    string
	Current int
	Longest int
}

// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"streaker/internal/model"
	"streaker/internal/streak"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	EnsureUser(ctx context.Context, id, chatID int64) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByInviteCode(ctx context.Context, code string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error

	MarkRead(ctx context.Context, userID int64, chapterID string, at time.Time) error
	UnmarkRead(ctx context.Context, userID int64, chapterID string) (bool, error)
	SetCheatDay(ctx context.Context, userID int64, day streak.Day, on bool, at time.Time) (bool, error)
	LoadSnapshot(ctx context.Context, userID int64) (model.Snapshot, error)

	CreateFriendRequest(ctx context.Context, fromID, toID int64) error
	DeleteFriendRequest(ctx context.Context, fromID, toID int64) (bool, error)
	ListIncomingRequests(ctx context.Context, userID int64) ([]model.FriendRequest, error)
	ListOutgoingRequests(ctx context.Context, userID int64) ([]model.FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, fromID, toID int64) error
	ListFriends(ctx context.Context, userID int64) ([]model.Friend, error)
	AreFriends(ctx context.Context, a, b int64) (bool, error)
	RemoveFriend(ctx context.Context, a, b int64) (bool, error)

	SaveStats(ctx context.Context, st model.StreakStats) error
	GetStats(ctx context.Context, userID int64) (*model.StreakStats, error)
	Leaderboard(ctx context.Context, userID int64) ([]model.LeaderboardEntry, error)

	Close() error
}

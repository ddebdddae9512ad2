package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"streaker/internal/model"
	"streaker/internal/streak"
	"streaker/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// writers the way SQLite expects.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func newInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// EnsureUser creates the user on first contact and keeps the chat ID current.
func (s *SQLite) EnsureUser(ctx context.Context, id, chatID int64) (*model.User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, chat_id, invite_code, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET chat_id = excluded.chat_id`,
		id, chatID, newInviteCode(), now(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetUser(ctx, id)
}

const userColumns = `id, chat_id, name, timezone, invite_code, created_at`

// GetUser returns a single user by ID.
func (s *SQLite) GetUser(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByInviteCode returns the user owning an invite code.
func (s *SQLite) GetUserByInviteCode(ctx context.Context, code string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE invite_code = ?`, code)
	return scanUser(row)
}

// ListUsers returns all known users.
func (s *SQLite) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser persists the user's name and timezone.
func (s *SQLite) UpdateUser(ctx context.Context, u *model.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, timezone = ? WHERE id = ?`,
		u.Name, u.Timezone, u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRead records a chapter as read at the given time, overwriting an
// earlier mark of the same chapter.
func (s *SQLite) MarkRead(ctx context.Context, userID int64, chapterID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO read_chapters (user_id, chapter_id, read_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, chapter_id) DO UPDATE SET read_at = excluded.read_at`,
		userID, chapterID, at.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// UnmarkRead removes a read mark. It reports whether a mark existed.
func (s *SQLite) UnmarkRead(ctx context.Context, userID int64, chapterID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM read_chapters WHERE user_id = ? AND chapter_id = ?`, userID, chapterID,
	)
	if err != nil {
		return false, fmt.Errorf("unmark read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SetCheatDay declares (on) or withdraws (!on) a cheat day. Repeating the
// same call is a no-op; the result reports whether anything changed.
func (s *SQLite) SetCheatDay(ctx context.Context, userID int64, day streak.Day, on bool, at time.Time) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if on {
		res, err = s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO cheat_days (user_id, day, declared_at) VALUES (?, ?, ?)`,
			userID, day.String(), at.UTC().Format(timeLayout),
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM cheat_days WHERE user_id = ? AND day = ?`, userID, day.String(),
		)
	}
	if err != nil {
		return false, fmt.Errorf("set cheat day: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// LoadSnapshot reads both activity collections of a user in one transaction.
func (s *SQLite) LoadSnapshot(ctx context.Context, userID int64) (model.Snapshot, error) {
	snap := model.Snapshot{
		UserID: userID,
		Reads:  make(map[string]time.Time),
		Cheats: make(map[streak.Day]time.Time),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return snap, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT chapter_id, read_at FROM read_chapters WHERE user_id = ?`, userID,
	)
	if err != nil {
		return snap, fmt.Errorf("query read chapters: %w", err)
	}
	for rows.Next() {
		var id, readAt string
		if err := rows.Scan(&id, &readAt); err != nil {
			_ = rows.Close()
			return snap, fmt.Errorf("scan read chapter: %w", err)
		}
		snap.Reads[id], _ = time.Parse(timeLayout, readAt)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return snap, fmt.Errorf("iterate read chapters: %w", err)
	}
	_ = rows.Close()

	rows, err = tx.QueryContext(ctx,
		`SELECT day, declared_at FROM cheat_days WHERE user_id = ?`, userID,
	)
	if err != nil {
		return snap, fmt.Errorf("query cheat days: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var dayStr, declaredAt string
		if err := rows.Scan(&dayStr, &declaredAt); err != nil {
			return snap, fmt.Errorf("scan cheat day: %w", err)
		}
		day, err := streak.ParseDay(dayStr)
		if err != nil {
			continue
		}
		snap.Cheats[day], _ = time.Parse(timeLayout, declaredAt)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate cheat days: %w", err)
	}

	return snap, tx.Commit()
}

// CreateFriendRequest records an invitation from one user to another.
func (s *SQLite) CreateFriendRequest(ctx context.Context, fromID, toID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO friend_requests (from_id, to_id, created_at) VALUES (?, ?, ?)`,
		fromID, toID, now(),
	)
	if err != nil {
		return fmt.Errorf("insert friend request: %w", err)
	}
	return nil
}

// DeleteFriendRequest withdraws or declines a pending request.
func (s *SQLite) DeleteFriendRequest(ctx context.Context, fromID, toID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM friend_requests WHERE from_id = ? AND to_id = ?`, fromID, toID,
	)
	if err != nil {
		return false, fmt.Errorf("delete friend request: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListIncomingRequests returns requests addressed to the user.
func (s *SQLite) ListIncomingRequests(ctx context.Context, userID int64) ([]model.FriendRequest, error) {
	return s.listRequests(ctx, `WHERE to_id = ?`, userID)
}

// ListOutgoingRequests returns requests sent by the user.
func (s *SQLite) ListOutgoingRequests(ctx context.Context, userID int64) ([]model.FriendRequest, error) {
	return s.listRequests(ctx, `WHERE from_id = ?`, userID)
}

func (s *SQLite) listRequests(ctx context.Context, where string, userID int64) ([]model.FriendRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_id, to_id, created_at FROM friend_requests `+where+` ORDER BY created_at, from_id, to_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query friend requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reqs []model.FriendRequest
	for rows.Next() {
		var r model.FriendRequest
		var created string
		if err := rows.Scan(&r.FromID, &r.ToID, &created); err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		r.CreatedAt, _ = time.Parse(timeLayout, created)
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

// AcceptFriendRequest turns a pending request into a mutual friendship.
// It returns ErrNotFound when no such request exists.
func (s *SQLite) AcceptFriendRequest(ctx context.Context, fromID, toID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM friend_requests WHERE from_id = ? AND to_id = ?`, fromID, toID,
	)
	if err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM friend_requests WHERE from_id = ? AND to_id = ?`, toID, fromID,
	); err != nil {
		return fmt.Errorf("delete reverse request: %w", err)
	}

	since := now()
	for _, pair := range [][2]int64{{fromID, toID}, {toID, fromID}} {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO friends (user_id, friend_id, since) VALUES (?, ?, ?)`,
			pair[0], pair[1], since,
		); err != nil {
			return fmt.Errorf("insert friend: %w", err)
		}
	}
	return tx.Commit()
}

// ListFriends returns the user's friends ordered by friend ID.
func (s *SQLite) ListFriends(ctx context.Context, userID int64) ([]model.Friend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, friend_id, since FROM friends WHERE user_id = ? ORDER BY friend_id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var friends []model.Friend
	for rows.Next() {
		var f model.Friend
		var since string
		if err := rows.Scan(&f.UserID, &f.FriendID, &since); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		f.Since, _ = time.Parse(timeLayout, since)
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// AreFriends reports whether a and b are friends.
func (s *SQLite) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM friends WHERE user_id = ? AND friend_id = ?`, a, b,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check friends: %w", err)
	}
	return count > 0, nil
}

// RemoveFriend deletes the friendship in both directions.
func (s *SQLite) RemoveFriend(ctx context.Context, a, b int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM friends WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`,
		a, b, b, a,
	)
	if err != nil {
		return false, fmt.Errorf("delete friend: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SaveStats stores the latest computed streak of a user.
func (s *SQLite) SaveStats(ctx context.Context, st model.StreakStats) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO streak_stats (user_id, current, longest, as_of, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   current = excluded.current, longest = excluded.longest,
		   as_of = excluded.as_of, updated_at = excluded.updated_at`,
		st.UserID, st.Current, st.Longest, st.AsOf.String(), now(),
	)
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

// GetStats returns the stored streak of a user.
func (s *SQLite) GetStats(ctx context.Context, userID int64) (*model.StreakStats, error) {
	var st model.StreakStats
	var asOf, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, current, longest, as_of, updated_at FROM streak_stats WHERE user_id = ?`, userID,
	).Scan(&st.UserID, &st.Current, &st.Longest, &asOf, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan stats: %w", err)
	}
	st.AsOf, _ = streak.ParseDay(asOf)
	st.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &st, nil
}

// Leaderboard ranks the user and their friends by current streak, then by
// longest streak, then by user ID.
func (s *SQLite) Leaderboard(ctx context.Context, userID int64) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.name, COALESCE(st.current, 0) AS cur, COALESCE(st.longest, 0) AS lng
		 FROM users u
		 LEFT JOIN streak_stats st ON st.user_id = u.id
		 WHERE u.id = ? OR u.id IN (SELECT friend_id FROM friends WHERE user_id = ?)
		 ORDER BY cur DESC, lng DESC, u.id`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.Current, &e.Longest); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanUser(row scannable) (*model.User, error) {
	var u model.User
	var created string
	err := row.Scan(&u.ID, &u.ChatID, &u.Name, &u.Timezone, &u.InviteCode, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(timeLayout, created)
	return &u, nil
}

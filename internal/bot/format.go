package bot

import (
	"fmt"
	"strings"
	"time"

	"streaker/internal/catalog"
	"streaker/internal/model"
	"streaker/internal/stats"
	"streaker/internal/streak"
)

const maxHistory = 10

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// FormatStreak formats the streak overview of a user.
func FormatStreak(sum stats.Summary, last *model.ReadEvent, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔥 Current streak: %s\n", days(sum.Stats.Current))
	fmt.Fprintf(&b, "🏆 Longest streak: %s\n", days(sum.Stats.Longest))

	if !sum.Activity.Active(sum.Today) && sum.Stats.Current > 0 {
		b.WriteString("Read today to keep your streak going!\n")
	}

	b.WriteString("\nLast 7 days:\n")
	b.WriteString(FormatWeek(sum.Activity.Week(sum.Today)))

	if last != nil {
		fmt.Fprintf(&b, "\n\nLast read: %s on %s", title, streak.DayOf(last.ReadAt, sum.Location))
	}
	return b.String()
}

// FormatWeek renders the seven-day strip as weekday initials over markers.
func FormatWeek(week []streak.WeekDay) string {
	var head, marks strings.Builder
	for i, wd := range week {
		if i > 0 {
			head.WriteString(" ")
			marks.WriteString(" ")
		}
		head.WriteString(wd.Day.Time(time.UTC).Weekday().String()[:2])
		switch {
		case wd.Cheat:
			marks.WriteString("🟨")
		case wd.Active:
			marks.WriteString("✅")
		default:
			marks.WriteString("⬜")
		}
	}
	return head.String() + "\n" + marks.String()
}

func statusMark(s streak.Status) string {
	switch s {
	case streak.StatusRead:
		return "✅"
	case streak.StatusCheat:
		return "🟨"
	case streak.StatusMissed:
		return "❌"
	default:
		return "▫️"
	}
}

// FormatCalendar renders a month as a Monday-first grid.
func FormatCalendar(year int, month time.Month, cells []streak.DayStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", month, year)
	b.WriteString("Mo Tu We Th Fr Sa Su\n")

	if len(cells) == 0 {
		return b.String()
	}
	offset := (int(cells[0].Day.Time(time.UTC).Weekday()) + 6) % 7
	col := 0
	for ; col < offset; col++ {
		b.WriteString("   ")
	}
	for _, c := range cells {
		b.WriteString(statusMark(c.Status))
		col++
		if col%7 == 0 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}

	var read, cheat, missed int
	for _, c := range cells {
		switch c.Status {
		case streak.StatusRead:
			read++
		case streak.StatusCheat:
			cheat++
		case streak.StatusMissed:
			missed++
		}
	}
	fmt.Fprintf(&b, "\n✅ read %d  🟨 cheat %d  ❌ missed %d", read, cheat, missed)
	return b.String()
}

// FormatHistory lists the most recent streak runs.
func FormatHistory(segs []streak.Segment) string {
	if len(segs) == 0 {
		return "No streaks yet. Use /read to mark your first chapter."
	}
	var b strings.Builder
	b.WriteString("Streak history:\n")
	for i, s := range segs {
		if i == maxHistory {
			fmt.Fprintf(&b, "\n…and %d earlier", len(segs)-maxHistory)
			break
		}
		if s.Start == s.End {
			fmt.Fprintf(&b, "\n%s: %s", s.Start, days(s.Length))
		} else {
			fmt.Fprintf(&b, "\n%s → %s: %s", s.Start, s.End, days(s.Length))
		}
		if s.CheatDays > 0 {
			fmt.Fprintf(&b, " (%d read, %d cheat)", s.ReadDays, s.CheatDays)
		}
	}
	return b.String()
}

// FormatProgress summarises catalogue progress per book.
func FormatProgress(p catalog.Progress) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📖 %d of %d chapters read (%d%%)\n", p.Read, p.Total, p.Percent())
	for _, bp := range p.Books {
		mark := ""
		if bp.Read == bp.Total {
			mark = " ✔"
		}
		fmt.Fprintf(&b, "\n%s: %d/%d%s", bp.Book, bp.Read, bp.Total, mark)
	}
	return b.String()
}

// FormatLeaderboard ranks entries, marking the requesting user.
func FormatLeaderboard(entries []model.LeaderboardEntry, selfID int64) string {
	if len(entries) <= 1 {
		return "Add friends with /addfriend to see a leaderboard."
	}
	var b strings.Builder
	b.WriteString("🏅 Leaderboard\n")
	for i, e := range entries {
		name := (&model.User{ID: e.UserID, Name: e.Name}).DisplayName()
		if e.UserID == selfID {
			name += " (you)"
		}
		fmt.Fprintf(&b, "\n%d. %s: %s (best %d)", i+1, name, days(e.Current), e.Longest)
	}
	return b.String()
}

// FriendLine is one friend with their stored streak.
type FriendLine struct {
	ID      int64
	Name    string
	Current int
}

// FormatFriends lists friends and pending requests.
func FormatFriends(friends []FriendLine, incoming, outgoing []FriendLine, inviteCode string) string {
	var b strings.Builder
	if len(friends) == 0 {
		b.WriteString("You have no friends yet.\n")
	} else {
		b.WriteString("Your friends:\n")
		for _, f := range friends {
			fmt.Fprintf(&b, "  %s (#%d): %s streak\n", f.Name, f.ID, days(f.Current))
		}
	}
	if len(incoming) > 0 {
		b.WriteString("\nRequests for you:\n")
		for _, f := range incoming {
			fmt.Fprintf(&b, "  %s (#%d): /accept %d or /decline %d\n", f.Name, f.ID, f.ID, f.ID)
		}
	}
	if len(outgoing) > 0 {
		b.WriteString("\nWaiting for:\n")
		for _, f := range outgoing {
			fmt.Fprintf(&b, "  %s (#%d): /withdraw %d\n", f.Name, f.ID, f.ID)
		}
	}
	fmt.Fprintf(&b, "\nShare your invite code: %s\nFriends add you with /addfriend %s", inviteCode, inviteCode)
	return b.String()
}

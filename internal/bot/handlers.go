package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"streaker/internal/catalog"
	"streaker/internal/model"
	"streaker/internal/stats"
)

func (b *Bot) handleStart(u *model.User) {
	b.reply(u.ChatID, fmt.Sprintf(`Welcome to Streaker!

Build a daily scripture reading habit, one chapter at a time.

Quick start:
1. /read <chapter> — mark a chapter read, e.g. /read 1 Nephi 1
2. /streak — see your current and longest streak
3. /cheat — take a cheat day without breaking your streak

Your invite code is %s. Share it so friends can /addfriend you.
Use /help for the full command reference.`, u.InviteCode))
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Reading:
/read [chapter] — mark a chapter read (no argument suggests the next one)
/unread <chapter> — remove a read mark
/cheat [date] — toggle a cheat day (today, yesterday, tomorrow or YYYY-MM-DD)
/progress — chapters read per book

Streaks:
/streak — current and longest streak, last 7 days
/calendar [YYYY-MM] — month view of read, cheat and missed days
/history — past streaks

Friends:
/friends — friends, requests and your invite code
/addfriend <code> — send a friend request
/accept <id> — accept a request
/decline <id> — decline a request
/withdraw <id> — cancel a request you sent
/unfriend <id> — remove a friend
/leaderboard — compare streaks with friends

Settings:
/name <name> — set your display name
/tz <zone> — set your timezone, e.g. /tz America/Denver`)
}

// summary loads the user's activity and evaluates it in their timezone.
func (b *Bot) summary(ctx context.Context, u *model.User) (stats.Summary, model.Snapshot, error) {
	snap, err := b.hub.Snapshot(ctx, u.ID)
	if err != nil {
		return stats.Summary{}, model.Snapshot{}, err
	}
	return b.recorder.Summarize(u, snap), snap, nil
}

func (b *Bot) nextChapter(snap model.Snapshot) (catalog.Chapter, bool) {
	read := snap.ReadSet()
	if last, ok := snap.LastRead(); ok {
		if next, ok := b.catalog.Next(last.ChapterID); ok && !read[next.ID] {
			return next, true
		}
	}
	return b.catalog.FirstUnread(read)
}

func (b *Bot) handleRead(ctx context.Context, u *model.User, args string) {
	if args == "" {
		snap, err := b.hub.Snapshot(ctx, u.ID)
		if err != nil {
			b.replyError(u.ChatID, "load snapshot", err)
			return
		}
		next, ok := b.nextChapter(snap)
		if !ok {
			b.reply(u.ChatID, "You have read every chapter. Well done!")
			return
		}
		b.replyWithKeyboard(u.ChatID,
			fmt.Sprintf("Next up: %s", next.Title),
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Mark as read", cmdRead+":"+next.ID),
			)),
		)
		return
	}

	ch, ok := b.catalog.Lookup(args)
	if !ok {
		b.reply(u.ChatID, fmt.Sprintf("Unknown chapter %q. Try e.g. /read Alma 32", args))
		return
	}
	b.markRead(ctx, u, ch)
}

func (b *Bot) markRead(ctx context.Context, u *model.User, ch catalog.Chapter) {
	snap, err := b.hub.MarkRead(ctx, u.ID, ch.ID)
	if err != nil {
		b.replyError(u.ChatID, "mark read", err)
		return
	}
	sum := b.recorder.Summarize(u, snap)
	b.reply(u.ChatID, fmt.Sprintf("Marked %s as read.\n🔥 Current streak: %s",
		ch.Title, days(sum.Stats.Current)))
}

func (b *Bot) handleUnread(ctx context.Context, u *model.User, args string) {
	if args == "" {
		b.reply(u.ChatID, "Usage: /unread <chapter>")
		return
	}
	ch, ok := b.catalog.Lookup(args)
	if !ok {
		b.reply(u.ChatID, fmt.Sprintf("Unknown chapter %q.", args))
		return
	}

	snap, removed, err := b.hub.UnmarkRead(ctx, u.ID, ch.ID)
	if err != nil {
		b.replyError(u.ChatID, "unmark read", err)
		return
	}
	if !removed {
		b.reply(u.ChatID, fmt.Sprintf("%s was not marked as read.", ch.Title))
		return
	}
	sum := b.recorder.Summarize(u, snap)
	b.reply(u.ChatID, fmt.Sprintf("Removed %s from your reading.\n🔥 Current streak: %s",
		ch.Title, days(sum.Stats.Current)))
}

func (b *Bot) handleCheat(ctx context.Context, u *model.User, args string) {
	day, err := ParseDayArg(args, b.recorder.Today(u))
	if err != nil {
		b.reply(u.ChatID, err.Error())
		return
	}

	snap, on, err := b.hub.ToggleCheatDay(ctx, u.ID, day)
	if err != nil {
		b.replyError(u.ChatID, "toggle cheat day", err)
		return
	}
	sum := b.recorder.Summarize(u, snap)

	verb := "removed"
	if on {
		verb = "declared"
	}
	b.reply(u.ChatID, fmt.Sprintf("Cheat day %s %s.\n🔥 Current streak: %s",
		day, verb, days(sum.Stats.Current)))
}

func (b *Bot) handleStreak(ctx context.Context, u *model.User) {
	sum, snap, err := b.summary(ctx, u)
	if err != nil {
		b.replyError(u.ChatID, "load streak", err)
		return
	}

	var last *model.ReadEvent
	var title string
	if ev, ok := snap.LastRead(); ok {
		last = &ev
		title = ev.ChapterID
		if ch, ok := b.catalog.Get(ev.ChapterID); ok {
			title = ch.Title
		}
	}
	b.reply(u.ChatID, FormatStreak(sum, last, title))
}

func (b *Bot) handleCalendar(ctx context.Context, u *model.User, args string) {
	year, month, err := ParseMonthArg(args, b.recorder.Today(u))
	if err != nil {
		b.reply(u.ChatID, err.Error())
		return
	}
	sum, _, err := b.summary(ctx, u)
	if err != nil {
		b.replyError(u.ChatID, "load calendar", err)
		return
	}
	b.reply(u.ChatID, FormatCalendar(year, month, sum.Activity.Month(year, month, sum.Today)))
}

func (b *Bot) handleHistory(ctx context.Context, u *model.User) {
	sum, _, err := b.summary(ctx, u)
	if err != nil {
		b.replyError(u.ChatID, "load history", err)
		return
	}
	b.reply(u.ChatID, FormatHistory(sum.Activity.Segments()))
}

func (b *Bot) handleProgress(ctx context.Context, u *model.User) {
	snap, err := b.hub.Snapshot(ctx, u.ID)
	if err != nil {
		b.replyError(u.ChatID, "load progress", err)
		return
	}
	b.reply(u.ChatID, FormatProgress(b.catalog.Progress(snap.ReadSet())))
}

func (b *Bot) handleName(ctx context.Context, u *model.User, args string) {
	if args == "" {
		b.reply(u.ChatID, "Usage: /name <display name>")
		return
	}
	if len([]rune(args)) > 64 {
		b.reply(u.ChatID, "Name is too long (max 64 characters).")
		return
	}
	u.Name = args
	if err := b.store.UpdateUser(ctx, u); err != nil {
		b.replyError(u.ChatID, "update name", err)
		return
	}
	b.reply(u.ChatID, fmt.Sprintf("Your name is now %q.", args))
}

func (b *Bot) handleTimezone(ctx context.Context, u *model.User, args string) {
	if args == "" {
		b.reply(u.ChatID, fmt.Sprintf("Your timezone is %s.\nUsage: /tz <zone>, e.g. /tz Europe/London",
			b.recorder.Location(u)))
		return
	}
	if _, err := time.LoadLocation(args); err != nil {
		b.reply(u.ChatID, fmt.Sprintf("Unknown timezone %q.", args))
		return
	}
	u.Timezone = args
	if err := b.store.UpdateUser(ctx, u); err != nil {
		b.replyError(u.ChatID, "update timezone", err)
		return
	}

	// Today may have moved, so the stored streak has to follow.
	snap, err := b.hub.Snapshot(ctx, u.ID)
	if err == nil {
		_, err = b.recorder.Record(ctx, snap)
	}
	if err != nil {
		b.log.Warn("refresh stats after timezone change", "user_id", u.ID, "error", err)
	}
	b.reply(u.ChatID, fmt.Sprintf("Timezone set to %s. Today is %s for you.", args, b.recorder.Today(u)))
}

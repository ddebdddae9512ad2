package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"streaker/internal/model"
	"streaker/internal/storage"
)

const (
	cmdAccept  = "accept"
	cmdDecline = "decline"
)

func (b *Bot) nameOf(ctx context.Context, id int64) string {
	u, err := b.store.GetUser(ctx, id)
	if err != nil {
		return (&model.User{ID: id}).DisplayName()
	}
	return u.DisplayName()
}

func (b *Bot) friendLine(ctx context.Context, id int64) (FriendLine, error) {
	line := FriendLine{ID: id, Name: b.nameOf(ctx, id)}
	st, err := b.store.GetStats(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return line, err
	default:
		line.Current = st.Current
	}
	return line, nil
}

func requestKeyboard(fromID int64) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(fromID, 10)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Accept", cmdAccept+":"+id),
			tgbotapi.NewInlineKeyboardButtonData("Decline", cmdDecline+":"+id),
		),
	)
}

func (b *Bot) handleFriends(ctx context.Context, u *model.User) {
	friends, err := b.store.ListFriends(ctx, u.ID)
	if err != nil {
		b.replyError(u.ChatID, "list friends", err)
		return
	}
	incoming, err := b.store.ListIncomingRequests(ctx, u.ID)
	if err != nil {
		b.replyError(u.ChatID, "list incoming requests", err)
		return
	}
	outgoing, err := b.store.ListOutgoingRequests(ctx, u.ID)
	if err != nil {
		b.replyError(u.ChatID, "list outgoing requests", err)
		return
	}

	var lines []FriendLine
	for _, f := range friends {
		line, err := b.friendLine(ctx, f.FriendID)
		if err != nil {
			b.replyError(u.ChatID, "load friend stats", err)
			return
		}
		lines = append(lines, line)
	}
	var in, out []FriendLine
	for _, r := range incoming {
		in = append(in, FriendLine{ID: r.FromID, Name: b.nameOf(ctx, r.FromID)})
	}
	for _, r := range outgoing {
		out = append(out, FriendLine{ID: r.ToID, Name: b.nameOf(ctx, r.ToID)})
	}

	b.reply(u.ChatID, FormatFriends(lines, in, out, u.InviteCode))
}

func (b *Bot) handleAddFriend(ctx context.Context, u *model.User, args string) {
	if args == "" {
		b.reply(u.ChatID, "Usage: /addfriend <invite code>")
		return
	}

	target, err := b.store.GetUserByInviteCode(ctx, args)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(u.ChatID, fmt.Sprintf("No one has the invite code %q.", args))
		return
	}
	if err != nil {
		b.replyError(u.ChatID, "find user by invite code", err)
		return
	}
	if target.ID == u.ID {
		b.reply(u.ChatID, "That is your own invite code.")
		return
	}

	already, err := b.store.AreFriends(ctx, u.ID, target.ID)
	if err != nil {
		b.replyError(u.ChatID, "check friends", err)
		return
	}
	if already {
		b.reply(u.ChatID, fmt.Sprintf("You and %s are already friends.", target.DisplayName()))
		return
	}

	// A pending request the other way round is accepted on the spot.
	err = b.store.AcceptFriendRequest(ctx, target.ID, u.ID)
	if err == nil {
		b.reply(u.ChatID, fmt.Sprintf("You and %s are now friends!", target.DisplayName()))
		b.SendMessage(target.ChatID, fmt.Sprintf("%s accepted your friend request.", u.DisplayName()))
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		b.replyError(u.ChatID, "accept reverse request", err)
		return
	}

	if err := b.store.CreateFriendRequest(ctx, u.ID, target.ID); err != nil {
		b.replyError(u.ChatID, "create friend request", err)
		return
	}
	b.reply(u.ChatID, fmt.Sprintf("Friend request sent to %s.", target.DisplayName()))
	b.replyWithKeyboard(target.ChatID,
		fmt.Sprintf("%s (#%d) wants to be your friend.", u.DisplayName(), u.ID),
		requestKeyboard(u.ID),
	)
}

func (b *Bot) handleAccept(ctx context.Context, u *model.User, args string) {
	fromID, err := ParseIDArg(args)
	if err != nil {
		b.reply(u.ChatID, "Usage: /accept <user_id>")
		return
	}

	err = b.store.AcceptFriendRequest(ctx, fromID, u.ID)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(u.ChatID, fmt.Sprintf("No friend request from #%d.", fromID))
		return
	}
	if err != nil {
		b.replyError(u.ChatID, "accept friend request", err)
		return
	}

	b.reply(u.ChatID, fmt.Sprintf("You and %s are now friends!", b.nameOf(ctx, fromID)))
	if from, err := b.store.GetUser(ctx, fromID); err == nil {
		b.SendMessage(from.ChatID, fmt.Sprintf("%s accepted your friend request.", u.DisplayName()))
	}
}

func (b *Bot) handleDecline(ctx context.Context, u *model.User, args string) {
	fromID, err := ParseIDArg(args)
	if err != nil {
		b.reply(u.ChatID, "Usage: /decline <user_id>")
		return
	}
	removed, err := b.store.DeleteFriendRequest(ctx, fromID, u.ID)
	if err != nil {
		b.replyError(u.ChatID, "decline friend request", err)
		return
	}
	if !removed {
		b.reply(u.ChatID, fmt.Sprintf("No friend request from #%d.", fromID))
		return
	}
	b.reply(u.ChatID, fmt.Sprintf("Declined the request from %s.", b.nameOf(ctx, fromID)))
}

func (b *Bot) handleWithdraw(ctx context.Context, u *model.User, args string) {
	toID, err := ParseIDArg(args)
	if err != nil {
		b.reply(u.ChatID, "Usage: /withdraw <user_id>")
		return
	}
	removed, err := b.store.DeleteFriendRequest(ctx, u.ID, toID)
	if err != nil {
		b.replyError(u.ChatID, "withdraw friend request", err)
		return
	}
	if !removed {
		b.reply(u.ChatID, fmt.Sprintf("You have no pending request to #%d.", toID))
		return
	}
	b.reply(u.ChatID, fmt.Sprintf("Withdrew your request to %s.", b.nameOf(ctx, toID)))
}

func (b *Bot) handleUnfriend(ctx context.Context, u *model.User, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(u.ChatID, "Usage: /unfriend <user_id>")
		return
	}
	removed, err := b.store.RemoveFriend(ctx, u.ID, id)
	if err != nil {
		b.replyError(u.ChatID, "remove friend", err)
		return
	}
	if !removed {
		b.reply(u.ChatID, fmt.Sprintf("#%d is not your friend.", id))
		return
	}
	b.reply(u.ChatID, fmt.Sprintf("Removed %s from your friends.", b.nameOf(ctx, id)))
}

func (b *Bot) handleLeaderboard(ctx context.Context, u *model.User) {
	entries, err := b.store.Leaderboard(ctx, u.ID)
	if err != nil {
		b.replyError(u.ChatID, "load leaderboard", err)
		return
	}
	b.reply(u.ChatID, FormatLeaderboard(entries, u.ID))
}

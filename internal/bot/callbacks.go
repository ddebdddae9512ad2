package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdRead  = "read"
	cmdCheat = "cheat"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	action, arg, ok := strings.Cut(cb.Data, ":")
	if !ok || arg == "" {
		return
	}

	b.log.Info("callback",
		"action", action,
		"arg", arg,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	if !b.cfg.IsUserAllowed(cb.From.ID) {
		b.reply(chatID, "Access denied.")
		return
	}
	u, err := b.store.EnsureUser(ctx, cb.From.ID, chatID)
	if err != nil {
		b.replyError(chatID, "ensure user", err)
		return
	}

	switch action {
	case cmdRead:
		ch, ok := b.catalog.Get(arg)
		if !ok {
			b.reply(chatID, fmt.Sprintf("Unknown chapter %q.", arg))
			return
		}
		b.markRead(ctx, u, ch)
	case cmdCheat:
		b.handleCheat(ctx, u, arg)
	case cmdAccept:
		b.handleAccept(ctx, u, arg)
	case cmdDecline:
		b.handleDecline(ctx, u, arg)
	}
}

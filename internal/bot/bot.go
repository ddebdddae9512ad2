// Package bot implements the Telegram interface of the reading tracker.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"streaker/internal/activity"
	"streaker/internal/catalog"
	"streaker/internal/config"
	"streaker/internal/model"
	"streaker/internal/stats"
	"streaker/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot that handles user commands.
type Bot struct {
	api      telegramAPI
	store    storage.Storage
	hub      *activity.Hub
	recorder *stats.Recorder
	catalog  *catalog.Catalog
	cfg      *config.Config
	log      *slog.Logger
}

// Deps groups the collaborators a Bot works with.
type Deps struct {
	Store    storage.Storage
	Hub      *activity.Hub
	Recorder *stats.Recorder
	Catalog  *catalog.Catalog
}

// New creates a Bot with the given Telegram token, collaborators, and config.
func New(token string, deps Deps, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:      api,
		store:    deps.Store,
		hub:      deps.Hub,
		recorder: deps.Recorder,
		catalog:  deps.Catalog,
		cfg:      cfg,
		log:      log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	msg := update.Message
	if msg == nil || !msg.IsCommand() || msg.From == nil {
		return
	}
	if !b.cfg.IsUserAllowed(msg.From.ID) {
		b.reply(msg.Chat.ID, "Access denied.")
		return
	}
	u, err := b.store.EnsureUser(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error("ensure user", "user_id", msg.From.ID, "error", err)
		b.reply(msg.Chat.ID, "Something went wrong, please try again later.")
		return
	}
	if u.Name == "" && msg.From.FirstName != "" {
		u.Name = msg.From.FirstName
		if err := b.store.UpdateUser(ctx, u); err != nil {
			b.log.Warn("set default name", "user_id", u.ID, "error", err)
		}
	}
	b.handleCommand(ctx, u, msg)
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

// replyError reports a failure to the user without presenting default values
// as if they were real results.
func (b *Bot) replyError(chatID int64, op string, err error) {
	b.log.Error(op, "chat_id", chatID, "error", err)
	b.reply(chatID, "Sorry, I couldn't load your data right now. Please try again.")
}

func (b *Bot) handleCommand(ctx context.Context, u *model.User, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	b.log.Debug("command", "cmd", cmd, "args", args, "user_id", u.ID)

	switch cmd {
	case "start":
		b.handleStart(u)
	case "help":
		b.handleHelp(u.ChatID)
	case cmdRead:
		b.handleRead(ctx, u, args)
	case "unread":
		b.handleUnread(ctx, u, args)
	case cmdCheat:
		b.handleCheat(ctx, u, args)
	case "streak":
		b.handleStreak(ctx, u)
	case "calendar":
		b.handleCalendar(ctx, u, args)
	case "history":
		b.handleHistory(ctx, u)
	case "progress":
		b.handleProgress(ctx, u)
	case "name":
		b.handleName(ctx, u, args)
	case "tz":
		b.handleTimezone(ctx, u, args)
	case "friends":
		b.handleFriends(ctx, u)
	case "addfriend":
		b.handleAddFriend(ctx, u, args)
	case cmdAccept:
		b.handleAccept(ctx, u, args)
	case cmdDecline:
		b.handleDecline(ctx, u, args)
	case "withdraw":
		b.handleWithdraw(ctx, u, args)
	case "unfriend":
		b.handleUnfriend(ctx, u, args)
	case "leaderboard":
		b.handleLeaderboard(ctx, u)
	default:
		b.reply(u.ChatID, "Unknown command. Use /help for a list of commands.")
	}
}

// Package bot exposes manual controls for the monitor over Telegram.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flight_monitor/internal/config"
	"flight_monitor/internal/history"
	"flight_monitor/internal/model"
	"flight_monitor/internal/monitor"
)

// API is the subset of the Telegram bot API the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Monitor is the part of the monitor the bot drives.
type Monitor interface {
	RunRoutes(ctx context.Context, routes []model.Route) (monitor.Summary, error)
	Routes() []model.Route
	LastSummary() (monitor.Summary, bool)
	Busy() bool
}

// Bot handles Telegram commands.
type Bot struct {
	api     API
	monitor Monitor
	history history.Store
	cfg     *config.Config
	log     *slog.Logger

	wg sync.WaitGroup
}

// New creates a Bot.
func New(api API, mon Monitor, hist history.Store, cfg *config.Config, log *slog.Logger) *Bot {
	return &Bot{
		api:     api,
		monitor: mon,
		history: hist,
		cfg:     cfg,
		log:     log,
	}
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled
// and any manual checks have finished.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				if b.cfg.IsUserAllowed(update.CallbackQuery.From.ID) {
					b.handleCallback(ctx, update.CallbackQuery)
				}
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
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

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case cmdRoutes:
		b.handleRoutes(chatID)
	case cmdCheck:
		b.handleCheck(ctx, chatID, args)
	case "status":
		b.handleStatus(chatID)
	case "top":
		b.handleTop(chatID)
	case cmdHistory:
		b.handleHistory(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

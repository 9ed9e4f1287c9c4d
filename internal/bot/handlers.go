package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flight_monitor/internal/history"
	"flight_monitor/internal/model"
	"flight_monitor/internal/monitor"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Flight deal monitor.

Watched routes are searched for error fares on a schedule. New deals that
score high enough are sent here.

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Commands:
/routes - list watched routes
/check - search every route now
/check <n|ROUTE> - search one route now, e.g. /check 2 or /check EZE-MAD
/status - result of the last search cycle
/top - best deals of the last cycle
/history - lowest prices seen per route
/history <n|ROUTE> - price record of one route`)
}

func (b *Bot) handleRoutes(chatID int64) {
	routes := b.monitor.Routes()
	msg := tgbotapi.NewMessage(chatID, FormatRoutes(routes))
	msg.DisableWebPagePreview = true
	if len(routes) > 0 {
		var rows [][]tgbotapi.InlineKeyboardButton
		for i, r := range routes {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Check "+r.Key(), fmt.Sprintf("%s:%d", cmdCheck, i+1)),
				tgbotapi.NewInlineKeyboardButtonData("History", fmt.Sprintf("%s:%d", cmdHistory, i+1)),
			))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send routes", "error", err)
	}
}

func (b *Bot) handleCheck(ctx context.Context, chatID int64, args string) {
	routes := b.monitor.Routes()
	if args != "" {
		r, err := ParseRouteArg(args, routes)
		if err != nil {
			b.reply(chatID, fmt.Sprintf("%v. Usage: /check [n|ROUTE]", err))
			return
		}
		routes = []model.Route{r}
	}

	if b.monitor.Busy() {
		b.reply(chatID, "A search cycle is already running. Try again in a few minutes.")
		return
	}

	b.reply(chatID, fmt.Sprintf("Searching %d route(s)...", len(routes)))

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		sum, err := b.monitor.RunRoutes(ctx, routes)
		switch {
		case errors.Is(err, monitor.ErrBusy):
			b.reply(chatID, "A search cycle is already running. Try again in a few minutes.")
		case err != nil:
			b.log.Error("manual check", "chat_id", chatID, "error", err)
			b.reply(chatID, fmt.Sprintf("Search failed: %v", err))
		default:
			b.reply(chatID, FormatSummary(sum))
		}
	}()
}

func (b *Bot) handleStatus(chatID int64) {
	sum, ok := b.monitor.LastSummary()
	var text string
	if !ok {
		text = "No search cycle has finished yet."
	} else {
		text = FormatSummary(sum)
	}
	if b.monitor.Busy() {
		text += "\n\nA search cycle is running now."
	}
	b.reply(chatID, text)
}

func (b *Bot) handleTop(chatID int64) {
	sum, ok := b.monitor.LastSummary()
	if !ok {
		b.reply(chatID, "No search cycle has finished yet.")
		return
	}
	b.reply(chatID, FormatTop(sum.Top))
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64, args string) {
	if args == "" {
		records, err := b.history.All(ctx)
		if err != nil {
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
			return
		}
		b.reply(chatID, history.Stats(records, timeNow()))
		return
	}

	key, err := parseHistoryArg(args, b.monitor.Routes())
	if err != nil {
		b.reply(chatID, fmt.Sprintf("%v. Usage: /history [n|ROUTE]", err))
		return
	}
	rec, err := b.history.Get(ctx, key)
	if errors.Is(err, history.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("No price history for %s yet.", key))
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, history.FormatRecord(*rec))
}

// parseHistoryArg accepts any valid route, not only watched ones.
func parseHistoryArg(args string, routes []model.Route) (string, error) {
	if r, err := ParseRouteArg(args, routes); err == nil {
		return r.Key(), nil
	}
	o, d, err := model.ParseRoute(args)
	if err != nil {
		return "", err
	}
	return model.RouteKey(o, d), nil
}

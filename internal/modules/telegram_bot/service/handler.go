package service

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wyckoff_keeper/pkg/logger"
)

const recentTrades = 10

const helpText = "Команды:\n" +
	"/bots — список ботов\n" +
	"/status <bot_id> — состояние бота\n" +
	"/stop <bot_id> — остановить бота\n" +
	"/trades <bot_id> — последние сделки"

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		// callback'и и inline mode не используются
		return
	}
	chatID := msg.Chat.ID

	// без chat_id управлять ботами не может никто
	if t.chatID == 0 || chatID != t.chatID {
		logger.Warn("telegram: command from foreign chat %d ignored", chatID)
		_, _ = t.Send(ctx, chatID, "⛔️ Нет доступа")
		return
	}

	if !msg.IsCommand() {
		if strings.TrimSpace(msg.Text) == "📊 Статус" {
			t.handleBots(ctx, chatID)
		}
		return
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		t.handleStart(ctx, chatID)
	case "bots":
		t.handleBots(ctx, chatID)
	case "status":
		t.handleStatus(ctx, chatID, arg)
	case "stop":
		t.handleStop(ctx, chatID, arg)
	case "trades":
		t.handleTrades(ctx, chatID, arg)
	default:
		_, _ = t.Send(ctx, chatID, "Неизвестная команда.\n\n"+helpText)
	}
}

func (t *Telegram) handleStart(ctx context.Context, chatID int64) {
	replyKb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📊 Статус"),
		),
	)

	msg := tgbotapi.NewMessage(chatID, "Привет! Я слежу за Wyckoff-ботами.\n\n"+helpText)
	msg.ReplyMarkup = replyKb
	if _, err := t.bot.Send(msg); err != nil {
		logger.Error("handleStart error: %v", err)
	}
}

func (t *Telegram) handleBots(ctx context.Context, chatID int64) {
	list := t.bots.List()
	if len(list) == 0 {
		_, _ = t.Send(ctx, chatID, "📭 Нет запущенных ботов")
		return
	}
	_, _ = t.Send(ctx, chatID, formatList(list))
}

func (t *Telegram) handleStatus(ctx context.Context, chatID int64, botID string) {
	if botID == "" {
		_, _ = t.Send(ctx, chatID, "Формат: /status <bot_id>")
		return
	}
	_, _ = t.Send(ctx, chatID, formatStatus(t.bots.Status(botID)))
}

func (t *Telegram) handleStop(ctx context.Context, chatID int64, botID string) {
	if botID == "" {
		_, _ = t.Send(ctx, chatID, "Формат: /stop <bot_id>")
		return
	}
	if !t.bots.Stop(botID) {
		_, _ = t.SendF(ctx, chatID, "⚠️ Бот %s не запущен", botID)
		return
	}
	_, _ = t.SendF(ctx, chatID, "🛑 Бот %s остановлен", botID)
}

func (t *Telegram) handleTrades(ctx context.Context, chatID int64, botID string) {
	if botID == "" {
		_, _ = t.Send(ctx, chatID, "Формат: /trades <bot_id>")
		return
	}
	recs, err := t.history.Recent(ctx, botID, recentTrades)
	if err != nil {
		logger.Error("telegram trades %s: %v", botID, err)
		_, _ = t.Send(ctx, chatID, "❗️ Не удалось получить сделки: "+err.Error())
		return
	}
	if len(recs) == 0 {
		_, _ = t.SendF(ctx, chatID, "📭 У %s сделок нет", botID)
		return
	}
	_, _ = t.Send(ctx, chatID, formatTrades(botID, recs))
}

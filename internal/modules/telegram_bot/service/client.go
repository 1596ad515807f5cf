package service

import (
	"context"
	"fmt"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/pkg/logger"
)

type botAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// Bots — то, чем команды чата управляют.
type Bots interface {
	Stop(botID string) bool
	Status(botID string) models.Status
	List() []models.Status
}

type TradeHistory interface {
	Recent(ctx context.Context, botID string, limit int) ([]models.TradeRecord, error)
}

// Telegram шлёт уведомления keeper'ов в один чат и принимает команды из него.
type Telegram struct {
	bot     botAPI
	chatID  int64
	bots    Bots
	history TradeHistory

	mu      sync.Mutex
	stopped chan struct{}
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram bot api")
	}
	return newTelegram(b, chatID), nil
}

func newTelegram(b botAPI, chatID int64) *Telegram {
	return &Telegram{bot: b, chatID: chatID}
}

// Bind подключает реестр ботов; вызывается до Start, реестр сам зависит от Notify.
func (t *Telegram) Bind(bots Bots, history TradeHistory) {
	t.bots = bots
	t.history = history
}

func (t *Telegram) Send(ctx context.Context, chatID int64, msg string) (tgbot.Message, error) {
	return t.bot.Send(tgbot.NewMessage(chatID, msg))
}

func (t *Telegram) SendF(ctx context.Context, chatID int64, format string, args ...any) (tgbot.Message, error) {
	return t.Send(ctx, chatID, fmt.Sprintf(format, args...))
}

// Notify реализует keeper.Notifier. Ошибки Telegram только логируются.
func (t *Telegram) Notify(ctx context.Context, botID, text string) {
	if t.chatID == 0 {
		logger.Info("[%s] %s", botID, text)
		return
	}
	if _, err := t.Send(ctx, t.chatID, text); err != nil {
		logger.Warn("telegram notify %s: %v", botID, err)
	}
}

// LogNotifier пишет уведомления в лог, когда Telegram не настроен.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, botID, text string) {
	logger.Info("[%s] %s", botID, text)
}

// Start запускает long polling в отдельной горутине.
func (t *Telegram) Start(ctx context.Context) {
	if t.chatID == 0 {
		logger.Warn("telegram: chat_id is not set, commands are disabled")
		return
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	done := make(chan struct{})
	t.mu.Lock()
	t.stopped = done
	t.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	}()
}

func (t *Telegram) Stop() {
	t.mu.Lock()
	done := t.stopped
	t.mu.Unlock()
	if done == nil {
		return
	}

	t.bot.StopReceivingUpdates()
	<-done
}

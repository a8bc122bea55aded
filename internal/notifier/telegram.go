package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"MoveSentinel/internal/model"
)

// Sender delivers a text message to an operator channel.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// BotAPI is the part of the Telegram bot client the notifier uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramNotifier sends messages to one chat via the Telegram Bot API.
type TelegramNotifier struct {
	Bot        BotAPI
	ChatID     int64
	MaxRetries int

	logger zerolog.Logger
}

// NewTelegramNotifier authorizes the bot, with optional proxy support.
func NewTelegramNotifier(botToken string, chatID int64, proxyURL string) (*TelegramNotifier, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := &http.Client{Timeout: 65 * time.Second, Transport: transport}

	bot, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	t := NewTelegramNotifierWithBot(bot, chatID)
	t.logger.Info().Str("username", bot.Self.UserName).Msg("authorized on telegram")
	return t, nil
}

// NewTelegramNotifierWithBot wraps an existing bot client.
func NewTelegramNotifierWithBot(bot BotAPI, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{
		Bot:        bot,
		ChatID:     chatID,
		MaxRetries: 3,
		logger:     log.With().Str("component", "telegram").Logger(),
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

// Send sends an HTML formatted message to the configured chat.
func (t *TelegramNotifier) Send(_ context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.ChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.Bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := t.Send(ctx, text)
		if err != nil {
			t.logger.Warn().Err(err).Int("attempt", attempt).Int("max", maxRetries+1).Msg("telegram send failed")
		}
		return err
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxRetries)), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return fmt.Errorf("all %d attempts failed: %w", attempt, err)
	}
	return nil
}

// Emit delivers a movement to the chat.
func (t *TelegramNotifier) Emit(ctx context.Context, evt *model.MovementEvent) error {
	return t.SendWithRetry(ctx, FormatMovementHTML(evt), t.MaxRetries)
}

// Package bot is the Telegram boundary: it receives updates over long
// polling, dispatches commands, and turns free-text messages into generation
// pipeline runs.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/adapter/repo"
	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/orchestrator"
)

const updateTimeoutSeconds = 30

// Bot wires the Telegram API to the settings store, usage ledger, and the
// generation pipeline.
type Bot struct {
	api      *tgbotapi.BotAPI
	settings *repo.SettingsRepository
	ledger   *repo.LedgerRepository
	pipeline *orchestrator.Pipeline
	logger   zerolog.Logger
}

// New builds the bot around an authenticated Telegram API client.
func New(api *tgbotapi.BotAPI, settings *repo.SettingsRepository, ledger *repo.LedgerRepository, pipeline *orchestrator.Pipeline, logger zerolog.Logger) *Bot {
	return &Bot{
		api:      api,
		settings: settings,
		ledger:   ledger,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Run consumes updates until the context is cancelled. Every message is
// handled in its own goroutine so a slow generation never blocks other users.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = updateTimeoutSeconds
	updates := b.api.GetUpdatesChan(cfg)

	b.logger.Info().Str("username", b.api.Self.UserName).Msg("bot: receiving updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			msg := update.Message
			if msg == nil || msg.From == nil || msg.Text == "" {
				continue
			}
			go b.handleMessage(ctx, msg)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handlePrompt(ctx, msg)
}

// reply sends an HTML-formatted message to the chat. Send failures are logged
// and dropped; there is nothing more to do with them.
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("bot: send failed")
	}
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("bot: edit failed")
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("bot: delete failed")
	}
}

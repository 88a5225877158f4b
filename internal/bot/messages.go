package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/orchestrator"
)

func stageText(stage orchestrator.Stage) string {
	switch stage {
	case orchestrator.StageStarted:
		return "⏳ Video generation started..."
	case orchestrator.StageDownloading:
		return "⬇️ Downloading video..."
	case orchestrator.StageUploading:
		return "📤 Uploading video to Telegram..."
	default:
		return "🎬 Video generation requested..."
	}
}

// handlePrompt treats any non-command text as a generation prompt. It runs
// the full pipeline and keeps one status message updated along the way.
func (b *Bot) handlePrompt(ctx context.Context, msg *tgbotapi.Message) {
	prompt := strings.TrimSpace(msg.Text)
	if prompt == "" {
		b.reply(msg.Chat.ID, "❌ Please provide a text prompt for video generation.")
		return
	}

	username := displayName(msg.From)
	chatID := msg.Chat.ID

	status := tgbotapi.NewMessage(chatID, "🎬 Video generation requested...")
	statusMsg, err := b.api.Send(status)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("bot: status message failed")
		return
	}

	outcome := b.pipeline.Run(ctx, orchestrator.Request{
		UserID:   msg.From.ID,
		Username: username,
		Prompt:   prompt,
		Progress: func(stage orchestrator.Stage) {
			b.editMessage(chatID, statusMsg.MessageID, stageText(stage))
		},
		Deliver: func(ctx context.Context, caption, path string) error {
			video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
			video.Caption = caption
			video.ReplyToMessageID = msg.MessageID
			_, err := b.api.Send(video)
			return err
		},
	})

	if outcome.Delivered {
		b.deleteMessage(chatID, statusMsg.MessageID)
		return
	}
	b.editMessage(chatID, statusMsg.MessageID, outcome.Message)
}

func displayName(user *tgbotapi.User) string {
	if user.UserName != "" {
		return user.UserName
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	return "Unknown"
}

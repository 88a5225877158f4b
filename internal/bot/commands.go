package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/domain"
)

// The command layer owns value validation; the settings store persists
// whatever it is given.
var validModels = []string{
	"veo-3.1-generate-001",
	"veo-3.1-fast-generate-001",
	"veo-3.1-generate-preview",
	"veo-3.1-fast-generate-preview",
	"veo-3.0-generate-001",
	"veo-3.0-fast-generate-001",
}

var validDurations = []int{4, 6, 8}

var validResolutions = []string{"720p", "1080p"}

func isValidModel(model string) bool {
	for _, m := range validModels {
		if m == model {
			return true
		}
	}
	return false
}

func isValidDuration(duration int) bool {
	for _, d := range validDurations {
		if d == duration {
			return true
		}
	}
	return false
}

func isValidResolution(resolution string) bool {
	for _, r := range validResolutions {
		if r == resolution {
			return true
		}
	}
	return false
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "help":
		b.handleHelp(msg)
	case "settings":
		b.handleSettings(ctx, msg)
	case "setmodel":
		b.handleSetModel(ctx, msg)
	case "setduration":
		b.handleSetDuration(ctx, msg)
	case "setresolution":
		b.handleSetResolution(ctx, msg)
	case "reset":
		b.handleReset(ctx, msg)
	case "stats":
		b.handleStats(ctx, msg)
	default:
		b.reply(msg.Chat.ID, "❓ Unknown command. Use /help to see all available commands.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID,
		"👋 Welcome to the Video Generation Bot!\n\n"+
			"Send me a text prompt and I'll generate a video for you using Google Veo API.\n\n"+
			"Use /help to see all available commands.")
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID,
		"📖 Available Commands:\n\n"+
			"/start - Welcome message\n"+
			"/help - Show this help message\n"+
			"/settings - View current settings\n"+
			"/setmodel [model] - Set Veo model\n"+
			"/setduration [seconds] - Set video duration\n"+
			"/setresolution [resolution] - Set video resolution\n"+
			"/reset - Reset settings to defaults\n"+
			"/stats - View usage statistics\n\n"+
			"💡 Usage:\n"+
			"Just send me a text prompt and I'll generate a video for you!\n\n"+
			"Example: <code>A beautiful sunset over the ocean</code>")
}

func (b *Bot) handleSettings(ctx context.Context, msg *tgbotapi.Message) {
	settings, err := b.settings.Get(ctx, msg.From.ID)
	if err != nil {
		b.logger.Error().Err(err).Msg("bot: settings lookup failed")
		b.reply(msg.Chat.ID, "❌ Failed to load your settings. Please try again.")
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf(
		"⚙️ Your Current Settings:\n\n"+
			"Model: <code>%s</code>\n"+
			"Duration: <code>%d</code> seconds\n"+
			"Resolution: <code>%s</code>\n\n"+
			"Use /setmodel to change the model.\n"+
			"Use /setduration to change the duration.\n"+
			"Use /setresolution to change the resolution.\n"+
			"Use /reset to restore defaults.",
		settings.Model, settings.Duration, settings.Resolution))
}

func modelListText() string {
	var v31, v30 []string
	for _, m := range validModels {
		line := fmt.Sprintf("  • <code>%s</code>", m)
		if m == domain.DefaultModel {
			line += " (default)"
		}
		if strings.Contains(m, "veo-3.1") {
			v31 = append(v31, line)
		} else {
			v30 = append(v30, line)
		}
	}
	return "<b>Veo 3.1 models:</b>\n" + strings.Join(v31, "\n") +
		"\n\n<b>Veo 3.0 models:</b>\n" + strings.Join(v30, "\n")
}

func (b *Bot) handleSetModel(ctx context.Context, msg *tgbotapi.Message) {
	model := strings.TrimSpace(msg.CommandArguments())
	if model == "" {
		b.reply(msg.Chat.ID,
			"❌ Please specify a model.\n\n"+
				"Usage: /setmodel [model]\n\n"+
				"Example:\n<code>/setmodel veo-3.1-generate-001</code>\n\n"+
				"📋 Available models (Veo 3.0 and 3.1 only):\n\n"+
				modelListText()+"\n\n"+
				"💡 Use /help to explore other commands.")
		return
	}

	if !isValidModel(model) {
		b.reply(msg.Chat.ID, fmt.Sprintf(
			"❌ Invalid model: <code>%s</code>\n\n"+
				"📋 Please use one of the supported models (Veo 3.0 and 3.1 only):\n\n"+
				modelListText()+"\n\n"+
				"💡 Use /help to explore other commands.", model))
		return
	}

	if _, err := b.settings.Set(ctx, msg.From.ID, domain.SettingsPatch{Model: &model}); err != nil {
		b.logger.Error().Err(err).Msg("bot: model update failed")
		b.reply(msg.Chat.ID, "❌ Failed to save your settings. Please try again.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Model set to: <code>%s</code>", model))
}

func (b *Bot) handleSetDuration(ctx context.Context, msg *tgbotapi.Message) {
	settings, err := b.settings.Get(ctx, msg.From.ID)
	if err != nil {
		b.logger.Error().Err(err).Msg("bot: settings lookup failed")
		b.reply(msg.Chat.ID, "❌ Failed to load your settings. Please try again.")
		return
	}

	durationsText := "📋 Valid durations for Veo 3 models:\n" +
		"  • <code>4</code> seconds\n" +
		"  • <code>6</code> seconds\n" +
		"  • <code>8</code> seconds (default)"

	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		b.reply(msg.Chat.ID, fmt.Sprintf(
			"❌ Please specify a duration.\n\n"+
				"Usage: /setduration [seconds]\n\n"+
				"Example:\n<code>/setduration 8</code>\n\n"+
				"%s\n\n"+
				"Your current model: <code>%s</code>\n"+
				"Your current duration: <code>%d</code> seconds\n\n"+
				"💡 Use /help to explore other commands.",
			durationsText, settings.Model, settings.Duration))
		return
	}

	duration, err := strconv.Atoi(arg)
	if err != nil {
		b.reply(msg.Chat.ID,
			"❌ Invalid duration. Please provide a number.\n\n"+
				"Usage: /setduration [seconds]\n\n"+
				durationsText+"\n\n"+
				"💡 Use /help to explore other commands.")
		return
	}

	if !isValidDuration(duration) {
		b.reply(msg.Chat.ID, fmt.Sprintf(
			"❌ Invalid duration: <code>%d</code> seconds\n\n"+
				"%s\n\n"+
				"Your current model: <code>%s</code>\n\n"+
				"💡 Use /help to explore other commands.",
			duration, durationsText, settings.Model))
		return
	}

	if _, err := b.settings.Set(ctx, msg.From.ID, domain.SettingsPatch{Duration: &duration}); err != nil {
		b.logger.Error().Err(err).Msg("bot: duration update failed")
		b.reply(msg.Chat.ID, "❌ Failed to save your settings. Please try again.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf(
		"✅ Duration set to: <code>%d</code> seconds\n\n"+
			"Model: <code>%s</code>\n"+
			"Duration: <code>%d</code> seconds",
		duration, settings.Model, duration))
}

func (b *Bot) handleSetResolution(ctx context.Context, msg *tgbotapi.Message) {
	arg := strings.ToLower(strings.TrimSpace(msg.CommandArguments()))
	if arg == "" {
		b.reply(msg.Chat.ID,
			"❌ Please specify a resolution.\n\n"+
				"Usage: /setresolution [resolution]\n\n"+
				"Example:\n<code>/setresolution 1080p</code>\n\n"+
				"Valid resolutions:\n"+
				"- <code>720p</code> (default)\n"+
				"- <code>1080p</code>\n\n"+
				"💡 Use /help to explore other commands.")
		return
	}

	if !isValidResolution(arg) {
		b.reply(msg.Chat.ID, fmt.Sprintf(
			"❌ Invalid resolution: <code>%s</code>\n\n"+
				"Please use one of the supported resolutions:\n"+
				"- <code>720p</code>\n"+
				"- <code>1080p</code>\n\n"+
				"💡 Use /help to explore other commands.", arg))
		return
	}

	settings, err := b.settings.Get(ctx, msg.From.ID)
	if err != nil {
		b.logger.Error().Err(err).Msg("bot: settings lookup failed")
		b.reply(msg.Chat.ID, "❌ Failed to load your settings. Please try again.")
		return
	}

	// The resolution is saved first; the model warning below is advisory.
	if _, err := b.settings.Set(ctx, msg.From.ID, domain.SettingsPatch{Resolution: &arg}); err != nil {
		b.logger.Error().Err(err).Msg("bot: resolution update failed")
		b.reply(msg.Chat.ID, "❌ Failed to save your settings. Please try again.")
		return
	}

	if arg == "1080p" && !domain.IsVeo3Model(settings.Model) {
		b.reply(msg.Chat.ID, fmt.Sprintf(
			"⚠️ Warning: <code>1080p</code> resolution is only supported by Veo 3 models.\n"+
				"Your current model is: <code>%s</code>\n\n"+
				"✅ Resolution set to: <code>%s</code>\n"+
				"Consider using a Veo 3 model (e.g., <code>/setmodel veo-3.1-generate-001</code>) for 1080p support.",
			settings.Model, arg))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Resolution set to: <code>%s</code>", arg))
}

func (b *Bot) handleReset(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := b.settings.Reset(ctx, msg.From.ID); err != nil {
		b.logger.Error().Err(err).Msg("bot: settings reset failed")
		b.reply(msg.Chat.ID, "❌ Failed to reset your settings. Please try again.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf(
		"✅ Settings reset to defaults:\n\n"+
			"Model: <code>%s</code>\n"+
			"Duration: <code>%d</code> seconds\n"+
			"Resolution: <code>%s</code>",
		domain.DefaultModel, domain.DefaultDuration, domain.DefaultResolution))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	stats, err := b.ledger.Stats(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("bot: stats lookup failed")
		b.reply(msg.Chat.ID, "❌ Failed to load statistics. Please try again.")
		return
	}
	b.reply(msg.Chat.ID, formatStats(stats))
}

func formatStats(stats domain.Stats) string {
	printer := message.NewPrinter(language.English)
	return printer.Sprintf(
		"📊 Usage Statistics:\n\n"+
			"Total Messages: %d\n"+
			"Unique Users: %d\n"+
			"Successful: %d\n"+
			"Failed: %d\n"+
			"Total Cost: $%.4f\n"+
			"Total Prompt Tokens: %d\n"+
			"Total Output Tokens: %d",
		stats.TotalMessages,
		stats.UniqueUsers,
		stats.Successful,
		stats.Failed,
		stats.TotalCost,
		stats.TotalPromptTokens,
		stats.TotalOutputTokens,
	)
}

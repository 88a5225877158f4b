package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/adapter/repo"
	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/bot"
	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/infra"
	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/orchestrator"
	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/providers/veo"
	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/storage"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := infra.OpenDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}

	files, err := storage.NewTempStore(cfg.StorageDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}
	defer files.CleanupAll()

	client, err := veo.NewClient(ctx, veo.Options{
		ProjectID: cfg.GoogleProjectID,
		Location:  cfg.GoogleLocation,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure veo client")
	}

	settings := repo.NewSettingsRepository(db)
	ledger := repo.NewLedgerRepository(db)

	pipeline := orchestrator.New(orchestrator.Options{
		Settings:   settings,
		Ledger:     ledger,
		Generator:  client,
		Files:      files,
		Logger:     logger,
		QuotaLimit: cfg.VideoQuotaLimit,
	})

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram authentication failed")
	}

	logger.Info().
		Str("project", cfg.GoogleProjectID).
		Str("location", cfg.GoogleLocation).
		Int("quota_limit", cfg.VideoQuotaLimit).
		Msg("starting bot")

	b := bot.New(api, settings, ledger, pipeline, logger)
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("bot stopped with error")
	}
	logger.Info().Msg("bot stopped")
}

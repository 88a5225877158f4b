// Package orchestrator runs the end-to-end video generation pipeline for one
// inbound prompt: quota check, ledger record, remote submit and poll, cost
// computation, download, delivery, and the terminal record update.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/domain"
	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/providers/veo"
	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/storage"
)

const (
	defaultPollBudget = 600 * time.Second

	// Chat platforms cap message length; everything user-facing that embeds
	// an error or the prompt is clipped to this many runes first.
	maxDisplayLength = 200

	generateAudio = true
	sampleCount   = 1
)

// Stage marks pipeline progress points the transport may surface to the user.
type Stage string

const (
	StageStarted     Stage = "started"
	StageDownloading Stage = "downloading"
	StageUploading   Stage = "uploading"
)

// SettingsStore reads the per-user generation configuration.
type SettingsStore interface {
	Get(ctx context.Context, userID int64) (domain.UserSettings, error)
}

// Ledger records generation attempts and answers the quota counters.
type Ledger interface {
	Create(ctx context.Context, userID int64, username, model string, duration int, resolution string) (uint, error)
	Update(ctx context.Context, id uint, patch domain.RecordPatch) error
	SuccessfulCount(ctx context.Context) (int64, error)
	SuccessfulCost(ctx context.Context) (float64, error)
}

// Generator is the remote video generation protocol: submit, poll, fetch.
type Generator interface {
	Submit(ctx context.Context, prompt string, params veo.GenerateParams) (veo.Job, error)
	Poll(ctx context.Context, job veo.Job, maxWait time.Duration) veo.PollResult
	Fetch(ctx context.Context, video veo.Video) ([]byte, error)
}

// Request is one inbound generation prompt. Deliver hands the finished video
// to the user; the file at path is only valid for the duration of the call.
// Progress is optional and reports stage transitions.
type Request struct {
	UserID   int64
	Username string
	Prompt   string
	Deliver  func(ctx context.Context, caption, path string) error
	Progress func(stage Stage)
}

// Outcome is the terminal result of one pipeline run. When Delivered is
// false, Message carries the user-facing text explaining why.
type Outcome struct {
	Delivered     bool
	Message       string
	RecordID      uint
	Cost          float64
	Elapsed       time.Duration
	FilteredCount int
}

// Options wires the pipeline's collaborators.
type Options struct {
	Settings   SettingsStore
	Ledger     Ledger
	Generator  Generator
	Files      *storage.TempStore
	Logger     zerolog.Logger
	QuotaLimit int
	PollBudget time.Duration
}

// Pipeline composes the settings store, ledger, generation client, and temp
// file store into the per-request flow. It is safe for concurrent use; each
// Run is an independent unit of work.
type Pipeline struct {
	settings   SettingsStore
	ledger     Ledger
	generator  Generator
	files      *storage.TempStore
	logger     zerolog.Logger
	quotaLimit int
	pollBudget time.Duration
}

// New builds a pipeline from the given options.
func New(opts Options) *Pipeline {
	pollBudget := opts.PollBudget
	if pollBudget <= 0 {
		pollBudget = defaultPollBudget
	}
	return &Pipeline{
		settings:   opts.Settings,
		ledger:     opts.Ledger,
		generator:  opts.Generator,
		files:      opts.Files,
		logger:     opts.Logger,
		quotaLimit: opts.QuotaLimit,
		pollBudget: pollBudget,
	}
}

// Run executes the pipeline for one request. It never returns an error:
// every failure terminates as a failed ledger record plus a bounded
// user-facing message, except the quota rejection which produces no record at
// all.
func (p *Pipeline) Run(ctx context.Context, req Request) Outcome {
	logger := p.logger.With().
		Str("request_id", uuid.NewString()).
		Int64("user_id", req.UserID).
		Logger()

	// Quota gate. Rejections here never touch the ledger.
	generated, err := p.ledger.SuccessfulCount(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("pipeline: quota check failed")
		return Outcome{Message: errorMessage(err)}
	}
	if p.quotaLimit > 0 && generated >= int64(p.quotaLimit) {
		totalCost, err := p.ledger.SuccessfulCost(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("pipeline: quota cost lookup failed")
		}
		logger.Warn().Int64("generated", generated).Int("limit", p.quotaLimit).Msg("pipeline: quota reached")
		return Outcome{Message: quotaMessage(generated, totalCost, p.quotaLimit)}
	}

	settings, err := p.settings.Get(ctx, req.UserID)
	if err != nil {
		logger.Error().Err(err).Msg("pipeline: settings lookup failed")
		return Outcome{Message: errorMessage(err)}
	}

	recordID, err := p.ledger.Create(ctx, req.UserID, req.Username, settings.Model, settings.Duration, settings.Resolution)
	if err != nil {
		logger.Error().Err(err).Msg("pipeline: record creation failed")
		return Outcome{Message: errorMessage(err)}
	}
	logger = logger.With().Uint("record_id", recordID).Logger()

	start := time.Now()

	job, err := p.generator.Submit(ctx, req.Prompt, veo.GenerateParams{
		Model:           settings.Model,
		DurationSeconds: settings.Duration,
		Resolution:      settings.Resolution,
		GenerateAudio:   generateAudio,
		SampleCount:     sampleCount,
	})
	if err != nil {
		logger.Error().Err(err).Msg("pipeline: submit failed")
		p.markFailed(ctx, logger, recordID)
		return Outcome{RecordID: recordID, Message: errorMessage(err)}
	}
	logger.Info().Str("operation", job.OperationName).Str("model", settings.Model).Msg("pipeline: generation started")
	notify(req, StageStarted)

	result := p.generator.Poll(ctx, job, p.pollBudget)
	switch {
	case result.Err != nil && result.Done:
		logger.Error().Err(result.Err).Msg("pipeline: generation failed")
		p.markFailed(ctx, logger, recordID)
		return Outcome{RecordID: recordID, Message: "❌ Video generation failed: " + truncate(result.Err.Error())}
	case !result.Done:
		logger.Error().Dur("budget", p.pollBudget).Msg("pipeline: generation timed out")
		p.markFailed(ctx, logger, recordID)
		return Outcome{RecordID: recordID, Message: "❌ Video generation timed out. Please try again."}
	case len(result.Videos) == 0:
		logger.Error().Int("filtered", result.FilteredCount).Msg("pipeline: empty result")
		p.markFailed(ctx, logger, recordID)
		return Outcome{RecordID: recordID, Message: "❌ No videos were generated."}
	}

	elapsed := time.Since(start)
	cost := domain.Cost(settings.Model, settings.Duration)

	// Only the first sample is delivered; extra samples in the same response
	// are discarded.
	notify(req, StageDownloading)
	data, err := p.generator.Fetch(ctx, result.Videos[0])
	if err != nil {
		logger.Error().Err(err).Msg("pipeline: video download failed")
		p.markFailed(ctx, logger, recordID)
		return Outcome{RecordID: recordID, Message: errorMessage(err)}
	}

	path, err := p.files.Save(data, ".mp4")
	if err != nil {
		logger.Error().Err(err).Msg("pipeline: temp file write failed")
		p.markFailed(ctx, logger, recordID)
		return Outcome{RecordID: recordID, Message: errorMessage(err)}
	}
	defer p.files.Cleanup(path)

	notify(req, StageUploading)
	caption := buildCaption(req.Prompt, settings, cost, elapsed, result.FilteredCount)
	if err := req.Deliver(ctx, caption, path); err != nil {
		logger.Error().Err(err).Msg("pipeline: delivery failed")
		p.markFailed(ctx, logger, recordID)
		return Outcome{RecordID: recordID, Message: errorMessage(err)}
	}

	status := domain.GenerationStatusSuccess
	if err := p.ledger.Update(ctx, recordID, domain.RecordPatch{Status: &status, Cost: &cost}); err != nil {
		// The video is already with the user; log and report success anyway.
		logger.Error().Err(err).Msg("pipeline: success update failed")
	}

	logger.Info().Float64("cost", cost).Dur("elapsed", elapsed).Msg("pipeline: video delivered")
	return Outcome{
		Delivered:     true,
		RecordID:      recordID,
		Cost:          cost,
		Elapsed:       elapsed,
		FilteredCount: result.FilteredCount,
	}
}

func (p *Pipeline) markFailed(ctx context.Context, logger zerolog.Logger, recordID uint) {
	status := domain.GenerationStatusFailed
	if err := p.ledger.Update(ctx, recordID, domain.RecordPatch{Status: &status}); err != nil {
		logger.Error().Err(err).Msg("pipeline: failed-status update failed")
	}
}

func notify(req Request, stage Stage) {
	if req.Progress != nil {
		req.Progress(stage)
	}
}

func errorMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		msg = "Unknown error"
	}
	return "❌ An error occurred: " + truncate(msg)
}

// truncate clips to maxDisplayLength runes, never mid-rune: a byte slice
// through a multibyte character would hand Telegram invalid UTF-8.
func truncate(msg string) string {
	runes := []rune(msg)
	if len(runes) > maxDisplayLength {
		msg = string(runes[:maxDisplayLength]) + "..."
	}
	return msg
}

func quotaMessage(generated int64, totalCost float64, limit int) string {
	remaining := int64(limit) - generated
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf(
		"❌ <b>Quota Limit Reached</b>\n\n"+
			"The global limit of <b>%d videos</b> has been reached.\n\n"+
			"📊 Stats:\n"+
			"  • Total videos generated: %d\n"+
			"  • Total cost: <b>$%.2f USD</b>\n"+
			"  • Remaining quota: %d videos\n\n"+
			"The service is temporarily unavailable. Please try again later.",
		limit, generated, totalCost, remaining,
	)
}

func buildCaption(prompt string, settings domain.UserSettings, cost float64, elapsed time.Duration, filteredCount int) string {
	audio := "No"
	if generateAudio {
		audio = "Yes"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Video generated! (Time: %s)\n\n", formatElapsed(elapsed))
	fmt.Fprintf(&sb, "📝 Prompt: %s\n\n", truncate(prompt))
	sb.WriteString("⚙️ Settings:\n")
	fmt.Fprintf(&sb, "  • Model: %s\n", settings.Model)
	fmt.Fprintf(&sb, "  • Duration: %ds\n", settings.Duration)
	fmt.Fprintf(&sb, "  • Resolution: %s\n", settings.Resolution)
	fmt.Fprintf(&sb, "  • Audio: %s\n", audio)
	if filteredCount > 0 {
		fmt.Fprintf(&sb, "  • Filtered videos: %d\n", filteredCount)
	}
	sb.WriteString("\n💰 Cost:\n")
	fmt.Fprintf(&sb, "  • $%.2f USD (%ds × $%.2f/s)", cost, settings.Duration, domain.RatePerSecond(settings.Model))
	return sb.String()
}

func formatElapsed(elapsed time.Duration) string {
	total := int(elapsed.Seconds())
	minutes := total / 60
	seconds := total % 60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/domain"
)

// LedgerRepository is the append-only record of generation attempts. Rows are
// created pending, flipped once to a terminal status, and never deleted. Each
// call maps to a single SQLite transaction, so concurrent writers cannot
// collide on ids and aggregate reads never observe a half-written row.
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a ledger repository over the shared handle.
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Create appends a pending record stamped with the current UTC instant and
// returns its id.
func (r *LedgerRepository) Create(ctx context.Context, userID int64, username, model string, duration int, resolution string) (uint, error) {
	record := domain.GenerationRecord{
		UserID:     userID,
		Username:   username,
		CreatedAt:  time.Now().UTC(),
		Model:      model,
		Duration:   duration,
		Resolution: resolution,
		Status:     domain.GenerationStatusPending,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return 0, fmt.Errorf("create record: %w", err)
	}
	return record.ID, nil
}

// Update applies only the supplied patch fields to the record. An all-nil
// patch touches nothing.
func (r *LedgerRepository) Update(ctx context.Context, id uint, patch domain.RecordPatch) error {
	updates := map[string]any{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.Cost != nil {
		updates["cost"] = *patch.Cost
	}
	if patch.PromptTokens != nil {
		updates["prompt_tokens"] = *patch.PromptTokens
	}
	if patch.OutputTokens != nil {
		updates["output_tokens"] = *patch.OutputTokens
	}
	if len(updates) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Model(&domain.GenerationRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

const statsQuery = `
SELECT
    COUNT(*) AS total_messages,
    COUNT(DISTINCT user_id) AS unique_users,
    COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) AS successful,
    COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) AS failed,
    COALESCE(SUM(cost), 0) AS total_cost,
    COALESCE(SUM(prompt_tokens), 0) AS total_prompt_tokens,
    COALESCE(SUM(output_tokens), 0) AS total_output_tokens
FROM generation_records;
`

// Stats returns the full-table aggregate, computed fresh on every call.
func (r *LedgerRepository) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	if err := r.db.WithContext(ctx).Raw(statsQuery).Scan(&stats).Error; err != nil {
		return domain.Stats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	return stats, nil
}

// SuccessfulCount returns how many videos have been generated successfully
// across all users. The global quota check reads this on every request.
func (r *LedgerRepository) SuccessfulCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.GenerationRecord{}).
		Where("status = ?", domain.GenerationStatusSuccess).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count successful records: %w", err)
	}
	return count, nil
}

// SuccessfulCost returns the total cost of all successful generations.
func (r *LedgerRepository) SuccessfulCost(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Raw("SELECT COALESCE(SUM(cost), 0) FROM generation_records WHERE status = ?", domain.GenerationStatusSuccess).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum successful cost: %w", err)
	}
	return total, nil
}

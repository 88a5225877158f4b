package domain

import "time"

// GenerationStatus enumerates record lifecycle states. A record starts as
// pending and moves exactly once to success or failed.
type GenerationStatus string

const (
	GenerationStatusPending GenerationStatus = "pending"
	GenerationStatusSuccess GenerationStatus = "success"
	GenerationStatusFailed  GenerationStatus = "failed"
)

// GenerationRecord describes one generation attempt in the append-only ledger.
// Cost is set only when the attempt succeeds. The token counters are part of
// the schema but not populated by the current pipeline.
type GenerationRecord struct {
	ID           uint             `gorm:"primarykey" json:"id"`
	UserID       int64            `gorm:"index;not null" json:"user_id"`
	Username     string           `json:"username"`
	CreatedAt    time.Time        `gorm:"not null" json:"created_at"`
	PromptTokens int              `gorm:"default:0" json:"prompt_tokens"`
	OutputTokens int              `gorm:"default:0" json:"output_tokens"`
	Model        string           `gorm:"not null" json:"model"`
	Cost         float64          `gorm:"default:0" json:"cost"`
	Duration     int              `gorm:"not null" json:"duration"`
	Resolution   string           `gorm:"not null" json:"resolution"`
	Status       GenerationStatus `gorm:"not null" json:"status"`
}

// TableName pins the table name used by the embedded store.
func (GenerationRecord) TableName() string {
	return "generation_records"
}

// RecordPatch carries optional fields for a partial record update. Nil fields
// are left unchanged; an all-nil patch is a no-op.
type RecordPatch struct {
	Status       *GenerationStatus
	Cost         *float64
	PromptTokens *int
	OutputTokens *int
}

// Stats aggregates the full ledger, recomputed on every read. Pending records
// count toward TotalMessages but toward neither Successful nor Failed.
type Stats struct {
	TotalMessages     int64
	UniqueUsers       int64
	Successful        int64
	Failed            int64
	TotalCost         float64
	TotalPromptTokens int64
	TotalOutputTokens int64
}

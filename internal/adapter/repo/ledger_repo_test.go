package repo

import (
	"context"
	"math"
	"testing"

	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/domain"
)

func statusPtr(s domain.GenerationStatus) *domain.GenerationStatus { return &s }
func floatPtr(f float64) *float64                                  { return &f }

func TestLedgerCreateAssignsDistinctIDs(t *testing.T) {
	r := NewLedgerRepository(setupTestDB(t))
	ctx := context.Background()

	first, err := r.Create(ctx, 1, "alice", domain.DefaultModel, 8, "720p")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	second, err := r.Create(ctx, 1, "alice", domain.DefaultModel, 8, "720p")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if first == second {
		t.Fatalf("consecutive records share id %d", first)
	}
}

func TestLedgerCreateStartsPending(t *testing.T) {
	db := setupTestDB(t)
	r := NewLedgerRepository(db)
	ctx := context.Background()

	id, err := r.Create(ctx, 7, "bob", "veo-3.1-generate-001", 6, "1080p")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	var record domain.GenerationRecord
	if err := db.First(&record, id).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Status != domain.GenerationStatusPending {
		t.Fatalf("Status = %q, want %q", record.Status, domain.GenerationStatusPending)
	}
	if record.Cost != 0 {
		t.Fatalf("Cost = %v, want 0", record.Cost)
	}
	if record.Model != "veo-3.1-generate-001" || record.Duration != 6 || record.Resolution != "1080p" {
		t.Fatalf("record fields = %q/%d/%q, want requested triple", record.Model, record.Duration, record.Resolution)
	}
}

func TestLedgerUpdateAppliesOnlyGivenFields(t *testing.T) {
	db := setupTestDB(t)
	r := NewLedgerRepository(db)
	ctx := context.Background()

	id, err := r.Create(ctx, 7, "bob", domain.DefaultModel, 8, "720p")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	err = r.Update(ctx, id, domain.RecordPatch{
		Status: statusPtr(domain.GenerationStatusSuccess),
		Cost:   floatPtr(1.20),
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	var record domain.GenerationRecord
	if err := db.First(&record, id).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Status != domain.GenerationStatusSuccess {
		t.Fatalf("Status = %q, want %q", record.Status, domain.GenerationStatusSuccess)
	}
	if math.Abs(record.Cost-1.20) > 1e-9 {
		t.Fatalf("Cost = %v, want 1.20", record.Cost)
	}
	if record.Username != "bob" {
		t.Fatalf("Username = %q, want untouched %q", record.Username, "bob")
	}
}

func TestLedgerUpdateEmptyPatchIsNoop(t *testing.T) {
	db := setupTestDB(t)
	r := NewLedgerRepository(db)
	ctx := context.Background()

	id, err := r.Create(ctx, 7, "bob", domain.DefaultModel, 8, "720p")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := r.Update(ctx, id, domain.RecordPatch{}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	var record domain.GenerationRecord
	if err := db.First(&record, id).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Status != domain.GenerationStatusPending {
		t.Fatalf("Status = %q after empty patch, want pending", record.Status)
	}
}

func TestLedgerStatsAggregates(t *testing.T) {
	r := NewLedgerRepository(setupTestDB(t))
	ctx := context.Background()

	succeeded, err := r.Create(ctx, 1, "alice", "veo-3.1-fast-generate-001", 8, "720p")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	failed, err := r.Create(ctx, 2, "bob", "veo-3.1-generate-001", 6, "1080p")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	// A third record stays pending.
	if _, err := r.Create(ctx, 1, "alice", domain.DefaultModel, 4, "720p"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := r.Update(ctx, succeeded, domain.RecordPatch{
		Status: statusPtr(domain.GenerationStatusSuccess),
		Cost:   floatPtr(1.20),
	}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := r.Update(ctx, failed, domain.RecordPatch{
		Status: statusPtr(domain.GenerationStatusFailed),
	}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	stats, err := r.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.TotalMessages != 3 {
		t.Fatalf("TotalMessages = %d, want 3", stats.TotalMessages)
	}
	if stats.UniqueUsers != 2 {
		t.Fatalf("UniqueUsers = %d, want 2", stats.UniqueUsers)
	}
	if stats.Successful != 1 || stats.Failed != 1 {
		t.Fatalf("Successful/Failed = %d/%d, want 1/1", stats.Successful, stats.Failed)
	}
	if stats.Successful+stats.Failed > stats.TotalMessages {
		t.Fatalf("terminal rows %d exceed total %d", stats.Successful+stats.Failed, stats.TotalMessages)
	}
	if math.Abs(stats.TotalCost-1.20) > 1e-9 {
		t.Fatalf("TotalCost = %v, want 1.20", stats.TotalCost)
	}
}

func TestLedgerStatsEmptyTable(t *testing.T) {
	r := NewLedgerRepository(setupTestDB(t))

	stats, err := r.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats != (domain.Stats{}) {
		t.Fatalf("Stats on empty table = %+v, want zero values", stats)
	}
}

func TestLedgerSuccessfulCounters(t *testing.T) {
	r := NewLedgerRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id, err := r.Create(ctx, int64(i), "user", "veo-3.1-fast-generate-001", 8, "720p")
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if i < 2 {
			if err := r.Update(ctx, id, domain.RecordPatch{
				Status: statusPtr(domain.GenerationStatusSuccess),
				Cost:   floatPtr(1.20),
			}); err != nil {
				t.Fatalf("Update returned error: %v", err)
			}
		}
	}

	count, err := r.SuccessfulCount(ctx)
	if err != nil {
		t.Fatalf("SuccessfulCount returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("SuccessfulCount = %d, want 2", count)
	}

	cost, err := r.SuccessfulCost(ctx)
	if err != nil {
		t.Fatalf("SuccessfulCost returned error: %v", err)
	}
	if math.Abs(cost-2.40) > 1e-9 {
		t.Fatalf("SuccessfulCost = %v, want 2.40", cost)
	}
}

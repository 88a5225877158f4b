package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.UserSettings{}, &domain.GenerationRecord{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestSettingsGetReturnsDefaults(t *testing.T) {
	r := NewSettingsRepository(setupTestDB(t))
	ctx := context.Background()

	got, err := r.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	want := domain.DefaultSettings(42)
	if got != want {
		t.Fatalf("Get = %+v, want defaults %+v", got, want)
	}
}

func TestSettingsSetMergesPartialFields(t *testing.T) {
	r := NewSettingsRepository(setupTestDB(t))
	ctx := context.Background()

	got, err := r.Set(ctx, 42, domain.SettingsPatch{Model: strPtr("veo-3.1-generate-001")})
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got.Model != "veo-3.1-generate-001" {
		t.Fatalf("Model = %q, want %q", got.Model, "veo-3.1-generate-001")
	}
	if got.Duration != domain.DefaultDuration {
		t.Fatalf("Duration = %d, want default %d", got.Duration, domain.DefaultDuration)
	}
	if got.Resolution != domain.DefaultResolution {
		t.Fatalf("Resolution = %q, want default %q", got.Resolution, domain.DefaultResolution)
	}

	// A second partial update must keep the earlier change.
	got, err = r.Set(ctx, 42, domain.SettingsPatch{Duration: intPtr(4)})
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got.Model != "veo-3.1-generate-001" {
		t.Fatalf("Model = %q after duration update, want %q", got.Model, "veo-3.1-generate-001")
	}
	if got.Duration != 4 {
		t.Fatalf("Duration = %d, want 4", got.Duration)
	}

	persisted, err := r.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if persisted != got {
		t.Fatalf("persisted settings = %+v, want %+v", persisted, got)
	}
}

func TestSettingsSetDoesNotLeakAcrossUsers(t *testing.T) {
	r := NewSettingsRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := r.Set(ctx, 1, domain.SettingsPatch{Resolution: strPtr("1080p")}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	other, err := r.Get(ctx, 2)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if other.Resolution != domain.DefaultResolution {
		t.Fatalf("user 2 resolution = %q, want default %q", other.Resolution, domain.DefaultResolution)
	}
}

func TestSettingsResetRestoresDefaults(t *testing.T) {
	r := NewSettingsRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := r.Set(ctx, 42, domain.SettingsPatch{
		Model:      strPtr("veo-3.0-generate-001"),
		Duration:   intPtr(6),
		Resolution: strPtr("1080p"),
	}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := r.Reset(ctx, 42)
	if err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if got != domain.DefaultSettings(42) {
		t.Fatalf("Reset = %+v, want defaults", got)
	}

	after, err := r.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if after != domain.DefaultSettings(42) {
		t.Fatalf("Get after Reset = %+v, want defaults", after)
	}
}

func TestSettingsResetWithoutRowIsNoop(t *testing.T) {
	r := NewSettingsRepository(setupTestDB(t))

	got, err := r.Reset(context.Background(), 99)
	if err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if got != domain.DefaultSettings(99) {
		t.Fatalf("Reset = %+v, want defaults", got)
	}
}

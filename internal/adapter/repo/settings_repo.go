package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/domain"
)

// SettingsRepository persists per-user generation settings in the embedded
// store. Values are stored as given; validation belongs to the command layer.
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a settings repository over the shared handle.
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings for the user, or the defaults when no row
// exists. Only storage failures produce an error.
func (r *SettingsRepository) Get(ctx context.Context, userID int64) (domain.UserSettings, error) {
	var settings domain.UserSettings
	err := r.db.WithContext(ctx).First(&settings, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.DefaultSettings(userID), nil
	}
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// Set merges the patch onto the current settings (persisted or default) and
// writes the full merged row back. It returns the resulting record.
func (r *SettingsRepository) Set(ctx context.Context, userID int64, patch domain.SettingsPatch) (domain.UserSettings, error) {
	current, err := r.Get(ctx, userID)
	if err != nil {
		return domain.UserSettings{}, err
	}

	if patch.Model != nil {
		current.Model = *patch.Model
	}
	if patch.Duration != nil {
		current.Duration = *patch.Duration
	}
	if patch.Resolution != nil {
		current.Resolution = *patch.Resolution
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&current).Error
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("save settings: %w", err)
	}
	return current, nil
}

// Reset deletes any stored row so subsequent reads fall back to the defaults.
// Resetting a user without a row is a no-op.
func (r *SettingsRepository) Reset(ctx context.Context, userID int64) (domain.UserSettings, error) {
	err := r.db.WithContext(ctx).
		Delete(&domain.UserSettings{}, "user_id = ?", userID).Error
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("delete settings: %w", err)
	}
	return domain.DefaultSettings(userID), nil
}

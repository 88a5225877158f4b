package domain

// Default generation settings applied whenever a user has no stored record.
const (
	DefaultModel      = "veo-3.1-fast-generate-001"
	DefaultDuration   = 8
	DefaultResolution = "720p"
)

// UserSettings holds one user's generation configuration. A missing row means
// the defaults apply; a stored row always carries all three fields.
type UserSettings struct {
	UserID     int64  `gorm:"primaryKey" json:"user_id"`
	Model      string `gorm:"not null" json:"model"`
	Duration   int    `gorm:"not null" json:"duration"`
	Resolution string `gorm:"not null" json:"resolution"`
}

// TableName pins the table name used by the embedded store.
func (UserSettings) TableName() string {
	return "user_settings"
}

// DefaultSettings returns the default triple for the given user.
func DefaultSettings(userID int64) UserSettings {
	return UserSettings{
		UserID:     userID,
		Model:      DefaultModel,
		Duration:   DefaultDuration,
		Resolution: DefaultResolution,
	}
}

// SettingsPatch carries optional fields for a partial settings update. Nil
// fields are left unchanged.
type SettingsPatch struct {
	Model      *string
	Duration   *int
	Resolution *string
}

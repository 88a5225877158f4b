package infra

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/domain"
)

// OpenDB opens the embedded SQLite store at path and ensures the schema. The
// returned handle is shared by all repositories for the process lifetime.
func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.UserSettings{}, &domain.GenerationRecord{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}

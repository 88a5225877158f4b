// Package storage provides the scoped temporary-file capability used to hand
// downloaded videos to the delivery channel.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const defaultDirName = "telegram-video-gen"

// TempStore allocates short-lived files under one base directory. Files exist
// only for the span of a single delivery; removal is best effort and removal
// failures never reach the caller.
type TempStore struct {
	baseDir string
	logger  zerolog.Logger
}

// NewTempStore initializes the store rooted at baseDir, falling back to a
// scoped directory under the system temp dir when baseDir is empty.
func NewTempStore(baseDir string, logger zerolog.Logger) (*TempStore, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), defaultDirName)
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &TempStore{baseDir: baseDir, logger: logger}, nil
}

// BaseDir returns the configured root directory.
func (s *TempStore) BaseDir() string {
	return s.baseDir
}

// Save writes data into a fresh file under the store and returns its path.
// The caller owns the file and is expected to Cleanup it when done.
func (s *TempStore) Save(data []byte, suffix string) (string, error) {
	f, err := os.CreateTemp(s.baseDir, "video-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	path := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		s.Cleanup(path)
		return "", fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		s.Cleanup(path)
		return "", fmt.Errorf("storage: close temp file: %w", err)
	}
	return path, nil
}

// Cleanup removes one file. Failures are logged and swallowed.
func (s *TempStore) Cleanup(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("path", path).Msg("storage: temp file cleanup failed")
	}
}

// CleanupAll sweeps every file left under the base directory. Called at
// shutdown to drop anything an interrupted delivery left behind.
func (s *TempStore) CleanupAll() {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		s.logger.Warn().Err(err).Str("dir", s.baseDir).Msg("storage: sweep failed")
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s.Cleanup(filepath.Join(s.baseDir, entry.Name()))
	}
}

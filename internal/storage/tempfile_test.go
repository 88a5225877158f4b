package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *TempStore {
	t.Helper()
	store, err := NewTempStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTempStore returned error: %v", err)
	}
	return store
}

func TestSaveWritesFileWithSuffix(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Save([]byte("video data"), ".mp4")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if !strings.HasSuffix(path, ".mp4") {
		t.Fatalf("path = %q, want .mp4 suffix", path)
	}
	if filepath.Dir(path) != store.BaseDir() {
		t.Fatalf("file written outside store: %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "video data" {
		t.Fatalf("file contents = %q, want %q", data, "video data")
	}
}

func TestCleanupRemovesFile(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Save([]byte("x"), ".mp4")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	store.Cleanup(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still exists after Cleanup: %v", err)
	}
}

func TestCleanupMissingFileIsSilent(t *testing.T) {
	store := newTestStore(t)
	// Must not panic or error in any observable way.
	store.Cleanup(filepath.Join(store.BaseDir(), "never-existed.mp4"))
}

func TestCleanupAllSweepsBaseDir(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := store.Save([]byte("x"), ".mp4"); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}
	}

	store.CleanupAll()

	entries, err := os.ReadDir(store.BaseDir())
	if err != nil {
		t.Fatalf("read base dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("base dir has %d entries after CleanupAll, want 0", len(entries))
	}
}

func TestNewTempStoreDefaultsToScopedTempDir(t *testing.T) {
	store, err := NewTempStore("", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTempStore returned error: %v", err)
	}
	if filepath.Dir(store.BaseDir()) != filepath.Clean(os.TempDir()) {
		t.Fatalf("BaseDir = %q, want a directory under the system temp dir", store.BaseDir())
	}
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"formcheck/internal/config"
)

// EmptyReplay is a pose recording with no frames.
const EmptyReplay = `{"frames":[]}`

// WriteFile creates path (and its parent directories) holding data.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteReplay stores a pose recording at the config's replay path so the
// replay backend and its preflight check can load it.
func WriteReplay(t testing.TB, cfg *config.Config, recording string) {
	t.Helper()
	WriteFile(t, cfg.Pose.ReplayPath, []byte(recording))
}

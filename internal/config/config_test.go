package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"formcheck/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "formcheck")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.ImagesDir() != filepath.Join(wantData, "images") {
		t.Fatalf("unexpected images dir: %q", cfg.ImagesDir())
	}
	if cfg.Server.Bind != "0.0.0.0:8000" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("expected api key from env, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.Scan.DefaultFrameSkip != 10 || cfg.Scan.MinFrameSkip != 1 || cfg.Scan.MaxFrameSkip != 30 {
		t.Fatalf("unexpected frame skip bounds: %+v", cfg.Scan)
	}
	if cfg.Scan.DangerAngle != 60 {
		t.Fatalf("unexpected danger angle: %v", cfg.Scan.DangerAngle)
	}
	if got := cfg.Scan.Keypoints; len(got) != 3 || got[0] != 12 || got[1] != 14 || got[2] != 16 {
		t.Fatalf("unexpected keypoints: %v", got)
	}
	if cfg.Server.WriteTimeoutSeconds != 0 {
		t.Fatalf("expected no default write timeout, got %d", cfg.Server.WriteTimeoutSeconds)
	}
	if cfg.OpenAI.VisionModel != "gpt-4o-mini" || cfg.OpenAI.TTSVoice != "alloy" {
		t.Fatalf("unexpected openai defaults: %+v", cfg.OpenAI)
	}
}

func TestLoadReadsFileValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "formcheck.toml")

	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Scan.DangerAngle = 75
	cfg.Fetch.AllowedDomains = []string{" Example.COM ", "example.com", "cdn.test"}
	cfg.Overlay.Style = "LINES"
	cfg.Server.WriteTimeoutSeconds = -5
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", path, resolved, exists)
	}
	if loaded.Scan.DangerAngle != 75 {
		t.Fatalf("expected danger angle 75, got %v", loaded.Scan.DangerAngle)
	}
	if strings.Join(loaded.Fetch.AllowedDomains, ",") != "example.com,cdn.test" {
		t.Fatalf("expected normalized domains, got %v", loaded.Fetch.AllowedDomains)
	}
	if loaded.Overlay.Style != "lines" {
		t.Fatalf("expected lower-cased style, got %q", loaded.Overlay.Style)
	}
	if loaded.Server.WriteTimeoutSeconds != 0 {
		t.Fatalf("expected negative write timeout normalized to 0, got %d", loaded.Server.WriteTimeoutSeconds)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ALLOWED_VIDEO_DOMAINS", "a.test, b.test")
	t.Setenv("DANGER_ANGLE_THRESHOLD", "45.5")
	t.Setenv("POSE_KEYPOINTS", "11,13,15")
	t.Setenv("API_PORT", "9000")
	t.Setenv("DEFAULT_FRAME_SKIP", "5")
	t.Setenv("DANGER_COLOR", "0,255,0")
	t.Setenv("DATABASE_URL", "postgres://localhost/formcheck")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if strings.Join(cfg.Fetch.AllowedDomains, ",") != "a.test,b.test" {
		t.Fatalf("unexpected domains: %v", cfg.Fetch.AllowedDomains)
	}
	if cfg.Scan.DangerAngle != 45.5 {
		t.Fatalf("unexpected danger angle: %v", cfg.Scan.DangerAngle)
	}
	if cfg.Scan.Keypoints[0] != 11 || cfg.Scan.Keypoints[2] != 15 {
		t.Fatalf("unexpected keypoints: %v", cfg.Scan.Keypoints)
	}
	if cfg.Server.Bind != "0.0.0.0:9000" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.Scan.DefaultFrameSkip != 5 {
		t.Fatalf("unexpected frame skip: %d", cfg.Scan.DefaultFrameSkip)
	}
	if cfg.Overlay.DangerColor[1] != 255 {
		t.Fatalf("unexpected danger color: %v", cfg.Overlay.DangerColor)
	}
	if cfg.History.PostgresURL != "postgres://localhost/formcheck" {
		t.Fatalf("unexpected postgres url: %q", cfg.History.PostgresURL)
	}
}

func TestEnvironmentOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MAX_FRAME_SKIP", "lots")

	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for non-numeric MAX_FRAME_SKIP")
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"keypoint count", func(c *config.Config) { c.Scan.Keypoints = []int{12, 14} }, "scan.keypoints"},
		{"keypoint range", func(c *config.Config) { c.Scan.Keypoints = []int{12, 14, 17} }, "scan.keypoints"},
		{"default skip outside bounds", func(c *config.Config) { c.Scan.DefaultFrameSkip = 40 }, "scan.default_frame_skip"},
		{"inverted bounds", func(c *config.Config) { c.Scan.MaxFrameSkip = 0 }, "scan.max_frame_skip"},
		{"no domains", func(c *config.Config) { c.Fetch.AllowedDomains = nil }, "fetch.allowed_domains"},
		{"backend", func(c *config.Config) { c.Pose.Backend = "mediapipe" }, "pose.backend"},
		{"replay path", func(c *config.Config) { c.Pose.Backend = "replay" }, "pose.replay_path"},
		{"overlay style", func(c *config.Config) { c.Overlay.Style = "box" }, "overlay.style"},
		{"color", func(c *config.Config) { c.Overlay.DangerColor = []int{300, 0, 0} }, "overlay.danger_color"},
		{"public url", func(c *config.Config) { c.Server.PublicBaseURL = "not a url" }, "server.public_base_url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Overlay.CircleRadius != 40 {
		t.Fatalf("unexpected circle radius from sample: %d", cfg.Overlay.CircleRadius)
	}
}

func TestEnsureDirectoriesCreatesBlobDirs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.TempDir = filepath.Join(base, "tmp")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.ImagesDir(), cfg.AudioDir(), cfg.Paths.LogDir, cfg.Paths.TempDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

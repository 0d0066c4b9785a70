package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP listener settings.
type Server struct {
	Bind                  string `toml:"bind"`
	PublicBaseURL         string `toml:"public_base_url"`
	MaxConcurrentAnalyses int    `toml:"max_concurrent_analyses"`
	ReadTimeoutSeconds    int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds   int    `toml:"write_timeout_seconds"`
}

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	TempDir string `toml:"temp_dir"`
}

// Fetch controls how source videos are downloaded.
type Fetch struct {
	AllowedDomains []string `toml:"allowed_domains"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	ChunkSize      int      `toml:"chunk_size"`
}

// Scan controls frame sampling and angle classification.
type Scan struct {
	DefaultFrameSkip int     `toml:"default_frame_skip"`
	MinFrameSkip     int     `toml:"min_frame_skip"`
	MaxFrameSkip     int     `toml:"max_frame_skip"`
	DangerAngle      float64 `toml:"danger_angle"`
	Keypoints        []int   `toml:"keypoints"`
}

// Pose selects and tunes the pose tracking backend.
type Pose struct {
	Backend             string  `toml:"backend"`
	ModelPath           string  `toml:"model_path"`
	LibraryPath         string  `toml:"library_path"`
	InputSize           int     `toml:"input_size"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	NMSThreshold        float64 `toml:"nms_threshold"`
	TrackIoUThreshold   float64 `toml:"track_iou_threshold"`
	TrackMaxMissed      int     `toml:"track_max_missed"`
	ReplayPath          string  `toml:"replay_path"`
}

// Overlay controls the indicator drawn on the selected frame. Colors are RGB.
type Overlay struct {
	Style           string `toml:"style"`
	CircleOffsetX   int    `toml:"circle_offset_x"`
	CircleRadius    int    `toml:"circle_radius"`
	CircleThickness int    `toml:"circle_thickness"`
	LineWidth       int    `toml:"line_width"`
	DangerColor     []int  `toml:"danger_color"`
	NormalColor     []int  `toml:"normal_color"`
}

// OpenAI contains connection settings for the vision and speech models.
type OpenAI struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	VisionModel       string `toml:"vision_model"`
	VisionMaxTokens   int    `toml:"vision_max_tokens"`
	TTSModel          string `toml:"tts_model"`
	TTSVoice          string `toml:"tts_voice"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	ImageMaxDimension int    `toml:"image_max_dimension"`
}

// History controls persistence of completed analyses.
type History struct {
	Enabled     bool   `toml:"enabled"`
	PostgresURL string `toml:"postgres_url"`
}

// Cleanup controls retention of generated images and audio.
type Cleanup struct {
	RetentionHours  int `toml:"retention_hours"`
	IntervalMinutes int `toml:"interval_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for formcheck.
//
// Configuration sections by subsystem:
//   - Server: HTTP bind address, public URL, concurrency and timeouts
//   - Paths: data, log and scratch directories
//   - Fetch: allowed video hosts and download limits
//   - Scan: frame sampling bounds, danger threshold, keypoint triple
//   - Pose: tracker backend and model tuning
//   - Overlay: indicator style and colors
//   - OpenAI: vision and speech model settings
//   - History: analysis persistence
//   - Cleanup: retention for generated files
//   - Logging: log format, level, and retention
type Config struct {
	Server  Server  `toml:"server"`
	Paths   Paths   `toml:"paths"`
	Fetch   Fetch   `toml:"fetch"`
	Scan    Scan    `toml:"scan"`
	Pose    Pose    `toml:"pose"`
	Overlay Overlay `toml:"overlay"`
	OpenAI  OpenAI  `toml:"openai"`
	History History `toml:"history"`
	Cleanup Cleanup `toml:"cleanup"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/formcheck/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("formcheck.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the server writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.ImagesDir(), c.AudioDir(), c.Paths.LogDir, c.Paths.TempDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ImagesDir is where annotated frames are stored.
func (c *Config) ImagesDir() string {
	return filepath.Join(c.Paths.DataDir, "images")
}

// AudioDir is where synthesized summaries are stored.
func (c *Config) AudioDir() string {
	return filepath.Join(c.Paths.DataDir, "audio")
}

// HistoryDBPath returns the SQLite database used when no Postgres URL is set.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// LockPath returns the lock file guarding the data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "formcheck.lock")
}

// FetchTimeout returns the download timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// RetentionPeriod returns how long generated files are kept.
func (c *Config) RetentionPeriod() time.Duration {
	return time.Duration(c.Cleanup.RetentionHours) * time.Hour
}

// CleanupInterval returns the delay between retention sweeps.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Cleanup.IntervalMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

package testsupport

import (
	"path/filepath"
	"testing"

	"formcheck/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options. Directories are
// created so stores can be opened immediately.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.TempDir = filepath.Join(base, "tmp")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.OpenAI.APIKey = "sk-test"
	cfgVal.Pose.Backend = "replay"
	cfgVal.Pose.ReplayPath = filepath.Join(base, "replay.json")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithAllowedDomains replaces the download allow list.
func WithAllowedDomains(domains ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fetch.AllowedDomains = domains
	}
}

// WithPublicBaseURL fixes the base used for generated file URLs.
func WithPublicBaseURL(base string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.PublicBaseURL = base
	}
}

// WithOpenAIBaseURL points the OpenAI clients at a test server.
func WithOpenAIBaseURL(base string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenAI.BaseURL = base
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

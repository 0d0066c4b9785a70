package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeFetch()
	c.normalizeScan()
	if err := c.normalizePose(); err != nil {
		return err
	}
	c.normalizeOverlay()
	c.normalizeOpenAI()
	c.normalizeCleanup()
	c.normalizeLogging()
	return nil
}

// applyEnv lets deployment environments override file values using the
// variable names the hosted service has always used.
func (c *Config) applyEnv() error {
	if value, ok := lookupTrimmed("OPENAI_API_KEY"); ok && strings.TrimSpace(c.OpenAI.APIKey) == "" {
		c.OpenAI.APIKey = value
	}
	if value, ok := lookupTrimmed("DATABASE_URL"); ok && strings.TrimSpace(c.History.PostgresURL) == "" {
		c.History.PostgresURL = value
	}
	if value, ok := lookupTrimmed("ALLOWED_VIDEO_DOMAINS"); ok {
		c.Fetch.AllowedDomains = splitList(value)
	}
	if value, ok := lookupTrimmed("OPENAI_VISION_MODEL"); ok {
		c.OpenAI.VisionModel = value
	}
	if value, ok := lookupTrimmed("OPENAI_TTS_MODEL"); ok {
		c.OpenAI.TTSModel = value
	}
	if value, ok := lookupTrimmed("OPENAI_TTS_VOICE"); ok {
		c.OpenAI.TTSVoice = value
	}
	if value, ok := lookupTrimmed("LOG_LEVEL"); ok {
		c.Logging.Level = value
	}
	if value, ok := lookupTrimmed("PUBLIC_BASE_URL"); ok {
		c.Server.PublicBaseURL = value
	}

	host, hasHost := lookupTrimmed("API_HOST")
	port, hasPort := lookupTrimmed("API_PORT")
	if hasHost || hasPort {
		currentHost, currentPort := splitBind(c.Server.Bind)
		if hasHost {
			currentHost = host
		}
		if hasPort {
			currentPort = port
		}
		c.Server.Bind = currentHost + ":" + currentPort
	}

	ints := []struct {
		name   string
		target *int
	}{
		{"OPENAI_VISION_MAX_TOKENS", &c.OpenAI.VisionMaxTokens},
		{"DEFAULT_FRAME_SKIP", &c.Scan.DefaultFrameSkip},
		{"MIN_FRAME_SKIP", &c.Scan.MinFrameSkip},
		{"MAX_FRAME_SKIP", &c.Scan.MaxFrameSkip},
		{"POSE_LINE_WIDTH", &c.Overlay.LineWidth},
		{"CIRCLE_OFFSET_X", &c.Overlay.CircleOffsetX},
		{"CIRCLE_RADIUS", &c.Overlay.CircleRadius},
		{"CIRCLE_THICKNESS", &c.Overlay.CircleThickness},
		{"CLEANUP_HOURS", &c.Cleanup.RetentionHours},
		{"HTTP_TIMEOUT", &c.Fetch.TimeoutSeconds},
		{"HTTP_CHUNK_SIZE", &c.Fetch.ChunkSize},
	}
	for _, entry := range ints {
		value, ok := lookupTrimmed(entry.name)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected integer, got %q", entry.name, value)
		}
		*entry.target = parsed
	}

	if value, ok := lookupTrimmed("DANGER_ANGLE_THRESHOLD"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("DANGER_ANGLE_THRESHOLD: expected number, got %q", value)
		}
		c.Scan.DangerAngle = parsed
	}

	lists := []struct {
		name   string
		target *[]int
	}{
		{"POSE_KEYPOINTS", &c.Scan.Keypoints},
		{"DANGER_COLOR", &c.Overlay.DangerColor},
		{"NORMAL_COLOR", &c.Overlay.NormalColor},
	}
	for _, entry := range lists {
		value, ok := lookupTrimmed(entry.name)
		if !ok {
			continue
		}
		parsed, err := parseIntList(value)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.name, err)
		}
		*entry.target = parsed
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Server.PublicBaseURL), "/")
	if c.Server.MaxConcurrentAnalyses <= 0 {
		c.Server.MaxConcurrentAnalyses = defaultMaxConcurrent
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = defaultReadTimeoutSeconds
	}
	// Zero means no write deadline.
	if c.Server.WriteTimeoutSeconds < 0 {
		c.Server.WriteTimeoutSeconds = defaultWriteTimeoutSeconds
	}
}

func (c *Config) normalizeFetch() {
	domains := make([]string, 0, len(c.Fetch.AllowedDomains))
	seen := make(map[string]struct{}, len(c.Fetch.AllowedDomains))
	for _, domain := range c.Fetch.AllowedDomains {
		normalized := strings.ToLower(strings.TrimSpace(domain))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		domains = append(domains, normalized)
	}
	c.Fetch.AllowedDomains = domains
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeoutSeconds
	}
	if c.Fetch.ChunkSize <= 0 {
		c.Fetch.ChunkSize = defaultChunkSize
	}
}

func (c *Config) normalizeScan() {
	if len(c.Scan.Keypoints) == 0 {
		c.Scan.Keypoints = defaultKeypoints()
	}
}

func (c *Config) normalizePose() error {
	c.Pose.Backend = strings.ToLower(strings.TrimSpace(c.Pose.Backend))
	if c.Pose.Backend == "" {
		c.Pose.Backend = defaultPoseBackend
	}
	var err error
	if c.Pose.ModelPath, err = expandPath(strings.TrimSpace(c.Pose.ModelPath)); err != nil {
		return fmt.Errorf("pose.model_path: %w", err)
	}
	if c.Pose.LibraryPath, err = expandPath(strings.TrimSpace(c.Pose.LibraryPath)); err != nil {
		return fmt.Errorf("pose.library_path: %w", err)
	}
	if c.Pose.ReplayPath, err = expandPath(strings.TrimSpace(c.Pose.ReplayPath)); err != nil {
		return fmt.Errorf("pose.replay_path: %w", err)
	}
	if c.Pose.InputSize <= 0 {
		c.Pose.InputSize = defaultInputSize
	}
	if c.Pose.TrackMaxMissed <= 0 {
		c.Pose.TrackMaxMissed = defaultTrackMaxMissed
	}
	return nil
}

func (c *Config) normalizeOverlay() {
	c.Overlay.Style = strings.ToLower(strings.TrimSpace(c.Overlay.Style))
	if c.Overlay.Style == "" {
		c.Overlay.Style = defaultOverlayStyle
	}
	if len(c.Overlay.DangerColor) == 0 {
		c.Overlay.DangerColor = defaultDangerColor()
	}
	if len(c.Overlay.NormalColor) == 0 {
		c.Overlay.NormalColor = defaultNormalColor()
	}
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	c.OpenAI.VisionModel = strings.TrimSpace(c.OpenAI.VisionModel)
	if c.OpenAI.VisionModel == "" {
		c.OpenAI.VisionModel = defaultVisionModel
	}
	if c.OpenAI.VisionMaxTokens <= 0 {
		c.OpenAI.VisionMaxTokens = defaultVisionMaxTokens
	}
	c.OpenAI.TTSModel = strings.TrimSpace(c.OpenAI.TTSModel)
	if c.OpenAI.TTSModel == "" {
		c.OpenAI.TTSModel = defaultTTSModel
	}
	c.OpenAI.TTSVoice = strings.ToLower(strings.TrimSpace(c.OpenAI.TTSVoice))
	if c.OpenAI.TTSVoice == "" {
		c.OpenAI.TTSVoice = defaultTTSVoice
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeoutSeconds
	}
	if c.OpenAI.ImageMaxDimension < 0 {
		c.OpenAI.ImageMaxDimension = 0
	}
}

func (c *Config) normalizeCleanup() {
	if c.Cleanup.RetentionHours < 0 {
		c.Cleanup.RetentionHours = 0
	}
	if c.Cleanup.IntervalMinutes <= 0 {
		c.Cleanup.IntervalMinutes = defaultCleanupIntervalMinute
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func lookupTrimmed(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseIntList(value string) ([]int, error) {
	parts := splitList(value)
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		parsed, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("expected comma-separated integers, got %q", value)
		}
		out = append(out, parsed)
	}
	return out, nil
}

func splitBind(bind string) (string, string) {
	idx := strings.LastIndex(bind, ":")
	if idx < 0 {
		return bind, ""
	}
	return bind[:idx], bind[idx+1:]
}

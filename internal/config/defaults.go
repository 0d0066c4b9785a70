package config

const (
	defaultBind                  = "0.0.0.0:8000"
	defaultMaxConcurrent         = 2
	defaultReadTimeoutSeconds    = 30
	defaultWriteTimeoutSeconds   = 0
	defaultDataDir               = "~/.local/share/formcheck"
	defaultLogDir                = "~/.local/share/formcheck/logs"
	defaultTempDir               = "~/.cache/formcheck/tmp"
	defaultAllowedDomain         = "supabase.co"
	defaultFetchTimeoutSeconds   = 30
	defaultChunkSize             = 8192
	defaultFrameSkip             = 10
	defaultMinFrameSkip          = 1
	defaultMaxFrameSkip          = 30
	defaultDangerAngle           = 60.0
	defaultPoseBackend           = "onnx"
	defaultModelPath             = "~/.local/share/formcheck/models/yolo11n-pose.onnx"
	defaultInputSize             = 640
	defaultConfidenceThreshold   = 0.25
	defaultNMSThreshold          = 0.45
	defaultTrackIoUThreshold     = 0.3
	defaultTrackMaxMissed        = 30
	defaultOverlayStyle          = "circle"
	defaultCircleOffsetX         = -20
	defaultCircleRadius          = 40
	defaultCircleThickness       = 3
	defaultLineWidth             = 4
	defaultOpenAIBaseURL         = "https://api.openai.com/v1"
	defaultVisionModel           = "gpt-4o-mini"
	defaultVisionMaxTokens       = 500
	defaultTTSModel              = "tts-1"
	defaultTTSVoice              = "alloy"
	defaultOpenAITimeoutSeconds  = 60
	defaultImageMaxDimension     = 1024
	defaultRetentionHours        = 24
	defaultCleanupIntervalMinute = 60
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
)

// Default keypoint triple: right hip, right knee, right ankle (COCO-17).
func defaultKeypoints() []int { return []int{12, 14, 16} }

func defaultDangerColor() []int { return []int{255, 0, 0} }

func defaultNormalColor() []int { return []int{17, 31, 104} }

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:                  defaultBind,
			MaxConcurrentAnalyses: defaultMaxConcurrent,
			ReadTimeoutSeconds:    defaultReadTimeoutSeconds,
			WriteTimeoutSeconds:   defaultWriteTimeoutSeconds,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			TempDir: defaultTempDir,
		},
		Fetch: Fetch{
			AllowedDomains: []string{defaultAllowedDomain},
			TimeoutSeconds: defaultFetchTimeoutSeconds,
			ChunkSize:      defaultChunkSize,
		},
		Scan: Scan{
			DefaultFrameSkip: defaultFrameSkip,
			MinFrameSkip:     defaultMinFrameSkip,
			MaxFrameSkip:     defaultMaxFrameSkip,
			DangerAngle:      defaultDangerAngle,
			Keypoints:        defaultKeypoints(),
		},
		Pose: Pose{
			Backend:             defaultPoseBackend,
			ModelPath:           defaultModelPath,
			InputSize:           defaultInputSize,
			ConfidenceThreshold: defaultConfidenceThreshold,
			NMSThreshold:        defaultNMSThreshold,
			TrackIoUThreshold:   defaultTrackIoUThreshold,
			TrackMaxMissed:      defaultTrackMaxMissed,
		},
		Overlay: Overlay{
			Style:           defaultOverlayStyle,
			CircleOffsetX:   defaultCircleOffsetX,
			CircleRadius:    defaultCircleRadius,
			CircleThickness: defaultCircleThickness,
			LineWidth:       defaultLineWidth,
			DangerColor:     defaultDangerColor(),
			NormalColor:     defaultNormalColor(),
		},
		OpenAI: OpenAI{
			BaseURL:           defaultOpenAIBaseURL,
			VisionModel:       defaultVisionModel,
			VisionMaxTokens:   defaultVisionMaxTokens,
			TTSModel:          defaultTTSModel,
			TTSVoice:          defaultTTSVoice,
			TimeoutSeconds:    defaultOpenAITimeoutSeconds,
			ImageMaxDimension: defaultImageMaxDimension,
		},
		History: History{
			Enabled: true,
		},
		Cleanup: Cleanup{
			RetentionHours:  defaultRetentionHours,
			IntervalMinutes: defaultCleanupIntervalMinute,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// cocoKeypointCount is the number of landmarks in the COCO body skeleton.
const cocoKeypointCount = 17

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validatePose(); err != nil {
		return err
	}
	if err := c.validateOverlay(); err != nil {
		return err
	}
	if err := c.validateOpenAI(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.PublicBaseURL != "" {
		parsed, err := url.Parse(c.Server.PublicBaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("server.public_base_url must be an absolute URL, got %q", c.Server.PublicBaseURL)
		}
	}
	return ensurePositiveMap(map[string]int{
		"server.max_concurrent_analyses": c.Server.MaxConcurrentAnalyses,
		"server.read_timeout_seconds":    c.Server.ReadTimeoutSeconds,
	})
}

func (c *Config) validateFetch() error {
	if len(c.Fetch.AllowedDomains) == 0 {
		return errors.New("fetch.allowed_domains must include at least one domain")
	}
	return ensurePositiveMap(map[string]int{
		"fetch.timeout_seconds": c.Fetch.TimeoutSeconds,
		"fetch.chunk_size":      c.Fetch.ChunkSize,
	})
}

func (c *Config) validateScan() error {
	if c.Scan.MinFrameSkip < 1 {
		return errors.New("scan.min_frame_skip must be at least 1")
	}
	if c.Scan.MaxFrameSkip < c.Scan.MinFrameSkip {
		return errors.New("scan.max_frame_skip must be greater than or equal to scan.min_frame_skip")
	}
	if c.Scan.DefaultFrameSkip < c.Scan.MinFrameSkip || c.Scan.DefaultFrameSkip > c.Scan.MaxFrameSkip {
		return fmt.Errorf("scan.default_frame_skip must be between %d and %d", c.Scan.MinFrameSkip, c.Scan.MaxFrameSkip)
	}
	if c.Scan.DangerAngle <= 0 || c.Scan.DangerAngle > 180 {
		return errors.New("scan.danger_angle must be within (0, 180]")
	}
	if len(c.Scan.Keypoints) != 3 {
		return fmt.Errorf("scan.keypoints must list exactly 3 landmark indices, got %d", len(c.Scan.Keypoints))
	}
	for _, idx := range c.Scan.Keypoints {
		if idx < 0 || idx >= cocoKeypointCount {
			return fmt.Errorf("scan.keypoints index %d outside 0..%d", idx, cocoKeypointCount-1)
		}
	}
	return nil
}

func (c *Config) validatePose() error {
	switch c.Pose.Backend {
	case "onnx":
		if strings.TrimSpace(c.Pose.ModelPath) == "" {
			return errors.New("pose.model_path must be set when pose.backend is onnx")
		}
	case "replay":
		if strings.TrimSpace(c.Pose.ReplayPath) == "" {
			return errors.New("pose.replay_path must be set when pose.backend is replay")
		}
	default:
		return fmt.Errorf("pose.backend must be onnx or replay, got %q", c.Pose.Backend)
	}
	for name, value := range map[string]float64{
		"pose.confidence_threshold": c.Pose.ConfidenceThreshold,
		"pose.nms_threshold":        c.Pose.NMSThreshold,
		"pose.track_iou_threshold":  c.Pose.TrackIoUThreshold,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if c.Pose.InputSize%32 != 0 {
		return errors.New("pose.input_size must be a multiple of 32")
	}
	return nil
}

func (c *Config) validateOverlay() error {
	switch c.Overlay.Style {
	case "circle", "lines":
	default:
		return fmt.Errorf("overlay.style must be circle or lines, got %q", c.Overlay.Style)
	}
	if err := ensurePositiveMap(map[string]int{
		"overlay.circle_radius":    c.Overlay.CircleRadius,
		"overlay.circle_thickness": c.Overlay.CircleThickness,
		"overlay.line_width":       c.Overlay.LineWidth,
	}); err != nil {
		return err
	}
	if err := validateColor("overlay.danger_color", c.Overlay.DangerColor); err != nil {
		return err
	}
	return validateColor("overlay.normal_color", c.Overlay.NormalColor)
}

func (c *Config) validateOpenAI() error {
	if c.OpenAI.VisionMaxTokens <= 0 {
		return errors.New("openai.vision_max_tokens must be positive")
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		return errors.New("openai.timeout_seconds must be positive")
	}
	return nil
}

func validateColor(name string, rgb []int) error {
	if len(rgb) != 3 {
		return fmt.Errorf("%s must have 3 components (R, G, B)", name)
	}
	for _, component := range rgb {
		if component < 0 || component > 255 {
			return fmt.Errorf("%s components must be between 0 and 255", name)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

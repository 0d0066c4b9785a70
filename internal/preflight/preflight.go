package preflight

import (
	"strings"

	"formcheck/internal/config"
)

// MinFreeBytes is the free space the data and scratch directories need.
const MinFreeBytes uint64 = 512 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the local readiness checks for the given config. It never
// contacts remote services; use CheckOpenAI for that.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Image directory", cfg.ImagesDir()),
		CheckDirectoryAccess("Audio directory", cfg.AudioDir()),
		CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir),
		CheckDiskSpace("Data disk", cfg.Paths.DataDir, MinFreeBytes),
	}
	results = append(results, CheckPoseBackend(cfg.Pose)...)
	results = append(results, CheckOpenAIKey(cfg.OpenAI))
	return results
}

// CheckPoseBackend verifies the files the configured tracker backend loads.
func CheckPoseBackend(cfg config.Pose) []Result {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "replay":
		return []Result{CheckFile("Pose replay", cfg.ReplayPath)}
	default:
		results := []Result{CheckFile("Pose model", cfg.ModelPath)}
		if strings.TrimSpace(cfg.LibraryPath) != "" {
			results = append(results, CheckFile("ONNX Runtime library", cfg.LibraryPath))
		}
		return results
	}
}

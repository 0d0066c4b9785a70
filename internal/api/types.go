package api

import (
	"formcheck/internal/analysis"
	"formcheck/internal/preflight"
)

const jsonExample = `{"video_url": "https://example.com/video.mp4"}`

// ErrorResponse is the body of every mapped analysis failure.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MissingParameterResponse is returned when GET /analyze lacks video_url.
type MissingParameterResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Example string `json:"example"`
}

// InvalidJSONResponse is returned when a POST body cannot be decoded.
type InvalidJSONResponse struct {
	Detail  string `json:"detail"`
	Help    string `json:"help"`
	Example string `json:"example"`
}

// AnalyzeBody is the POST /analyze payload. FrameSkip is a pointer so an
// absent value can fall back to the query parameter or the default.
type AnalyzeBody struct {
	VideoURL  string `json:"video_url"`
	FrameSkip *int   `json:"frame_skip,omitempty"`
}

// UsageResponse documents the API at GET /.
type UsageResponse struct {
	Message           string            `json:"message"`
	Usage             map[string]string `json:"usage"`
	FrameSkip         FrameSkipUsage    `json:"frame_skip"`
	JSONFormatExample JSONFormatExample `json:"json_format_example"`
}

// FrameSkipUsage describes the accepted frame_skip range.
type FrameSkipUsage struct {
	Default int `json:"default"`
	Min     int `json:"min"`
	Max     int `json:"max"`
}

// JSONFormatExample shows a correct and an incorrect POST body.
type JSONFormatExample struct {
	Correct   string `json:"correct"`
	Incorrect string `json:"incorrect"`
	Note      string `json:"note"`
}

// HistoryListResponse wraps GET /analyses.
type HistoryListResponse struct {
	Items []analysis.Record `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	preflight.Report
}

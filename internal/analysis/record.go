package analysis

import "time"

// Request asks for one video to be analyzed.
type Request struct {
	VideoURL  string
	FrameSkip int
}

// Record is a completed analysis.
type Record struct {
	ID                string    `json:"id"`
	VideoURL          string    `json:"video_url"`
	FrameSkip         int       `json:"frame_skip"`
	FrameIndex        int       `json:"frame_index"`
	TotalFrames       int       `json:"total_frames"`
	ProcessedFrames   int       `json:"processed_frames"`
	ImageURL          string    `json:"image_url"`
	MinKneeAngle      float64   `json:"min_knee_angle"`
	TextAnalysis      string    `json:"text_analysis"`
	Summary           string    `json:"summary"`
	Improvements      string    `json:"improvements"`
	RiskFactor        string    `json:"risk_factor"`
	AudioURL          *string   `json:"audio_url"`
	NarrativeFallback bool      `json:"narrative_fallback"`
	CreatedAt         time.Time `json:"created_at"`
}

// Response is the public result of an analysis request.
type Response struct {
	ImageURL     string  `json:"image_url"`
	MinKneeAngle float64 `json:"min_knee_angle"`
	TextAnalysis string  `json:"text_analysis"`
	Summary      string  `json:"summary"`
	Improvements string  `json:"improvements"`
	RiskFactor   string  `json:"risk_factor"`
	AudioURL     *string `json:"audio_url"`
}

// Response projects the record onto the public result shape.
func (r Record) Response() Response {
	return Response{
		ImageURL:     r.ImageURL,
		MinKneeAngle: r.MinKneeAngle,
		TextAnalysis: r.TextAnalysis,
		Summary:      r.Summary,
		Improvements: r.Improvements,
		RiskFactor:   r.RiskFactor,
		AudioURL:     r.AudioURL,
	}
}

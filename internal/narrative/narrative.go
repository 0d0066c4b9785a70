package narrative

import (
	"context"
	"fmt"
	"strings"
)

// Outcome is the result of one narrative request. Exactly one of Text or Err
// is meaningful.
type Outcome struct {
	Text string
	Err  error
}

// Generator produces a free-text coaching narrative for an annotated frame.
type Generator interface {
	Generate(ctx context.Context, png []byte, angle float64) Outcome
}

// ErrorFallback is used when the narrative service fails.
const ErrorFallback = `[SUMMARY]: Unable to perform detailed analysis due to a technical issue.

[IMPROVEMENTS]: Consider maintaining proper form with a knee angle greater than 90 degrees during squats.

[RISK FACTOR]: Exercise with caution and consult a fitness professional for personalized advice.`

// FormatFallback is used when the service replies without any of the expected
// section markers.
func FormatFallback(angle float64) string {
	return fmt.Sprintf(`[SUMMARY]: The image shows an exercise posture with a knee angle of %s degrees.

[IMPROVEMENTS]: Based on the knee angle, focus on proper form and alignment.

[RISK FACTOR]: Exercise with caution and consult a fitness professional for personalized advice.`, FormatAngle(angle))
}

// Prompt is the instruction sent alongside the image.
func Prompt(angle float64) string {
	return fmt.Sprintf(`Analyze this exercise image focusing on the knee angle (currently %s degrees) and the red circle indicator.
Provide a detailed analysis, must be in the following format:

1. [SUMMARY]: [SUMMARY OF THE ANALYSIS]
2. [IMPROVEMENTS]: [RECOMMENDATIONS FOR IMPROVEMENT]
3. [RISK FACTOR]: [RISK FACTOR OF THE EXERCISE]

Be specific and actionable in your feedback for points 2 and 3.`, FormatAngle(angle))
}

// FormatAngle renders an angle with one decimal place.
func FormatAngle(angle float64) string {
	return fmt.Sprintf("%.1f", angle)
}

var sectionMarkers = []string{"SUMMARY", "IMPROVEMENTS", "RISK FACTOR"}

// Resolve turns an outcome into the narrative text to publish. fallback
// reports whether a canned narrative replaced the service reply.
func Resolve(outcome Outcome, angle float64) (text string, fallback bool) {
	if outcome.Err != nil {
		return ErrorFallback, true
	}
	for _, marker := range sectionMarkers {
		if strings.Contains(outcome.Text, marker) {
			return outcome.Text, false
		}
	}
	return FormatFallback(angle), true
}

// Package narrative produces the written coaching feedback for an analysis.
//
// Client sends the annotated frame and a prompt embedding the measured angle
// to a vision model. Resolve substitutes a canned narrative when the service
// fails or ignores the requested format, and Parse splits the final text into
// summary, improvements and risk factor.
package narrative

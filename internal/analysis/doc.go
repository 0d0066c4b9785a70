// Package analysis orchestrates an analysis from video URL to published
// record: download, scan, frame publication, narrative, narration audio and
// history.
//
// Only a bad request, an unreadable video, an empty video or a failed image
// upload fail an analysis. Narrative and audio problems degrade the result
// instead.
package analysis

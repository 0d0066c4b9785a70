// Package replay serves pose detections recorded in a JSON file, keyed by
// frame index. It backs offline runs and tests where no inference runtime is
// available.
package replay
